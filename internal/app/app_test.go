package app_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maileditor/internal/app"
	"maileditor/internal/config"
	"maileditor/internal/domain"
	"maileditor/internal/storage"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DataDir:       t.TempDir(),
		Store:         string(domain.DatabaseDriverSQLite),
		HistoryLimit:  50,
		RevisionLimit: 10,
		Autosave:      "@every 1h",
	}
}

func TestApp_SavesOnShutdown(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, err := app.New(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, a.Start(ctx))

	ed := a.Editor()
	doc, err := ed.New(ctx, "Before exit")
	require.NoError(t, err)
	_, err = ed.Store().AddBlock(domain.BlockTypeFooter, nil)
	require.NoError(t, err)
	require.True(t, ed.Dirty())

	a.Shutdown(ctx)

	db, err := storage.New(cfg.DBPath(), cfg.DataDir)
	require.NoError(t, err)
	defer db.Close()
	stored, err := storage.NewTemplateStore(db).GetTemplate(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Blocks, 1)
}

func TestApp_NoAutosaveLeavesChangesUnsaved(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Autosave = ""

	a, err := app.New(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, a.Start(ctx))

	doc, err := a.Editor().New(ctx, "Draft")
	require.NoError(t, err)
	_, err = a.Editor().Store().AddBlock(domain.BlockTypeText, nil)
	require.NoError(t, err)
	a.Shutdown(ctx)

	db, err := storage.New(cfg.DBPath(), cfg.DataDir)
	require.NoError(t, err)
	defer db.Close()
	stored, err := storage.NewTemplateStore(db).GetTemplate(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Blocks)
}

func TestApp_ImportDirIsWatched(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.ImportDir = filepath.Join(cfg.DataDir, "import")

	a, err := app.New(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, a.Start(ctx))
	defer a.Shutdown(ctx)

	assert.DirExists(t, cfg.ImportDir)
}

func TestApp_RejectsUnknownStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = "cassandra"

	_, err := app.New(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestApp_RejectsBadAutosaveSchedule(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Autosave = "whenever"

	a, err := app.New(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Shutdown(ctx)
	assert.Error(t, a.Start(ctx))
}
