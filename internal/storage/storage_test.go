package storage_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maileditor/internal/domain"
	"maileditor/internal/editor"
	"maileditor/internal/storage"
)

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "maileditor.db"), filepath.Join(dir, "data"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleTemplate(t *testing.T, name string) *domain.Template {
	t.Helper()
	s := editor.NewStore()
	s.Reset(name)
	_, err := s.AddBlock(domain.BlockTypeHeading, nil)
	require.NoError(t, err)
	cols, err := s.AddBlock(domain.BlockTypeColumns, nil)
	require.NoError(t, err)
	_, err = s.AddNestedBlock(cols.ID, 1, domain.BlockTypeButton, nil)
	require.NoError(t, err)
	return s.Document()
}

// ─────────────────────────────────────────────────────────────
// Migrations
// ─────────────────────────────────────────────────────────────

func TestNew_MigrationsAreRepeatable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db", "maileditor.db")
	db, err := storage.New(path, dir)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = storage.New(path, dir)
	require.NoError(t, err)
	assert.Equal(t, dir, db.DataDir())
	require.NoError(t, db.Close())
}

// ─────────────────────────────────────────────────────────────
// Templates
// ─────────────────────────────────────────────────────────────

func TestTemplateStore_SaveGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewTemplateStore(openDB(t))
	doc := sampleTemplate(t, "Welcome")

	require.NoError(t, store.SaveTemplate(ctx, doc))
	got, err := store.GetTemplate(ctx, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, doc.Name, got.Name)
	require.Len(t, got.Blocks, 2)
	assert.IsType(t, &domain.HeadingContent{}, got.Blocks[0].Content)
	cols, ok := got.Blocks[1].Columns()
	require.True(t, ok)
	require.Len(t, cols.Columns[1].NestedBlocks, 1)
	assert.Equal(t, domain.BlockTypeButton, cols.Columns[1].NestedBlocks[0].Type)
	assert.Nil(t, editor.CheckPositions(got.Blocks))
}

func TestTemplateStore_SaveUpserts(t *testing.T) {
	ctx := context.Background()
	store := storage.NewTemplateStore(openDB(t))
	doc := sampleTemplate(t, "Draft")
	require.NoError(t, store.SaveTemplate(ctx, doc))

	doc.Name = "Final"
	doc.UpdatedAt = doc.UpdatedAt.Add(time.Minute)
	require.NoError(t, store.SaveTemplate(ctx, doc))

	list, err := store.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Final", list[0].Name)
	assert.Equal(t, 2, list[0].BlockCount)
}

func TestTemplateStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := storage.NewTemplateStore(openDB(t))

	_, err := store.GetTemplate(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))
	assert.True(t, domain.IsNotFound(store.DeleteTemplate(ctx, "missing")))
}

func TestTemplateStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := storage.NewTemplateStore(openDB(t))
	a := sampleTemplate(t, "A")
	b := sampleTemplate(t, "B")
	require.NoError(t, store.SaveTemplate(ctx, a))
	require.NoError(t, store.SaveTemplate(ctx, b))

	require.NoError(t, store.DeleteTemplate(ctx, a.ID))
	list, err := store.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}

func TestDecodeTemplate_Rejects(t *testing.T) {
	_, err := storage.DecodeTemplate([]byte(`{"name":"no id"}`))
	assert.True(t, domain.IsValidation(err))

	_, err = storage.DecodeTemplate([]byte(`{"id":"x","blocks":[{"id":"b","type":"video"}]}`))
	assert.True(t, domain.IsValidation(err))

	_, err = storage.DecodeTemplate([]byte(`not json`))
	assert.True(t, domain.IsValidation(err))

	got, err := storage.DecodeTemplate([]byte(`{"id":"x"}`))
	require.NoError(t, err)
	assert.NotNil(t, got.Blocks)
}

// ─────────────────────────────────────────────────────────────
// Revisions
// ─────────────────────────────────────────────────────────────

func TestRevisionStore_AppendRecordsPatch(t *testing.T) {
	ctx := context.Background()
	revs := storage.NewRevisionStore(openDB(t), 10)
	doc := sampleTemplate(t, "Promo")

	first, err := revs.Append(ctx, doc, "initial")
	require.NoError(t, err)
	assert.Greater(t, first.ChangeCount, 0)

	doc.Subject = "50% off"
	second, err := revs.Append(ctx, doc, "subject")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, second.ChangeCount)

	var ops []map[string]any
	require.NoError(t, json.Unmarshal([]byte(second.PatchJSON), &ops))
	require.Len(t, ops, 1)
	assert.Equal(t, "replace", ops[0]["op"])
	assert.Equal(t, "/subject", ops[0]["path"])

	list, err := revs.List(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	got, err := revs.Get(ctx, second.ID)
	require.NoError(t, err)
	snap, err := storage.Snapshot(got)
	require.NoError(t, err)
	assert.Equal(t, "50% off", snap.Subject)
}

func TestRevisionStore_UnchangedDocumentIsNotRecorded(t *testing.T) {
	ctx := context.Background()
	revs := storage.NewRevisionStore(openDB(t), 10)
	doc := sampleTemplate(t, "Same")

	first, err := revs.Append(ctx, doc, "a")
	require.NoError(t, err)
	again, err := revs.Append(ctx, doc, "b")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	list, err := revs.List(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRevisionStore_PrunesOldest(t *testing.T) {
	ctx := context.Background()
	revs := storage.NewRevisionStore(openDB(t), 3)
	doc := sampleTemplate(t, "Prune")

	var ids []string
	for _, subject := range []string{"a", "b", "c", "d", "e"} {
		doc.Subject = subject
		r, err := revs.Append(ctx, doc, subject)
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	list, err := revs.List(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{ids[4], ids[3], ids[2]}, []string{list[0].ID, list[1].ID, list[2].ID})

	_, err = revs.Get(ctx, ids[0])
	assert.True(t, domain.IsNotFound(err))
}

func TestRevisionStore_DeleteForTemplate(t *testing.T) {
	ctx := context.Background()
	revs := storage.NewRevisionStore(openDB(t), 0)
	doc := sampleTemplate(t, "Gone")
	_, err := revs.Append(ctx, doc, "x")
	require.NoError(t, err)

	require.NoError(t, revs.DeleteForTemplate(ctx, doc.ID))
	_, err = revs.Latest(ctx, doc.ID)
	assert.True(t, domain.IsNotFound(err))
}
