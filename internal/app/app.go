package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"maileditor/internal/config"
	"maileditor/internal/dbclient"
	"maileditor/internal/domain"
	"maileditor/internal/editor"
	mcpserver "maileditor/internal/mcp"
	"maileditor/internal/secret"
	"maileditor/internal/service"
	"maileditor/internal/storage"
)

const connectTimeout = 15 * time.Second

// App owns every long-lived component of one editor process.
type App struct {
	cfg config.Config
	log zerolog.Logger

	db       *storage.DB
	remote   dbclient.Store
	editor   *service.EditorService
	autosave *service.AutosaveService
	watcher  *service.ImportWatcher
	mcp      *mcpserver.Server
}

// New opens storage and builds the services. Nothing runs until Serve.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	db, err := storage.New(cfg.DBPath(), cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open local database: %w", err)
	}
	a.db = db

	var templates domain.TemplateStore = storage.NewTemplateStore(db)
	if cfg.Remote() {
		remote, err := a.openRemote(ctx)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.remote = remote
		templates = remote
	}
	revisions := storage.NewRevisionStore(db, cfg.RevisionLimit)

	store := editor.NewStore(
		editor.WithHistoryLimit(cfg.HistoryLimit),
		editor.WithLogger(log.With().Str("component", "editor").Logger()),
	)
	emitter := service.LogEmitter{Log: log}
	a.editor = service.NewEditorService(store, templates, revisions, emitter, log.With().Str("component", "service").Logger())
	a.autosave = service.NewAutosaveService(a.editor, cfg.Autosave, log.With().Str("component", "autosave").Logger())
	if cfg.ImportDir != "" {
		a.watcher = service.NewImportWatcher(a.editor, cfg.ImportDir, log.With().Str("component", "import").Logger())
	}
	a.mcp = mcpserver.New(mcpserver.Deps{
		Editor: a.editor,
		Log:    log.With().Str("component", "mcp").Logger(),
	})
	return a, nil
}

// openRemote connects to the configured template database. The password
// comes from the environment or, failing that, the system keychain.
func (a *App) openRemote(ctx context.Context) (dbclient.Store, error) {
	conn := a.cfg.Connection()

	var secrets secret.SecretStore
	if kc := secret.NewKeychainStore(); kc.Available() {
		secrets = kc
	}
	password, err := secret.Password(a.cfg.DBPassword, secrets, conn)
	if err != nil {
		a.log.Warn().Err(err).Msg("no stored password, connecting without one")
	}

	remote, err := dbclient.NewTemplateStore(conn, password, a.log)
	if err != nil {
		return nil, fmt.Errorf("open %s template store: %w", conn.Driver, err)
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := remote.Ping(ctx); err != nil {
		remote.Close()
		return nil, fmt.Errorf("connect to %s: %w", conn.Driver, err)
	}
	if err := remote.Migrate(ctx); err != nil {
		remote.Close()
		return nil, fmt.Errorf("prepare %s template store: %w", conn.Driver, err)
	}
	a.log.Info().Str("driver", string(conn.Driver)).Str("host", conn.Host).Msg("using remote template store")
	return remote, nil
}

// Editor exposes the editing session.
func (a *App) Editor() *service.EditorService {
	return a.editor
}

// Start launches autosave and the import watcher.
func (a *App) Start(ctx context.Context) error {
	if err := a.autosave.Start(ctx); err != nil {
		return err
	}
	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Serve starts background services and runs the MCP server on stdio until
// the client disconnects or ctx is done.
func (a *App) Serve(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() { errCh <- a.mcp.ServeStdio() }()
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown stops background work, saves unsaved changes when autosave is
// enabled, and closes the stores.
func (a *App) Shutdown(ctx context.Context) {
	a.autosave.Stop(ctx)
	if a.watcher != nil {
		a.watcher.Stop(ctx)
	}
	if a.cfg.Autosave != "" {
		if saved, err := a.autosave.RunOnce(ctx); err != nil {
			a.log.Error().Err(err).Msg("final save failed")
		} else if saved {
			a.log.Info().Msg("unsaved changes saved on exit")
		}
	}
	a.editor.Close()
	if a.remote != nil {
		if err := a.remote.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close remote store")
		}
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close local database")
	}
}
