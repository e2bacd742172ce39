package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const importDebounce = 500 * time.Millisecond

// ─────────────────────────────────────────────────────────────
// ImportWatcher — picks up template JSON files dropped in a folder
// ─────────────────────────────────────────────────────────────

// ImportWatcher imports every *.json file written to dir.
type ImportWatcher struct {
	editor *EditorService
	dir    string
	log    zerolog.Logger

	guard   jobGuard
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

func NewImportWatcher(editor *EditorService, dir string, log zerolog.Logger) *ImportWatcher {
	return &ImportWatcher{editor: editor, dir: dir, log: log}
}

// Start watches the directory until Stop or ctx is done.
func (w *ImportWatcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create import dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %q: %w", w.dir, err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.watcher = watcher
	w.cancel = cancel
	w.mu.Unlock()

	go w.loop(watchCtx, watcher)
	w.log.Info().Str("dir", w.dir).Msg("watching for template imports")
	return nil
}

func (w *ImportWatcher) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
				continue
			}
			path := event.Name
			if t, exists := timers[path]; exists {
				t.Stop()
			}
			// Editors write in several chunks; import once the file settles.
			timers[path] = time.AfterFunc(importDebounce, func() {
				if err := w.ImportFile(ctx, path); err != nil {
					w.log.Warn().Err(err).Str("file", path).Msg("import failed")
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("import watcher error")
		}
	}
}

// ImportFile imports a single template file. A file already being imported
// is skipped.
func (w *ImportWatcher) ImportFile(ctx context.Context, path string) error {
	ran, err := w.guard.run(importKey(path), func() error {
		return w.importFile(ctx, path)
	})
	if !ran {
		w.log.Debug().Str("file", path).Msg("import already running, skipped")
	}
	return err
}

func (w *ImportWatcher) importFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := w.editor.Import(ctx, data)
	if err != nil {
		return err
	}
	w.log.Info().Str("file", path).Str("template", doc.ID).Msg("template imported")
	return nil
}

// Stop tears the watcher down and waits for running imports.
func (w *ImportWatcher) Stop(ctx context.Context) {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.watcher != nil {
		w.watcher.Close()
		w.watcher = nil
	}
	w.mu.Unlock()
	if left := w.guard.wait(ctx); len(left) > 0 {
		w.log.Warn().Strs("jobs", keyStrings(left)).Msg("imports still running at shutdown")
	}
}
