package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// autosaveLabel marks revisions written by autosave.
const autosaveLabel = "autosave"

// ─────────────────────────────────────────────────────────────
// Autosave — periodic save of a dirty session
// ─────────────────────────────────────────────────────────────

// AutosaveService saves the open template on a cron schedule whenever it
// has unsaved changes. Runs never overlap.
type AutosaveService struct {
	editor *EditorService
	spec   string
	log    zerolog.Logger

	guard jobGuard
	mu    sync.Mutex
	cron  *cron.Cron
}

func NewAutosaveService(editor *EditorService, spec string, log zerolog.Logger) *AutosaveService {
	return &AutosaveService{editor: editor, spec: spec, log: log}
}

// Start schedules autosave. An empty spec disables it.
func (a *AutosaveService) Start(ctx context.Context) error {
	if a.spec == "" {
		a.log.Info().Msg("autosave disabled")
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(a.spec, func() {
		if _, err := a.RunOnce(ctx); err != nil {
			a.log.Error().Err(err).Msg("autosave failed")
		}
	}); err != nil {
		return fmt.Errorf("autosave: invalid schedule %q: %w", a.spec, err)
	}

	a.mu.Lock()
	if a.cron != nil {
		a.cron.Stop()
	}
	a.cron = c
	a.mu.Unlock()

	c.Start()
	a.log.Info().Str("schedule", a.spec).Msg("autosave scheduled")
	return nil
}

// RunOnce saves if the session is dirty. saved is false when the session
// was clean or another save was already running.
func (a *AutosaveService) RunOnce(ctx context.Context) (saved bool, err error) {
	ran, err := a.guard.run(autosaveKey, func() error {
		if !a.editor.Dirty() {
			return nil
		}
		saved = true
		_, err := a.editor.Save(ctx, autosaveLabel)
		return err
	})
	if !ran {
		a.log.Debug().Msg("autosave already running, skipped")
	}
	if err != nil {
		return false, err
	}
	return saved, nil
}

// Stop halts the schedule and waits for a running save or ctx.
func (a *AutosaveService) Stop(ctx context.Context) {
	a.mu.Lock()
	c := a.cron
	a.cron = nil
	a.mu.Unlock()
	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}
	if left := a.guard.wait(ctx); len(left) > 0 {
		a.log.Warn().Strs("jobs", keyStrings(left)).Msg("autosave still running at shutdown")
	}
}
