package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"maileditor/internal/domain"
	"maileditor/internal/editor"
	"maileditor/internal/render"
	"maileditor/internal/storage"
)

// RevisionStore is the persisted save-point history.
type RevisionStore interface {
	Append(ctx context.Context, doc *domain.Template, label string) (*domain.Revision, error)
	List(ctx context.Context, templateID string) ([]domain.Revision, error)
	Get(ctx context.Context, id string) (*domain.Revision, error)
	DeleteForTemplate(ctx context.Context, templateID string) error
}

// ─────────────────────────────────────────────────────────────
// Editor Service — one editing session over the template store
// ─────────────────────────────────────────────────────────────

// EditorService owns the in-memory document store and moves templates
// between it and persistence. Persistence failures never roll back the
// in-memory document.
type EditorService struct {
	store     *editor.Store
	templates domain.TemplateStore
	revisions RevisionStore
	renderer  *render.Renderer
	emitter   EventEmitter
	log       zerolog.Logger

	mu    sync.Mutex
	saved uint64 // store revision at the last successful save or load

	unsubscribe func()
}

func NewEditorService(store *editor.Store, templates domain.TemplateStore, revisions RevisionStore, emitter EventEmitter, log zerolog.Logger) *EditorService {
	s := &EditorService{
		store:     store,
		templates: templates,
		revisions: revisions,
		renderer:  render.New(),
		emitter:   emitter,
		log:       log,
		saved:     store.Revision(),
	}
	s.unsubscribe = store.Subscribe(func(st editor.State) {
		emitter.Emit(context.Background(), EventTemplateChanged, st)
	})
	return s
}

// Store exposes the document store for block-level operations.
func (s *EditorService) Store() *editor.Store {
	return s.store
}

// Templates exposes the persistence backend for read-only lookups.
func (s *EditorService) Templates() domain.TemplateStore {
	return s.templates
}

// New starts an empty template and persists it.
func (s *EditorService) New(ctx context.Context, name string) (*domain.Template, error) {
	if name == "" {
		name = "Untitled template"
	}
	doc := s.store.Reset(name)
	if _, err := s.Save(ctx, "created"); err != nil {
		return doc, err
	}
	return s.store.Document(), nil
}

// Open loads a stored template into the session, replacing the current one.
func (s *EditorService) Open(ctx context.Context, id string) (*domain.Template, error) {
	doc, err := s.templates.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.LoadDocument(doc); err != nil {
		return nil, fmt.Errorf("load template %s: %w", id, err)
	}
	s.markClean(s.store.Revision())
	s.log.Info().Str("template", id).Msg("template opened")
	return s.store.Document(), nil
}

// Save persists the current document and records a revision. On failure
// the session keeps its state and stays dirty.
func (s *EditorService) Save(ctx context.Context, label string) (*domain.Revision, error) {
	rev := s.store.Revision()
	doc := s.store.Document()

	if err := s.templates.SaveTemplate(ctx, doc); err != nil {
		s.log.Error().Err(err).Str("template", doc.ID).Msg("save failed")
		s.emitter.Emit(ctx, EventSaveFailed, map[string]string{"id": doc.ID, "error": err.Error()})
		return nil, fmt.Errorf("save template: %w", err)
	}
	var saved *domain.Revision
	if s.revisions != nil {
		r, err := s.revisions.Append(ctx, doc, label)
		if err != nil {
			// The template itself is stored; only the save point is missing.
			s.log.Warn().Err(err).Str("template", doc.ID).Msg("revision not recorded")
		}
		saved = r
	}
	s.markClean(rev)
	s.log.Info().Str("template", doc.ID).Str("label", label).Msg("template saved")
	s.emitter.Emit(ctx, EventTemplateSaved, doc.Summarize())
	return saved, nil
}

// Dirty reports unsaved changes.
func (s *EditorService) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Revision() != s.saved
}

func (s *EditorService) List(ctx context.Context) ([]domain.TemplateSummary, error) {
	return s.templates.ListTemplates(ctx)
}

// Delete removes a stored template and its revisions. Deleting the open
// template starts a fresh one.
func (s *EditorService) Delete(ctx context.Context, id string) error {
	if err := s.templates.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	if s.revisions != nil {
		if err := s.revisions.DeleteForTemplate(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("template", id).Msg("revisions not deleted")
		}
	}
	if s.store.Document().ID == id {
		s.store.Reset("Untitled template")
		s.markClean(s.store.Revision())
	}
	return nil
}

// Revisions lists save points of a template; empty id means the open one.
func (s *EditorService) Revisions(ctx context.Context, templateID string) ([]domain.Revision, error) {
	if s.revisions == nil {
		return []domain.Revision{}, nil
	}
	if templateID == "" {
		templateID = s.store.Document().ID
	}
	return s.revisions.List(ctx, templateID)
}

// RestoreRevision loads a save point of the open template. The restored
// document is unsaved until the next Save.
func (s *EditorService) RestoreRevision(ctx context.Context, revisionID string) (*domain.Template, error) {
	if s.revisions == nil {
		return nil, &domain.NotFoundError{Kind: "revision", ID: revisionID}
	}
	rev, err := s.revisions.Get(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	if rev.TemplateID != s.store.Document().ID {
		return nil, &domain.ValidationError{Field: "revisionId", Message: "revision belongs to another template"}
	}
	doc, err := storage.Snapshot(rev)
	if err != nil {
		return nil, err
	}
	if err := s.store.LoadDocument(doc); err != nil {
		return nil, err
	}
	return s.store.Document(), nil
}

// Import validates a template document and stores it. If it replaces the
// open template and the session has no unsaved changes, it is reloaded.
func (s *EditorService) Import(ctx context.Context, data []byte) (*domain.Template, error) {
	doc, err := storage.DecodeTemplate(data)
	if err != nil {
		return nil, err
	}
	scratch := editor.NewStore()
	if err := scratch.LoadDocument(doc); err != nil {
		return nil, err
	}
	doc = scratch.Document()
	if err := s.templates.SaveTemplate(ctx, doc); err != nil {
		return nil, fmt.Errorf("store imported template: %w", err)
	}
	if s.store.Document().ID == doc.ID && !s.Dirty() {
		if err := s.store.LoadDocument(doc); err != nil {
			return nil, err
		}
		s.markClean(s.store.Revision())
	}
	s.emitter.Emit(ctx, EventImported, doc.Summarize())
	return doc, nil
}

// Preview renders the open document. An empty mode uses the session's
// preview mode.
func (s *EditorService) Preview(opts render.Options) (string, error) {
	if opts.Mode == "" {
		opts.Mode = s.store.PreviewMode()
	}
	return s.renderer.HTML(s.store.Document(), opts)
}

// Close detaches the session from the store.
func (s *EditorService) Close() {
	s.unsubscribe()
}

func (s *EditorService) markClean(rev uint64) {
	s.mu.Lock()
	s.saved = rev
	s.mu.Unlock()
}
