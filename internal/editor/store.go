package editor

import (
	"encoding/json"
	"iter"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"maileditor/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Store — the single owner of the template being edited
// ─────────────────────────────────────────────────────────────

// State is what subscribers render from.
type State struct {
	Document    *domain.Template   `json:"document"`
	SelectedID  string             `json:"selectedId,omitempty"`
	EditingID   string             `json:"editingId,omitempty"`
	CanUndo     bool               `json:"canUndo"`
	CanRedo     bool               `json:"canRedo"`
	PreviewMode domain.PreviewMode `json:"previewMode"`
}

// Listener receives the new state after every observable change.
type Listener func(State)

type Option func(*Store)

// WithHistoryLimit caps the undo history. Values below 2 use the default.
func WithHistoryLimit(n int) Option {
	return func(s *Store) { s.historyLimit = n }
}

// WithClock replaces time.Now for UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Store holds the current template, the selection cursor and the history.
// Every operation completes atomically: subscribers never observe
// non-dense positions or an inconsistent cursor.
type Store struct {
	mu       sync.Mutex
	doc      *domain.Template
	cursor   Cursor
	history  *History
	preview  domain.PreviewMode
	revision uint64 // bumped on every document change, used for dirty tracking

	historyLimit int
	now          func() time.Time
	log          zerolog.Logger

	listenersMu  sync.Mutex
	listeners    map[int]Listener
	nextListener int
}

// NewStore creates a store editing a new, empty template.
func NewStore(opts ...Option) *Store {
	s := &Store{
		preview:      domain.PreviewDesktop,
		historyLimit: DefaultHistoryLimit,
		now:          time.Now,
		log:          zerolog.Nop(),
		listeners:    make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.doc = NewTemplate("Untitled template", s.now())
	s.history = NewHistory(s.doc, s.historyLimit)
	return s
}

// NewTemplate returns an empty template with default global styles.
func NewTemplate(name string, now time.Time) *domain.Template {
	return &domain.Template{
		ID:           newID(),
		Name:         name,
		Blocks:       []domain.Block{},
		GlobalStyles: domain.DefaultGlobalStyles(),
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      domain.SchemaVersion,
	}
}

// ── Document lifecycle ─────────────────────────────────────

// LoadDocument replaces the current template, clears the cursor and resets
// history to the loaded document. Positions are normalized on load.
func (s *Store) LoadDocument(doc *domain.Template) error {
	if doc == nil {
		return &domain.ValidationError{Field: "document", Message: "document is required"}
	}
	next := doc.Clone()
	if next.Blocks == nil {
		next.Blocks = []domain.Block{}
	}
	next.Blocks = Reconcile(next.Blocks)
	if v := CheckPositions(next.Blocks); v != nil {
		return &domain.ValidationError{Field: "blocks", Message: v.Message}
	}
	if next.Version == 0 {
		next.Version = domain.SchemaVersion
	}

	s.mu.Lock()
	s.doc = next
	s.cursor.Clear()
	s.history.Reset(next)
	s.revision++
	state := s.stateLocked()
	s.mu.Unlock()

	s.log.Debug().Str("template", next.ID).Int("blocks", len(next.Blocks)).Msg("document loaded")
	s.notify(state)
	return nil
}

// Reset starts a new empty template with a fresh id.
func (s *Store) Reset(name string) *domain.Template {
	doc := NewTemplate(name, s.now())
	// An empty template always passes validation.
	_ = s.LoadDocument(doc)
	return doc.Clone()
}

// ── Structural operations ──────────────────────────────────

// AddBlock creates a block of type t. A nil position appends; otherwise the
// block is inserted at the clamped position and later blocks shift down.
// The new block becomes selected.
func (s *Store) AddBlock(t domain.BlockType, position *int) (domain.Block, error) {
	block, err := NewBlock(t)
	if err != nil {
		return domain.Block{}, err
	}
	doc, err := s.commit("add", func(doc *domain.Template) error {
		insertAt(&doc.Blocks, &block, position)
		s.cursor.Select(block.ID)
		return nil
	})
	if err != nil {
		return domain.Block{}, err
	}
	return committed(doc, block.ID), nil
}

// AddNestedBlock creates a block inside column columnIndex of the columns
// block containerID. Only one level of nesting is supported.
func (s *Store) AddNestedBlock(containerID string, columnIndex int, t domain.BlockType, position *int) (domain.Block, error) {
	if t.IsContainer() {
		return domain.Block{}, &domain.ValidationError{Field: "type", Message: "containers cannot be nested"}
	}
	block, err := NewBlock(t)
	if err != nil {
		return domain.Block{}, err
	}
	doc, err := s.commit("add_nested", func(doc *domain.Template) error {
		loc, ok := locate(doc, containerID)
		if !ok || loc.nested() {
			return domain.BlockNotFound(containerID)
		}
		cols, ok := (*loc.list)[loc.index].Columns()
		if !ok {
			return &domain.ValidationError{Field: "containerId", Message: "block " + containerID + " is not a columns block"}
		}
		if columnIndex < 0 || columnIndex >= len(cols.Columns) {
			return &domain.ValidationError{Field: "columnIndex", Message: "column index out of range"}
		}
		insertAt(&cols.Columns[columnIndex].NestedBlocks, &block, position)
		s.cursor.Select(block.ID)
		return nil
	})
	if err != nil {
		return domain.Block{}, err
	}
	return committed(doc, block.ID), nil
}

// UpdateBlock merges patch into the block with the given id.
func (s *Store) UpdateBlock(id string, patch BlockPatch) (*domain.Template, error) {
	if patch.empty() {
		return nil, &domain.ValidationError{Field: "patch", Message: "patch is empty"}
	}
	return s.commit("update", func(doc *domain.Template) error {
		loc, ok := locate(doc, id)
		if !ok {
			return domain.BlockNotFound(id)
		}
		return applyBlockPatch(&(*loc.list)[loc.index], patch)
	})
}

// DeleteBlock removes the block and renumbers its siblings. The cursor is
// cleared when it pointed at the removed block or at one of its children.
func (s *Store) DeleteBlock(id string) (*domain.Template, error) {
	return s.commit("delete", func(doc *domain.Template) error {
		loc, ok := locate(doc, id)
		if !ok {
			return domain.BlockNotFound(id)
		}
		removed := (*loc.list)[loc.index]
		*loc.list = append((*loc.list)[:loc.index], (*loc.list)[loc.index+1:]...)

		s.cursor.Forget(removed.ID)
		if cols, ok := removed.Columns(); ok {
			for _, col := range cols.Columns {
				for _, nb := range col.NestedBlocks {
					s.cursor.Forget(nb.ID)
				}
			}
		}
		return nil
	})
}

// DuplicateBlock inserts a deep copy with fresh ids right after the source.
// The copy becomes selected.
func (s *Store) DuplicateBlock(id string) (domain.Block, error) {
	var cloneID string
	doc, err := s.commit("duplicate", func(doc *domain.Template) error {
		loc, ok := locate(doc, id)
		if !ok {
			return domain.BlockNotFound(id)
		}
		list := *loc.list
		src := list[loc.index]
		for i := range list {
			if list[i].Position > src.Position {
				list[i].Position++
			}
		}
		clone := CloneBlock(src)
		clone.Position = src.Position + 1
		*loc.list = append(list, clone)
		cloneID = clone.ID
		s.cursor.Select(clone.ID)
		return nil
	})
	if err != nil {
		return domain.Block{}, err
	}
	return committed(doc, cloneID), nil
}

// MoveBlock moves the block to newPosition within its own list, clamped to
// [0, N-1]. Moving to the current position records nothing.
func (s *Store) MoveBlock(id string, newPosition int) (*domain.Template, error) {
	s.mu.Lock()
	loc, ok := locate(s.doc, id)
	if !ok {
		s.mu.Unlock()
		return nil, domain.BlockNotFound(id)
	}
	if clamp(newPosition, 0, len(*loc.list)-1) == loc.index {
		doc := s.doc.Clone()
		s.mu.Unlock()
		return doc, nil
	}
	s.mu.Unlock()

	return s.commit("move", func(doc *domain.Template) error {
		loc, ok := locate(doc, id)
		if !ok {
			return domain.BlockNotFound(id)
		}
		list := *loc.list
		moved := list[loc.index]
		rest := make([]domain.Block, 0, len(list))
		rest = append(rest, list[:loc.index]...)
		rest = append(rest, list[loc.index+1:]...)

		target := clamp(newPosition, 0, len(rest))
		out := make([]domain.Block, 0, len(list))
		out = append(out, rest[:target]...)
		out = append(out, moved)
		out = append(out, rest[target:]...)
		for i := range out {
			out[i].Position = i
		}
		*loc.list = out
		return nil
	})
}

// UpdateGlobalStyles merges a JSON patch into the template's global styles.
func (s *Store) UpdateGlobalStyles(patch json.RawMessage) (*domain.Template, error) {
	if len(patch) == 0 {
		return nil, &domain.ValidationError{Field: "globalStyles", Message: "patch is empty"}
	}
	return s.commit("global_styles", func(doc *domain.Template) error {
		styles := doc.GlobalStyles
		if err := mergeJSON("globalStyles", patch, &styles); err != nil {
			return err
		}
		if err := validateGlobalStyles(styles); err != nil {
			return err
		}
		doc.GlobalStyles = styles
		return nil
	})
}

// UpdateMeta changes name, subject or preheader.
func (s *Store) UpdateMeta(patch MetaPatch) (*domain.Template, error) {
	if patch.Name == nil && patch.Subject == nil && patch.Preheader == nil {
		return nil, &domain.ValidationError{Field: "meta", Message: "patch is empty"}
	}
	return s.commit("meta", func(doc *domain.Template) error {
		if patch.Name != nil {
			if *patch.Name == "" {
				return &domain.ValidationError{Field: "name", Message: "name must not be empty"}
			}
			doc.Name = *patch.Name
		}
		if patch.Subject != nil {
			doc.Subject = *patch.Subject
		}
		if patch.Preheader != nil {
			doc.Preheader = *patch.Preheader
		}
		return nil
	})
}

// ── Cursor and UI flags (no history) ───────────────────────

// SelectBlock selects id and leaves edit mode. An empty id clears the
// selection.
func (s *Store) SelectBlock(id string) error {
	return s.touch(func() error {
		if id != "" {
			if _, ok := locate(s.doc, id); !ok {
				return domain.BlockNotFound(id)
			}
		}
		s.cursor.Select(id)
		return nil
	})
}

func (s *Store) ClearSelection() {
	_ = s.SelectBlock("")
}

// StartEditing puts id in edit mode, which also selects it.
func (s *Store) StartEditing(id string) error {
	return s.touch(func() error {
		if _, ok := locate(s.doc, id); !ok {
			return domain.BlockNotFound(id)
		}
		s.cursor.StartEditing(id)
		return nil
	})
}

// StopEditing leaves edit mode and keeps the selection.
func (s *Store) StopEditing() {
	_ = s.touch(func() error {
		s.cursor.StopEditing()
		return nil
	})
}

func (s *Store) SetPreviewMode(mode domain.PreviewMode) error {
	if _, err := domain.ParsePreviewMode(string(mode)); err != nil {
		return err
	}
	return s.touch(func() error {
		s.preview = mode
		return nil
	})
}

// ── History ────────────────────────────────────────────────

// Undo steps back one snapshot and clears the cursor. ok is false when
// there is nothing to undo.
func (s *Store) Undo() (doc *domain.Template, ok bool) {
	return s.travel(s.history.Undo)
}

// Redo steps forward one snapshot and clears the cursor.
func (s *Store) Redo() (doc *domain.Template, ok bool) {
	return s.travel(s.history.Redo)
}

func (s *Store) travel(step func() (*domain.Template, bool)) (*domain.Template, bool) {
	s.mu.Lock()
	doc, ok := step()
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	s.doc = doc
	s.cursor.Clear()
	s.revision++
	state := s.stateLocked()
	s.mu.Unlock()

	s.notify(state)
	return doc.Clone(), true
}

func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// ── Selectors ──────────────────────────────────────────────

// Document returns a copy of the current template.
func (s *Store) Document() *domain.Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Block returns a copy of the block with the given id, nested blocks included.
func (s *Store) Block(id string) (domain.Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := locate(s.doc, id)
	if !ok {
		return domain.Block{}, false
	}
	return (*loc.list)[loc.index].Clone(), true
}

// ParentOf reports the columns block holding id; parentID is empty for
// top-level blocks.
func (s *Store) ParentOf(id string) (parentID string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := locate(s.doc, id)
	if !ok {
		return "", false
	}
	return loc.parent, true
}

// SelectedBlock returns the selected block, if any.
func (s *Store) SelectedBlock() (domain.Block, bool) {
	s.mu.Lock()
	id := s.cursor.Selected()
	s.mu.Unlock()
	if id == "" {
		return domain.Block{}, false
	}
	return s.Block(id)
}

// OrderedBlocks yields the top-level blocks sorted by position. Each range
// over the sequence reads the document current at that time.
func (s *Store) OrderedBlocks() iter.Seq[domain.Block] {
	return func(yield func(domain.Block) bool) {
		doc := s.Document()
		for _, b := range doc.Blocks {
			if !yield(b) {
				return
			}
		}
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Store) PreviewMode() domain.PreviewMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview
}

// Revision increases whenever the document changes (mutation, undo, redo,
// load). Equal revisions mean an identical document.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// HistoryLen returns the number of retained snapshots and the current index.
func (s *Store) HistoryLen() (length, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Len(), s.history.Index()
}

// Subscribe registers fn for state changes and returns its unsubscribe func.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

// ── internals ──────────────────────────────────────────────

// commit runs fn on a copy of the document. On success the copy is
// reconciled, stamped, recorded in history and published; on error nothing
// changes.
func (s *Store) commit(op string, fn func(doc *domain.Template) error) (*domain.Template, error) {
	s.mu.Lock()
	next := s.doc.Clone()
	cursor := s.cursor
	if err := fn(next); err != nil {
		s.cursor = cursor
		s.mu.Unlock()
		s.log.Debug().Str("op", op).Err(err).Msg("operation rejected")
		return nil, err
	}
	next.Blocks = Reconcile(next.Blocks)
	if v := CheckPositions(next.Blocks); v != nil {
		s.mu.Unlock()
		panic(v)
	}
	next.UpdatedAt = s.now()
	s.doc = next
	s.history.Record(next)
	s.revision++
	state := s.stateLocked()
	out := next.Clone()
	s.mu.Unlock()

	s.log.Debug().Str("op", op).Str("template", next.ID).Int("blocks", len(next.Blocks)).Msg("document changed")
	s.notify(state)
	return out, nil
}

// touch changes cursor or UI state without touching history.
func (s *Store) touch(fn func() error) error {
	s.mu.Lock()
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	state := s.stateLocked()
	s.mu.Unlock()
	s.notify(state)
	return nil
}

func (s *Store) stateLocked() State {
	return State{
		Document:    s.doc.Clone(),
		SelectedID:  s.cursor.Selected(),
		EditingID:   s.cursor.Editing(),
		CanUndo:     s.history.CanUndo(),
		CanRedo:     s.history.CanRedo(),
		PreviewMode: s.preview,
	}
}

func (s *Store) notify(state State) {
	s.listenersMu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()
	for _, fn := range fns {
		fn(state)
	}
}

// FindBlock looks id up in doc, at the top level or inside a column.
func FindBlock(doc *domain.Template, id string) (domain.Block, bool) {
	loc, ok := locate(doc, id)
	if !ok {
		return domain.Block{}, false
	}
	return (*loc.list)[loc.index], true
}

// committed reads a block back from the document commit returned, so a
// concurrent change after the lock is released cannot hide it.
func committed(doc *domain.Template, id string) domain.Block {
	loc, ok := locate(doc, id)
	if !ok {
		panic(&domain.InvariantViolation{Message: "block " + id + " missing from its own commit"})
	}
	return (*loc.list)[loc.index]
}

// location addresses a block inside the document: the slice that holds it
// and its index in that slice.
type location struct {
	list   *[]domain.Block
	index  int
	parent string // containing columns block id, empty at top level
}

func (l location) nested() bool { return l.parent != "" }

// locate finds id at the top level or one level down inside columns.
func locate(doc *domain.Template, id string) (location, bool) {
	if id == "" {
		return location{}, false
	}
	for i := range doc.Blocks {
		if doc.Blocks[i].ID == id {
			return location{list: &doc.Blocks, index: i}, true
		}
	}
	for i := range doc.Blocks {
		cols, ok := doc.Blocks[i].Columns()
		if !ok {
			continue
		}
		for c := range cols.Columns {
			nested := &cols.Columns[c].NestedBlocks
			for j := range *nested {
				if (*nested)[j].ID == id {
					return location{list: nested, index: j, parent: doc.Blocks[i].ID}, true
				}
			}
		}
	}
	return location{}, false
}

// insertAt places b at the clamped position (or the end when nil) and
// shifts every block at or after it by one.
func insertAt(list *[]domain.Block, b *domain.Block, position *int) {
	n := len(*list)
	target := n
	if position != nil {
		target = clamp(*position, 0, n)
	}
	for i := range *list {
		if (*list)[i].Position >= target {
			(*list)[i].Position++
		}
	}
	b.Position = target
	*list = append(*list, *b)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
