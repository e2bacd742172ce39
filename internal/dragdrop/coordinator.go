package dragdrop

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"maileditor/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Coordinator — turns pointer gestures into store operations
// ─────────────────────────────────────────────────────────────

// Phase of the drag state machine.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseDragging  Phase = "dragging"
	PhaseResolving Phase = "resolving"
)

var (
	ErrDragInProgress = errors.New("dragdrop: a drag is already in progress")
	ErrNotDragging    = errors.New("dragdrop: no drag in progress")
)

// Source describes what is being dragged: a palette item (Type set) or an
// existing block (BlockID set).
type Source struct {
	Type    domain.BlockType `json:"type,omitempty"`
	BlockID string           `json:"blockId,omitempty"`
}

func PaletteSource(t domain.BlockType) Source { return Source{Type: t} }
func BlockSource(id string) Source           { return Source{BlockID: id} }

func (s Source) IsNew() bool { return s.BlockID == "" }

// DropZone is a registered region. BlockID names the block it renders; an
// empty BlockID is the canvas tail, where drops append.
type DropZone struct {
	ID      string `json:"id"`
	BlockID string `json:"blockId,omitempty"`
	Rect    Rect   `json:"rect"`
}

// Editor is the subset of the document store the coordinator drives.
type Editor interface {
	Block(id string) (domain.Block, bool)
	ParentOf(id string) (parentID string, ok bool)
	AddBlock(t domain.BlockType, position *int) (domain.Block, error)
	AddNestedBlock(containerID string, columnIndex int, t domain.BlockType, position *int) (domain.Block, error)
	MoveBlock(id string, newPosition int) (*domain.Template, error)
}

// PointerListeners attaches global pointer-move and pointer-up handlers for
// the duration of a drag. The returned detach func removes both.
type PointerListeners interface {
	Attach(onMove func(Point), onUp func(Point)) (detach func())
}

// Hover is the current drop candidate while dragging.
type Hover struct {
	ZoneID    string    `json:"zoneId"`
	BlockID   string    `json:"blockId,omitempty"`
	Placement Placement `json:"placement"`
	Column    int       `json:"column"`
}

// Result reports how a drag ended.
type Result struct {
	Cancelled bool          `json:"cancelled"`
	Action    string        `json:"action,omitempty"` // add | add_nested | move
	Position  int           `json:"position"`
	Block     *domain.Block `json:"block,omitempty"`
}

// Coordinator is the drag state machine {idle, dragging, resolving}.
// Listeners are attached on entering dragging and detached on every exit.
type Coordinator struct {
	mu        sync.Mutex
	editor    Editor
	listeners PointerListeners
	log       zerolog.Logger

	zones  map[string]DropZone
	order  []string // registration order, used for hit-testing priority
	phase  Phase
	source Source
	hover  *Hover
	detach func()
}

func NewCoordinator(editor Editor, listeners PointerListeners, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		editor:    editor,
		listeners: listeners,
		log:       log,
		zones:     make(map[string]DropZone),
		phase:     PhaseIdle,
	}
}

// ── Zone registry ──────────────────────────────────────────

// Register adds a drop zone or refreshes its geometry.
func (c *Coordinator) Register(z DropZone) error {
	if z.ID == "" {
		return &domain.ValidationError{Field: "zone.id", Message: "zone id is required"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.zones[z.ID]; !exists {
		c.order = append(c.order, z.ID)
	}
	c.zones[z.ID] = z
	return nil
}

// Unregister removes a zone. Removing the hovered zone clears the hover.
func (c *Coordinator) Unregister(zoneID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.zones[zoneID]; !ok {
		return
	}
	delete(c.zones, zoneID)
	for i, id := range c.order {
		if id == zoneID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	if c.hover != nil && c.hover.ZoneID == zoneID {
		c.hover = nil
	}
}

func (c *Coordinator) Zones() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.zones)
}

// ── Gesture ────────────────────────────────────────────────

// BeginDrag enters the dragging phase and attaches pointer listeners.
func (c *Coordinator) BeginDrag(src Source) error {
	if src.IsNew() {
		if _, err := domain.ParseBlockType(string(src.Type)); err != nil {
			return err
		}
	} else {
		parent, ok := c.editor.ParentOf(src.BlockID)
		if !ok {
			return domain.BlockNotFound(src.BlockID)
		}
		if parent != "" {
			return &domain.ValidationError{Field: "blockId", Message: "nested blocks cannot be dragged"}
		}
	}

	c.mu.Lock()
	if c.phase != PhaseIdle {
		c.mu.Unlock()
		return ErrDragInProgress
	}
	c.phase = PhaseDragging
	c.source = src
	c.hover = nil
	c.mu.Unlock()

	// Attach outside the lock: implementations may deliver events synchronously.
	detach := c.listeners.Attach(
		func(p Point) { c.Move(p) },
		func(p Point) { _, _ = c.Drop(p) },
	)

	c.mu.Lock()
	if c.phase == PhaseDragging && c.detach == nil {
		c.detach = detach
		detach = nil
	}
	c.mu.Unlock()
	if detach != nil {
		// The drag already ended while attaching.
		detach()
	}
	c.log.Debug().Str("type", string(src.Type)).Str("block", src.BlockID).Msg("drag started")
	return nil
}

// Move updates the hover candidate. It is a no-op outside a drag.
func (c *Coordinator) Move(p Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseDragging {
		return
	}
	c.hover = c.hitTestLocked(p)
}

// Hover returns the current drop candidate.
func (c *Coordinator) Hover() (Hover, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hover == nil {
		return Hover{}, false
	}
	return *c.hover, true
}

func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Drop releases the pointer at p. Outside every zone, or onto the dragged
// block itself, the drag is cancelled without touching the document.
func (c *Coordinator) Drop(p Point) (Result, error) {
	c.mu.Lock()
	if c.phase != PhaseDragging {
		c.mu.Unlock()
		return Result{}, ErrNotDragging
	}
	c.phase = PhaseResolving
	src := c.source
	hover := c.hitTestLocked(p)
	c.mu.Unlock()

	defer c.finish()

	if hover == nil {
		c.log.Debug().Msg("drop outside any zone, cancelled")
		return Result{Cancelled: true}, nil
	}
	return c.resolve(src, *hover)
}

// Cancel aborts the drag without mutating the document.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	active := c.phase != PhaseIdle
	c.mu.Unlock()
	if active {
		c.finish()
	}
}

// Close is the teardown hook: it cancels any drag so no listener outlives
// the component.
func (c *Coordinator) Close() {
	c.Cancel()
	c.mu.Lock()
	c.zones = make(map[string]DropZone)
	c.order = nil
	c.mu.Unlock()
}

// finish returns to idle and detaches the pointer listeners.
func (c *Coordinator) finish() {
	c.mu.Lock()
	detach := c.detach
	c.detach = nil
	c.phase = PhaseIdle
	c.source = Source{}
	c.hover = nil
	c.mu.Unlock()
	if detach != nil {
		detach()
	}
}

// hitTestLocked finds the innermost zone containing p: block zones win over
// the canvas tail, later registrations win over earlier ones.
func (c *Coordinator) hitTestLocked(p Point) *Hover {
	var canvas *DropZone
	for i := len(c.order) - 1; i >= 0; i-- {
		z := c.zones[c.order[i]]
		if !z.Rect.Contains(p) {
			continue
		}
		if z.BlockID == "" {
			if canvas == nil {
				zc := z
				canvas = &zc
			}
			continue
		}
		return c.hoverFor(z, p)
	}
	if canvas != nil {
		return &Hover{ZoneID: canvas.ID, Placement: PlaceAfter}
	}
	return nil
}

func (c *Coordinator) hoverFor(z DropZone, p Point) *Hover {
	h := &Hover{ZoneID: z.ID, BlockID: z.BlockID, Placement: PlacementFor(z.Rect, p)}
	if h.Placement != PlaceInside {
		return h
	}
	target, ok := c.editor.Block(z.BlockID)
	cols, isColumns := target.Columns()
	if !ok || !isColumns {
		// Inside only means something for containers.
		if _, fy := z.Rect.relative(p); fy < 0.5 {
			h.Placement = PlaceBefore
		} else {
			h.Placement = PlaceAfter
		}
		return h
	}
	h.Column = columnAt(cols, z.Rect, p)
	return h
}

// columnAt picks the column under the pointer using the column widths.
func columnAt(cols *domain.ColumnsContent, r Rect, p Point) int {
	fx, _ := r.relative(p)
	var total float64
	for _, col := range cols.Columns {
		total += col.WidthPercent
	}
	if total <= 0 || len(cols.Columns) == 0 {
		return 0
	}
	var acc float64
	for i, col := range cols.Columns {
		acc += col.WidthPercent / total
		if fx < acc {
			return i
		}
	}
	return len(cols.Columns) - 1
}

// ── Resolution ─────────────────────────────────────────────

func (c *Coordinator) resolve(src Source, h Hover) (Result, error) {
	if h.BlockID == "" {
		return c.resolveCanvas(src)
	}
	target, ok := c.editor.Block(h.BlockID)
	if !ok {
		return Result{Cancelled: true}, nil
	}
	if parent, _ := c.editor.ParentOf(target.ID); parent != "" {
		// Zones of nested blocks only reorder inside their column, which
		// drag and drop does not do.
		return Result{Cancelled: true}, nil
	}

	if src.IsNew() {
		if h.Placement == PlaceInside {
			b, err := c.editor.AddNestedBlock(target.ID, h.Column, src.Type, nil)
			if err != nil {
				return Result{}, fmt.Errorf("drop into columns: %w", err)
			}
			return Result{Action: "add_nested", Position: b.Position, Block: &b}, nil
		}
		pos := target.Position
		if h.Placement == PlaceAfter {
			pos++
		}
		b, err := c.editor.AddBlock(src.Type, &pos)
		if err != nil {
			return Result{}, fmt.Errorf("drop new block: %w", err)
		}
		return Result{Action: "add", Position: b.Position, Block: &b}, nil
	}

	if src.BlockID == target.ID || h.Placement == PlaceInside {
		// Moving existing blocks into containers is not supported.
		return Result{Cancelled: true}, nil
	}
	moving, ok := c.editor.Block(src.BlockID)
	if !ok {
		return Result{Cancelled: true}, nil
	}
	pos := moveTarget(moving.Position, target.Position, h.Placement)
	if _, err := c.editor.MoveBlock(src.BlockID, pos); err != nil {
		return Result{}, fmt.Errorf("drop move: %w", err)
	}
	moved, _ := c.editor.Block(src.BlockID)
	return Result{Action: "move", Position: moved.Position, Block: &moved}, nil
}

func (c *Coordinator) resolveCanvas(src Source) (Result, error) {
	if src.IsNew() {
		b, err := c.editor.AddBlock(src.Type, nil)
		if err != nil {
			return Result{}, fmt.Errorf("drop new block: %w", err)
		}
		return Result{Action: "add", Position: b.Position, Block: &b}, nil
	}
	// Past the last index; MoveBlock clamps to N-1.
	const end = int(^uint(0) >> 1)
	if _, err := c.editor.MoveBlock(src.BlockID, end); err != nil {
		return Result{}, fmt.Errorf("drop move: %w", err)
	}
	moved, _ := c.editor.Block(src.BlockID)
	return Result{Action: "move", Position: moved.Position, Block: &moved}, nil
}

// moveTarget converts "before/after the block at target" into the final
// index of a block currently at from, accounting for its own removal.
func moveTarget(from, target int, place Placement) int {
	pos := target
	if place == PlaceAfter {
		pos++
	}
	if from < pos {
		pos--
	}
	return pos
}
