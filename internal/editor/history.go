package editor

import "maileditor/internal/domain"

// DefaultHistoryLimit caps the number of snapshots kept for undo/redo.
const DefaultHistoryLimit = 50

// History is a linear, bounded stack of document snapshots.
// snapshots[index] is always the displayed document. Snapshots are deep
// copies and are never mutated after Record.
type History struct {
	snapshots []*domain.Template
	index     int
	limit     int
}

// NewHistory creates a history holding only initial.
func NewHistory(initial *domain.Template, limit int) *History {
	if limit <= 1 {
		limit = DefaultHistoryLimit
	}
	h := &History{limit: limit}
	h.Reset(initial)
	return h
}

// Reset drops every snapshot and starts over from doc.
func (h *History) Reset(doc *domain.Template) {
	h.snapshots = []*domain.Template{doc.Clone()}
	h.index = 0
}

// Record truncates any redo branch and appends doc. When the limit is
// exceeded the oldest snapshot is dropped.
func (h *History) Record(doc *domain.Template) {
	h.snapshots = append(h.snapshots[:h.index+1], doc.Clone())
	if over := len(h.snapshots) - h.limit; over > 0 {
		// Copy so the dropped snapshots can be collected.
		kept := make([]*domain.Template, h.limit)
		copy(kept, h.snapshots[over:])
		h.snapshots = kept
	}
	h.index = len(h.snapshots) - 1
}

// Current returns a copy of the displayed snapshot.
func (h *History) Current() *domain.Template {
	return h.snapshots[h.index].Clone()
}

// Undo steps back one snapshot. ok is false when there is nothing to undo.
func (h *History) Undo() (doc *domain.Template, ok bool) {
	if !h.CanUndo() {
		return nil, false
	}
	h.index--
	return h.Current(), true
}

// Redo steps forward one snapshot. ok is false when there is nothing to redo.
func (h *History) Redo() (doc *domain.Template, ok bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.index++
	return h.Current(), true
}

func (h *History) CanUndo() bool { return h.index > 0 }
func (h *History) CanRedo() bool { return h.index < len(h.snapshots)-1 }
func (h *History) Len() int      { return len(h.snapshots) }
func (h *History) Index() int    { return h.index }
func (h *History) Limit() int    { return h.limit }
