package editor

import (
	"fmt"
	"sort"

	"maileditor/internal/domain"
)

// Reconcile restores the dense-position invariant: blocks are stably sorted
// by their current position and renumbered 0..N-1. Nested column blocks are
// reconciled the same way within their column. The slice is modified in place
// and returned.
//
// Callers only need shift arithmetic that preserves relative order; ties
// keep slice order.
func Reconcile(blocks []domain.Block) []domain.Block {
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Position < blocks[j].Position
	})
	for i := range blocks {
		blocks[i].Position = i
		if cols, ok := blocks[i].Columns(); ok {
			for c := range cols.Columns {
				cols.Columns[c].NestedBlocks = Reconcile(cols.Columns[c].NestedBlocks)
			}
		}
	}
	return blocks
}

// CheckPositions verifies that blocks hold positions {0..N-1} in slice order
// and that ids are unique, nested blocks included. Columns may only appear at
// the top level.
func CheckPositions(blocks []domain.Block) *domain.InvariantViolation {
	seen := make(map[string]struct{}, len(blocks))
	return checkLevel(blocks, seen, "document", false)
}

func checkLevel(blocks []domain.Block, seen map[string]struct{}, scope string, nested bool) *domain.InvariantViolation {
	for i, b := range blocks {
		if b.Position != i {
			return &domain.InvariantViolation{
				Message: fmt.Sprintf("%s: block %s at index %d has position %d", scope, b.ID, i, b.Position),
			}
		}
		if _, dup := seen[b.ID]; dup {
			return &domain.InvariantViolation{Message: fmt.Sprintf("%s: duplicate block id %s", scope, b.ID)}
		}
		seen[b.ID] = struct{}{}
		if b.Content == nil || b.Content.BlockType() != b.Type {
			return &domain.InvariantViolation{Message: fmt.Sprintf("%s: block %s content does not match type %s", scope, b.ID, b.Type)}
		}
		if nested && b.Type.IsContainer() {
			return &domain.InvariantViolation{Message: fmt.Sprintf("%s: %s block %s cannot be nested", scope, b.Type, b.ID)}
		}
		if cols, ok := b.Columns(); ok {
			for _, col := range cols.Columns {
				if v := checkLevel(col.NestedBlocks, seen, "column "+col.ID, true); v != nil {
					return v
				}
			}
		}
	}
	return nil
}
