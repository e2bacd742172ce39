package editor_test

import (
	"encoding/json"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maileditor/internal/domain"
	"maileditor/internal/editor"
)

// ─────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────

// fakeClock advances one second per call so UpdatedAt stamps differ.
func fakeClock() func() time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newStore(t *testing.T) *editor.Store {
	t.Helper()
	return editor.NewStore(editor.WithClock(fakeClock()))
}

func intPtr(v int) *int { return &v }

func add(t *testing.T, s *editor.Store, bt domain.BlockType, pos *int) domain.Block {
	t.Helper()
	b, err := s.AddBlock(bt, pos)
	require.NoError(t, err)
	return b
}

func ids(s *editor.Store) []string {
	var out []string
	for b := range s.OrderedBlocks() {
		out = append(out, b.ID)
	}
	return out
}

func requireDense(t *testing.T, s *editor.Store) {
	t.Helper()
	i := 0
	for b := range s.OrderedBlocks() {
		require.Equal(t, i, b.Position, "block %s", b.ID)
		i++
	}
	require.Nil(t, editor.CheckPositions(s.Document().Blocks))
}

// ─────────────────────────────────────────────────────────────
// AddBlock
// ─────────────────────────────────────────────────────────────

func TestAddBlock_EmptyDocument(t *testing.T) {
	s := newStore(t)
	b := add(t, s, domain.BlockTypeText, nil)

	doc := s.Document()
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, 0, doc.Blocks[0].Position)
	assert.Equal(t, b.ID, s.State().SelectedID)
	assert.True(t, s.CanUndo())
}

func TestAddBlock_InsertAtFrontShiftsOthers(t *testing.T) {
	s := newStore(t)
	a := add(t, s, domain.BlockTypeText, nil)
	b := add(t, s, domain.BlockTypeText, nil)
	c := add(t, s, domain.BlockTypeText, intPtr(0))

	assert.Equal(t, []string{c.ID, a.ID, b.ID}, ids(s))
	assert.Equal(t, 0, c.Position)
	got, _ := s.Block(b.ID)
	assert.Equal(t, 2, got.Position)
	assert.Equal(t, c.ID, s.State().SelectedID)
	requireDense(t, s)
}

func TestAddBlock_PositionIsClamped(t *testing.T) {
	s := newStore(t)
	a := add(t, s, domain.BlockTypeText, nil)
	b := add(t, s, domain.BlockTypeButton, intPtr(99))
	c := add(t, s, domain.BlockTypeDivider, intPtr(-5))

	assert.Equal(t, []string{c.ID, a.ID, b.ID}, ids(s))
	requireDense(t, s)
}

func TestAddBlock_UnknownTypeIsValidationError(t *testing.T) {
	s := newStore(t)
	_, err := s.AddBlock(domain.BlockType("carousel"), nil)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.False(t, s.CanUndo(), "rejected operations must not enter history")
}

// ─────────────────────────────────────────────────────────────
// UpdateBlock
// ─────────────────────────────────────────────────────────────

func TestUpdateBlock_MergesContentAndStyles(t *testing.T) {
	s := newStore(t)
	b := add(t, s, domain.BlockTypeText, nil)

	_, err := s.UpdateBlock(b.ID, editor.BlockPatch{
		Content: json.RawMessage(`{"text":"Hello","color":"#ff0000"}`),
		Styles:  json.RawMessage(`{"padding":{"top":30},"textAlign":"center"}`),
	})
	require.NoError(t, err)

	got, ok := s.Block(b.ID)
	require.True(t, ok)
	content := got.Content.(*domain.TextContent)
	assert.Equal(t, "Hello", content.Text)
	assert.Equal(t, "#ff0000", content.Color)
	assert.Equal(t, 16, content.FontSize, "fields absent from the patch are kept")
	assert.Equal(t, 30, got.Styles.Padding.Top)
	assert.Equal(t, 10, got.Styles.Padding.Left)
	assert.Equal(t, "center", got.Styles.TextAlign)
}

func TestUpdateBlock_UnknownIDIsNotFound(t *testing.T) {
	s := newStore(t)
	add(t, s, domain.BlockTypeText, nil)
	before := s.Document()
	histLen, _ := s.HistoryLen()

	_, err := s.UpdateBlock("missing", editor.BlockPatch{Content: json.RawMessage(`{"text":"x"}`)})
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, before, s.Document())
	afterLen, _ := s.HistoryLen()
	assert.Equal(t, histLen, afterLen)
}

func TestUpdateBlock_MalformedPatchIsRejected(t *testing.T) {
	s := newStore(t)
	b := add(t, s, domain.BlockTypeHeading, nil)
	before := s.Document()

	cases := map[string]editor.BlockPatch{
		"unknown field": {Content: json.RawMessage(`{"colour":"red"}`)},
		"wrong type":    {Content: json.RawMessage(`{"level":"two"}`)},
		"bad level":     {Content: json.RawMessage(`{"level":9}`)},
		"bad align":     {Styles: json.RawMessage(`{"textAlign":"diagonal"}`)},
		"empty":         {},
	}
	for name, patch := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.UpdateBlock(b.ID, patch)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			assert.Equal(t, before, s.Document())
		})
	}
}

func TestUpdateBlock_ColumnsAcceptOnlyWidths(t *testing.T) {
	s := newStore(t)
	b := add(t, s, domain.BlockTypeColumns, nil)

	_, err := s.UpdateBlock(b.ID, editor.BlockPatch{
		Content: json.RawMessage(`{"columns":[{"widthPercent":30},{"widthPercent":70}]}`),
	})
	require.NoError(t, err)
	got, _ := s.Block(b.ID)
	cols, _ := got.Columns()
	assert.Equal(t, 30.0, cols.Columns[0].WidthPercent)
	assert.Equal(t, 70.0, cols.Columns[1].WidthPercent)

	_, err = s.UpdateBlock(b.ID, editor.BlockPatch{
		Content: json.RawMessage(`{"columns":[{"nestedBlocks":[]},{}]}`),
	})
	assert.True(t, domain.IsValidation(err))

	_, err = s.UpdateBlock(b.ID, editor.BlockPatch{
		Content: json.RawMessage(`{"columns":[{"widthPercent":100}]}`),
	})
	assert.True(t, domain.IsValidation(err))
}

func TestUpdateBlock_Flags(t *testing.T) {
	s := newStore(t)
	b := add(t, s, domain.BlockTypeImage, nil)
	yes := true
	_, err := s.UpdateBlock(b.ID, editor.BlockPatch{Locked: &yes, Hidden: &yes})
	require.NoError(t, err)
	got, _ := s.Block(b.ID)
	assert.True(t, got.Locked)
	assert.True(t, got.Hidden)
}

// ─────────────────────────────────────────────────────────────
// DeleteBlock
// ─────────────────────────────────────────────────────────────

func TestDeleteBlock_RenumbersAndClearsSelection(t *testing.T) {
	s := newStore(t)
	a := add(t, s, domain.BlockTypeText, nil)
	b := add(t, s, domain.BlockTypeText, nil)
	c := add(t, s, domain.BlockTypeText, nil)
	require.NoError(t, s.StartEditing(b.ID))

	_, err := s.DeleteBlock(b.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{a.ID, c.ID}, ids(s))
	got, _ := s.Block(c.ID)
	assert.Equal(t, 1, got.Position)
	st := s.State()
	assert.Empty(t, st.SelectedID)
	assert.Empty(t, st.EditingID)
	requireDense(t, s)
}

func TestDeleteBlock_OtherBlockKeepsCursor(t *testing.T) {
	s := newStore(t)
	a := add(t, s, domain.BlockTypeText, nil)
	b := add(t, s, domain.BlockTypeText, nil)
	require.NoError(t, s.StartEditing(a.ID))

	_, err := s.DeleteBlock(b.ID)
	require.NoError(t, err)

	st := s.State()
	assert.Equal(t, a.ID, st.SelectedID)
	assert.Equal(t, a.ID, st.EditingID)
}

func TestDeleteBlock_UnknownIDIsNotFound(t *testing.T) {
	s := newStore(t)
	_, err := s.DeleteBlock("nope")
	assert.True(t, domain.IsNotFound(err))
}

// ─────────────────────────────────────────────────────────────
// DuplicateBlock
// ─────────────────────────────────────────────────────────────

func TestDuplicateBlock_InsertsAfterSource(t *testing.T) {
	s := newStore(t)
	a := add(t, s, domain.BlockTypeButton, nil)
	b := add(t, s, domain.BlockTypeText, nil)
	_, err := s.UpdateBlock(a.ID, editor.BlockPatch{Content: json.RawMessage(`{"text":"Buy"}`)})
	require.NoError(t, err)

	dup, err := s.DuplicateBlock(a.ID)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, dup.ID)
	assert.Equal(t, []string{a.ID, dup.ID, b.ID}, ids(s))
	assert.Equal(t, 1, dup.Position)
	assert.Equal(t, "Buy", dup.Content.(*domain.ButtonContent).Text)
	assert.Equal(t, dup.ID, s.State().SelectedID)
	requireDense(t, s)
}

func TestDuplicateBlock_ShiftsOnlyLaterBlocks(t *testing.T) {
	s := newStore(t)
	var blocks []domain.Block
	for i := 0; i < 5; i++ {
		blocks = append(blocks, add(t, s, domain.BlockTypeText, nil))
	}
	_, err := s.DuplicateBlock(blocks[2].ID)
	require.NoError(t, err)

	for i, b := range blocks {
		got, _ := s.Block(b.ID)
		want := i
		if i > 2 {
			want = i + 1
		}
		assert.Equal(t, want, got.Position, "block %d", i)
	}
}

func TestDuplicateBlock_ColumnsGetFreshNestedIDs(t *testing.T) {
	s := newStore(t)
	cols := add(t, s, domain.BlockTypeColumns, nil)
	nested, err := s.AddNestedBlock(cols.ID, 1, domain.BlockTypeText, nil)
	require.NoError(t, err)

	dup, err := s.DuplicateBlock(cols.ID)
	require.NoError(t, err)

	dupCols, _ := dup.Columns()
	origCols, _ := cols.Columns()
	require.Len(t, dupCols.Columns[1].NestedBlocks, 1)
	assert.NotEqual(t, nested.ID, dupCols.Columns[1].NestedBlocks[0].ID)
	assert.NotEqual(t, origCols.Columns[0].ID, dupCols.Columns[0].ID)
	assert.Nil(t, editor.CheckPositions(s.Document().Blocks))
}

// ─────────────────────────────────────────────────────────────
// MoveBlock
// ─────────────────────────────────────────────────────────────

func TestMoveBlock_ReordersDensely(t *testing.T) {
	s := newStore(t)
	a := add(t, s, domain.BlockTypeText, nil)
	b := add(t, s, domain.BlockTypeText, nil)
	c := add(t, s, domain.BlockTypeText, nil)

	_, err := s.MoveBlock(a.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, c.ID, a.ID}, ids(s))

	_, err = s.MoveBlock(a.ID, -10)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, ids(s))

	_, err = s.MoveBlock(b.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, c.ID, b.ID}, ids(s))
	requireDense(t, s)
}

func TestMoveBlock_SamePositionRecordsNothing(t *testing.T) {
	s := newStore(t)
	a := add(t, s, domain.BlockTypeText, nil)
	add(t, s, domain.BlockTypeText, nil)
	before, _ := s.HistoryLen()

	_, err := s.MoveBlock(a.ID, 0)
	require.NoError(t, err)
	after, _ := s.HistoryLen()
	assert.Equal(t, before, after)
}

func TestMoveBlock_UnknownIDIsNotFound(t *testing.T) {
	s := newStore(t)
	_, err := s.MoveBlock("ghost", 0)
	assert.True(t, domain.IsNotFound(err))
}

// ─────────────────────────────────────────────────────────────
// Nested blocks
// ─────────────────────────────────────────────────────────────

func TestAddNestedBlock(t *testing.T) {
	s := newStore(t)
	cols := add(t, s, domain.BlockTypeColumns, nil)

	first, err := s.AddNestedBlock(cols.ID, 0, domain.BlockTypeText, nil)
	require.NoError(t, err)
	second, err := s.AddNestedBlock(cols.ID, 0, domain.BlockTypeButton, intPtr(0))
	require.NoError(t, err)

	got, _ := s.Block(cols.ID)
	c, _ := got.Columns()
	nested := c.Columns[0].NestedBlocks
	require.Len(t, nested, 2)
	assert.Equal(t, second.ID, nested[0].ID)
	assert.Equal(t, first.ID, nested[1].ID)
	assert.Equal(t, 1, nested[1].Position)

	parent, ok := s.ParentOf(first.ID)
	assert.True(t, ok)
	assert.Equal(t, cols.ID, parent)

	_, err = s.DeleteBlock(second.ID)
	require.NoError(t, err)
	got, _ = s.Block(first.ID)
	assert.Equal(t, 0, got.Position)
}

func TestAddNestedBlock_Rejections(t *testing.T) {
	s := newStore(t)
	text := add(t, s, domain.BlockTypeText, nil)
	cols := add(t, s, domain.BlockTypeColumns, nil)

	_, err := s.AddNestedBlock(cols.ID, 0, domain.BlockTypeColumns, nil)
	assert.True(t, domain.IsValidation(err), "one nesting level only")

	_, err = s.AddNestedBlock(text.ID, 0, domain.BlockTypeText, nil)
	assert.True(t, domain.IsValidation(err))

	_, err = s.AddNestedBlock(cols.ID, 5, domain.BlockTypeText, nil)
	assert.True(t, domain.IsValidation(err))

	_, err = s.AddNestedBlock("missing", 0, domain.BlockTypeText, nil)
	assert.True(t, domain.IsNotFound(err))
}

func TestDeleteContainerClearsNestedSelection(t *testing.T) {
	s := newStore(t)
	cols := add(t, s, domain.BlockTypeColumns, nil)
	nested, err := s.AddNestedBlock(cols.ID, 0, domain.BlockTypeText, nil)
	require.NoError(t, err)
	require.NoError(t, s.StartEditing(nested.ID))

	_, err = s.DeleteBlock(cols.ID)
	require.NoError(t, err)
	assert.Empty(t, s.State().SelectedID)
	assert.Empty(t, s.State().EditingID)
}

// ─────────────────────────────────────────────────────────────
// Cursor
// ─────────────────────────────────────────────────────────────

func TestCursorRules(t *testing.T) {
	s := newStore(t)
	a := add(t, s, domain.BlockTypeText, nil)
	b := add(t, s, domain.BlockTypeText, nil)
	histLen, _ := s.HistoryLen()

	require.NoError(t, s.StartEditing(a.ID))
	st := s.State()
	assert.Equal(t, a.ID, st.SelectedID)
	assert.Equal(t, a.ID, st.EditingID)

	require.NoError(t, s.SelectBlock(b.ID))
	st = s.State()
	assert.Equal(t, b.ID, st.SelectedID)
	assert.Empty(t, st.EditingID, "selecting leaves edit mode")

	require.NoError(t, s.StartEditing(b.ID))
	s.StopEditing()
	st = s.State()
	assert.Equal(t, b.ID, st.SelectedID, "stop editing keeps selection")
	assert.Empty(t, st.EditingID)

	s.ClearSelection()
	_, ok := s.SelectedBlock()
	assert.False(t, ok)

	assert.True(t, domain.IsNotFound(s.SelectBlock("nope")))
	assert.True(t, domain.IsNotFound(s.StartEditing("nope")))

	after, _ := s.HistoryLen()
	assert.Equal(t, histLen, after, "cursor changes never enter history")
}

func TestSelectedBlock(t *testing.T) {
	s := newStore(t)
	b := add(t, s, domain.BlockTypeSpacer, nil)
	got, ok := s.SelectedBlock()
	require.True(t, ok)
	assert.Equal(t, b.ID, got.ID)
}

// ─────────────────────────────────────────────────────────────
// Global styles, meta, preview
// ─────────────────────────────────────────────────────────────

func TestUpdateGlobalStyles(t *testing.T) {
	s := newStore(t)
	_, err := s.UpdateGlobalStyles(json.RawMessage(`{"fontFamily":"Georgia","containerWidth":640}`))
	require.NoError(t, err)
	doc := s.Document()
	assert.Equal(t, "Georgia", doc.GlobalStyles.FontFamily)
	assert.Equal(t, 640, doc.GlobalStyles.ContainerWidth)
	assert.Equal(t, 16, doc.GlobalStyles.FontSize)
	assert.True(t, s.CanUndo())

	_, err = s.UpdateGlobalStyles(json.RawMessage(`{"containerWidth":0}`))
	assert.True(t, domain.IsValidation(err))
	_, err = s.UpdateGlobalStyles(json.RawMessage(`{"bogus":1}`))
	assert.True(t, domain.IsValidation(err))
}

func TestUpdateMeta(t *testing.T) {
	s := newStore(t)
	subject := "Spring sale"
	_, err := s.UpdateMeta(editor.MetaPatch{Subject: &subject})
	require.NoError(t, err)
	assert.Equal(t, "Spring sale", s.Document().Subject)

	empty := ""
	_, err = s.UpdateMeta(editor.MetaPatch{Name: &empty})
	assert.True(t, domain.IsValidation(err))
}

func TestSetPreviewMode_NoHistory(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SetPreviewMode(domain.PreviewMobile))
	assert.Equal(t, domain.PreviewMobile, s.PreviewMode())
	assert.False(t, s.CanUndo())
	assert.True(t, domain.IsValidation(s.SetPreviewMode("watch")))
}

func TestMutationsStampUpdatedAt(t *testing.T) {
	s := newStore(t)
	before := s.Document().UpdatedAt
	add(t, s, domain.BlockTypeText, nil)
	assert.True(t, s.Document().UpdatedAt.After(before))
}

// ─────────────────────────────────────────────────────────────
// Undo / redo
// ─────────────────────────────────────────────────────────────

func TestUndoRedo_RoundTrip(t *testing.T) {
	s := newStore(t)
	add(t, s, domain.BlockTypeText, nil)
	before := s.Document()

	b := add(t, s, domain.BlockTypeImage, intPtr(0))
	after := s.Document()

	undone, ok := s.Undo()
	require.True(t, ok)
	assert.Equal(t, before, undone)
	assert.Equal(t, before, s.Document())
	assert.Empty(t, s.State().SelectedID, "undo clears the cursor")

	redone, ok := s.Redo()
	require.True(t, ok)
	assert.Equal(t, after, redone)
	_, found := s.Block(b.ID)
	assert.True(t, found)
}

type undoFixture struct {
	text, image, cols, nested domain.Block
}

func seedUndoFixture(t *testing.T, s *editor.Store) undoFixture {
	t.Helper()
	fx := undoFixture{
		text:  add(t, s, domain.BlockTypeText, nil),
		image: add(t, s, domain.BlockTypeImage, nil),
		cols:  add(t, s, domain.BlockTypeColumns, nil),
	}
	nested, err := s.AddNestedBlock(fx.cols.ID, 1, domain.BlockTypeButton, nil)
	require.NoError(t, err)
	fx.nested = nested
	return fx
}

func TestUndoRedo_EveryMutation(t *testing.T) {
	hidden := true
	subject := "Autumn"

	tests := []struct {
		name   string
		mutate func(s *editor.Store, fx undoFixture) error
	}{
		{"add block", func(s *editor.Store, fx undoFixture) error {
			_, err := s.AddBlock(domain.BlockTypeDivider, intPtr(1))
			return err
		}},
		{"add nested block", func(s *editor.Store, fx undoFixture) error {
			_, err := s.AddNestedBlock(fx.cols.ID, 1, domain.BlockTypeText, intPtr(0))
			return err
		}},
		{"update block", func(s *editor.Store, fx undoFixture) error {
			_, err := s.UpdateBlock(fx.text.ID, editor.BlockPatch{
				Content: json.RawMessage(`{"text":"Changed"}`),
				Hidden:  &hidden,
			})
			return err
		}},
		{"update nested block", func(s *editor.Store, fx undoFixture) error {
			_, err := s.UpdateBlock(fx.nested.ID, editor.BlockPatch{Styles: json.RawMessage(`{"padding":{"top":4}}`)})
			return err
		}},
		{"update column widths", func(s *editor.Store, fx undoFixture) error {
			_, err := s.UpdateBlock(fx.cols.ID, editor.BlockPatch{
				Content: json.RawMessage(`{"columns":[{"widthPercent":30},{"widthPercent":70}]}`),
			})
			return err
		}},
		{"delete block", func(s *editor.Store, fx undoFixture) error {
			_, err := s.DeleteBlock(fx.image.ID)
			return err
		}},
		{"delete nested block", func(s *editor.Store, fx undoFixture) error {
			_, err := s.DeleteBlock(fx.nested.ID)
			return err
		}},
		{"delete container", func(s *editor.Store, fx undoFixture) error {
			_, err := s.DeleteBlock(fx.cols.ID)
			return err
		}},
		{"duplicate block", func(s *editor.Store, fx undoFixture) error {
			_, err := s.DuplicateBlock(fx.text.ID)
			return err
		}},
		{"duplicate container", func(s *editor.Store, fx undoFixture) error {
			_, err := s.DuplicateBlock(fx.cols.ID)
			return err
		}},
		{"move block", func(s *editor.Store, fx undoFixture) error {
			_, err := s.MoveBlock(fx.cols.ID, 0)
			return err
		}},
		{"update global styles", func(s *editor.Store, fx undoFixture) error {
			_, err := s.UpdateGlobalStyles(json.RawMessage(`{"fontFamily":"Georgia"}`))
			return err
		}},
		{"update meta", func(s *editor.Store, fx undoFixture) error {
			_, err := s.UpdateMeta(editor.MetaPatch{Subject: &subject})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			fx := seedUndoFixture(t, s)
			before := s.Document()
			_, beforeIndex := s.HistoryLen()

			require.NoError(t, tt.mutate(s, fx))
			after := s.Document()
			require.NotEqual(t, before, after)
			_, index := s.HistoryLen()
			require.Equal(t, beforeIndex+1, index, "one history entry per mutation")

			undone, ok := s.Undo()
			require.True(t, ok)
			assert.Equal(t, before, undone)
			assert.Equal(t, before, s.Document())
			requireDense(t, s)

			redone, ok := s.Redo()
			require.True(t, ok)
			assert.Equal(t, after, redone)
			assert.Equal(t, after, s.Document())
			requireDense(t, s)
		})
	}
}

// blockIDs splits the document's ids into top-level, nested and columns ids.
func blockIDs(doc *domain.Template) (top, nested, containers []string) {
	for _, b := range doc.Blocks {
		top = append(top, b.ID)
		if cols, ok := b.Columns(); ok {
			containers = append(containers, b.ID)
			for _, c := range cols.Columns {
				for _, n := range c.NestedBlocks {
					nested = append(nested, n.ID)
				}
			}
		}
	}
	return top, nested, containers
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	r := rand.New(rand.NewSource(20261015))
	s := newStore(t)
	types := domain.BlockTypes()

	pick := func(list []string) string {
		if len(list) == 0 || r.Intn(20) == 0 {
			return "missing"
		}
		return list[r.Intn(len(list))]
	}

	for step := 0; step < 500; step++ {
		top, nested, containers := blockIDs(s.Document())
		every := append(append([]string{}, top...), nested...)
		hidden := r.Intn(2) == 0

		var err error
		switch r.Intn(12) {
		case 0, 1:
			_, err = s.AddBlock(types[r.Intn(len(types))], intPtr(r.Intn(len(top)+2)-1))
		case 2:
			_, err = s.AddNestedBlock(pick(containers), r.Intn(3), types[r.Intn(len(types))], nil)
		case 3:
			_, err = s.UpdateBlock(pick(every), editor.BlockPatch{Hidden: &hidden})
		case 4:
			_, err = s.DeleteBlock(pick(every))
		case 5:
			_, err = s.DuplicateBlock(pick(every))
		case 6:
			_, err = s.MoveBlock(pick(every), r.Intn(len(top)+2)-1)
		case 7:
			s.Undo()
		case 8:
			s.Redo()
		case 9:
			err = s.SelectBlock(pick(every))
		case 10:
			err = s.StartEditing(pick(every))
		default:
			s.StopEditing()
		}
		if err != nil {
			require.True(t, domain.IsValidation(err) || domain.IsNotFound(err), "step %d: %v", step, err)
		}

		requireDense(t, s)
		st := s.State()
		require.Nil(t, editor.CheckPositions(st.Document.Blocks), "step %d", step)
		if st.EditingID != "" {
			require.Equal(t, st.EditingID, st.SelectedID, "step %d: editing implies selected", step)
		}
		if st.SelectedID != "" {
			_, ok := s.Block(st.SelectedID)
			require.True(t, ok, "step %d: selection points at a live block", step)
		}
	}
}

func TestUndo_ThreeAddsTwoUndos(t *testing.T) {
	s := newStore(t)
	first := add(t, s, domain.BlockTypeText, nil)
	afterFirst := s.Document()
	add(t, s, domain.BlockTypeText, nil)
	add(t, s, domain.BlockTypeText, nil)

	_, ok := s.Undo()
	require.True(t, ok)
	_, ok = s.Undo()
	require.True(t, ok)

	doc := s.Document()
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, first.ID, doc.Blocks[0].ID)
	assert.Equal(t, afterFirst, doc)
}

func TestNewMutationDiscardsRedo(t *testing.T) {
	s := newStore(t)
	add(t, s, domain.BlockTypeText, nil)
	add(t, s, domain.BlockTypeText, nil)
	_, ok := s.Undo()
	require.True(t, ok)
	require.True(t, s.CanRedo())

	add(t, s, domain.BlockTypeDivider, nil)
	assert.False(t, s.CanRedo())
	_, ok = s.Redo()
	assert.False(t, ok)
}

func TestUndoAtStartIsNoop(t *testing.T) {
	s := newStore(t)
	_, ok := s.Undo()
	assert.False(t, ok)
	_, ok = s.Redo()
	assert.False(t, ok)
}

func TestHistoryLimitOnStore(t *testing.T) {
	s := editor.NewStore(editor.WithHistoryLimit(5), editor.WithClock(fakeClock()))
	for i := 0; i < 10; i++ {
		add(t, s, domain.BlockTypeText, nil)
	}
	length, index := s.HistoryLen()
	assert.Equal(t, 5, length)
	assert.Equal(t, 4, index)

	undos := 0
	for {
		if _, ok := s.Undo(); !ok {
			break
		}
		undos++
	}
	assert.Equal(t, 4, undos)
	assert.Len(t, s.Document().Blocks, 6)
}

// ─────────────────────────────────────────────────────────────
// Load / reset / subscribe
// ─────────────────────────────────────────────────────────────

func TestLoadDocument_NormalizesAndResetsHistory(t *testing.T) {
	s := newStore(t)
	add(t, s, domain.BlockTypeText, nil)

	a, _ := editor.NewBlock(domain.BlockTypeText)
	b, _ := editor.NewBlock(domain.BlockTypeButton)
	a.Position, b.Position = 7, 3
	doc := editor.NewTemplate("Loaded", time.Now())
	doc.Blocks = []domain.Block{a, b}

	require.NoError(t, s.LoadDocument(doc))
	assert.Equal(t, []string{b.ID, a.ID}, ids(s))
	assert.False(t, s.CanUndo())
	assert.False(t, s.CanRedo())
	assert.Empty(t, s.State().SelectedID)
	length, index := s.HistoryLen()
	assert.Equal(t, 1, length)
	assert.Equal(t, 0, index)
}

func TestLoadDocument_RejectsDuplicateIDs(t *testing.T) {
	s := newStore(t)
	a, _ := editor.NewBlock(domain.BlockTypeText)
	b := a.Clone()
	doc := editor.NewTemplate("Broken", time.Now())
	doc.Blocks = []domain.Block{a, b}

	err := s.LoadDocument(doc)
	assert.True(t, domain.IsValidation(err))
	assert.True(t, domain.IsValidation(s.LoadDocument(nil)))
}

func TestLoadDocument_DoesNotAliasInput(t *testing.T) {
	s := newStore(t)
	a, _ := editor.NewBlock(domain.BlockTypeText)
	doc := editor.NewTemplate("Mine", time.Now())
	doc.Blocks = []domain.Block{a}
	require.NoError(t, s.LoadDocument(doc))

	doc.Blocks[0].Content.(*domain.TextContent).Text = "mutated outside"
	got, _ := s.Block(a.ID)
	assert.NotEqual(t, "mutated outside", got.Content.(*domain.TextContent).Text)
}

func TestLoadDocument_RejectsNestedContainers(t *testing.T) {
	outer, _ := editor.NewBlock(domain.BlockTypeColumns)
	inner, _ := editor.NewBlock(domain.BlockTypeColumns)
	c, _ := outer.Columns()
	c.Columns[0].NestedBlocks = []domain.Block{inner}
	doc := editor.NewTemplate("Too deep", time.Now())
	doc.Blocks = []domain.Block{outer}

	s := newStore(t)
	before := s.Document()
	err := s.LoadDocument(doc)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, before, s.Document())
}

// A listener may replace the document while an insert is returning; the
// insert still reports the block it created.
func TestInsertsSurviveReloadFromListener(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, s *editor.Store) string
		run     func(s *editor.Store, id string) (domain.Block, error)
		want    domain.BlockType
	}{
		{
			name:    "add block",
			prepare: func(t *testing.T, s *editor.Store) string { return "" },
			run: func(s *editor.Store, _ string) (domain.Block, error) {
				return s.AddBlock(domain.BlockTypeText, nil)
			},
			want: domain.BlockTypeText,
		},
		{
			name: "add nested block",
			prepare: func(t *testing.T, s *editor.Store) string {
				return add(t, s, domain.BlockTypeColumns, nil).ID
			},
			run: func(s *editor.Store, id string) (domain.Block, error) {
				return s.AddNestedBlock(id, 0, domain.BlockTypeButton, nil)
			},
			want: domain.BlockTypeButton,
		},
		{
			name: "duplicate block",
			prepare: func(t *testing.T, s *editor.Store) string {
				return add(t, s, domain.BlockTypeImage, nil).ID
			},
			run: func(s *editor.Store, id string) (domain.Block, error) {
				return s.DuplicateBlock(id)
			},
			want: domain.BlockTypeImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			id := tt.prepare(t, s)
			other := editor.NewTemplate("Other", time.Now())

			var once sync.Once
			var loadErr error
			s.Subscribe(func(editor.State) {
				once.Do(func() { loadErr = s.LoadDocument(other) })
			})

			var b domain.Block
			var err error
			require.NotPanics(t, func() { b, err = tt.run(s, id) })
			require.NoError(t, err)
			require.NoError(t, loadErr)

			assert.Equal(t, tt.want, b.Type)
			assert.NotEmpty(t, b.ID)
			assert.NotEqual(t, id, b.ID)
			assert.Equal(t, other.ID, s.Document().ID, "the listener's reload wins")
			_, found := s.Block(b.ID)
			assert.False(t, found)
		})
	}
}

func TestReset(t *testing.T) {
	s := newStore(t)
	old := s.Document().ID
	add(t, s, domain.BlockTypeText, nil)
	doc := s.Reset("Fresh")
	assert.NotEqual(t, old, doc.ID)
	assert.Empty(t, s.Document().Blocks)
	assert.False(t, s.CanUndo())
}

func TestSubscribe(t *testing.T) {
	s := newStore(t)
	var states []editor.State
	unsubscribe := s.Subscribe(func(st editor.State) { states = append(states, st) })

	b := add(t, s, domain.BlockTypeText, nil)
	require.NoError(t, s.SelectBlock(""))
	require.Len(t, states, 2)
	assert.Equal(t, b.ID, states[0].SelectedID)
	assert.True(t, states[0].CanUndo)
	assert.Len(t, states[0].Document.Blocks, 1)
	assert.Empty(t, states[1].SelectedID)

	unsubscribe()
	unsubscribe()
	add(t, s, domain.BlockTypeText, nil)
	assert.Len(t, states, 2)
}

func TestOrderedBlocksIsRestartable(t *testing.T) {
	s := newStore(t)
	add(t, s, domain.BlockTypeText, nil)
	add(t, s, domain.BlockTypeText, nil)
	seq := s.OrderedBlocks()

	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	assert.Equal(t, 2, count())
	assert.Equal(t, 2, count())

	add(t, s, domain.BlockTypeText, nil)
	assert.Equal(t, 3, count(), "each range reads the current document")

	for b := range seq {
		assert.Equal(t, 0, b.Position)
		break
	}
}

func TestRevisionTracksDocumentChanges(t *testing.T) {
	s := newStore(t)
	r0 := s.Revision()
	add(t, s, domain.BlockTypeText, nil)
	r1 := s.Revision()
	assert.Greater(t, r1, r0)

	s.ClearSelection()
	assert.Equal(t, r1, s.Revision(), "cursor changes are not document changes")

	s.Undo()
	assert.Greater(t, s.Revision(), r1)
}
