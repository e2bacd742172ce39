package editor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maileditor/internal/editor"
)

func named(name string) *editor.History {
	return editor.NewHistory(editor.NewTemplate(name, time.Unix(0, 0)), 3)
}

func TestHistory_RecordUndoRedo(t *testing.T) {
	h := named("v0")
	doc := h.Current()

	doc.Name = "v1"
	h.Record(doc)
	doc.Name = "v2"
	h.Record(doc)

	assert.Equal(t, 3, h.Len())
	got, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, "v1", got.Name)

	got, ok = h.Redo()
	require.True(t, ok)
	assert.Equal(t, "v2", got.Name)

	_, ok = h.Redo()
	assert.False(t, ok)
}

func TestHistory_RecordTruncatesRedoBranch(t *testing.T) {
	h := named("v0")
	doc := h.Current()
	doc.Name = "v1"
	h.Record(doc)
	h.Undo()

	doc.Name = "v1b"
	h.Record(doc)
	assert.False(t, h.CanRedo())
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, "v1b", h.Current().Name)
}

func TestHistory_DropsOldestPastLimit(t *testing.T) {
	h := named("v0")
	doc := h.Current()
	for _, n := range []string{"v1", "v2", "v3", "v4"} {
		doc.Name = n
		h.Record(doc)
	}
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 2, h.Index())

	h.Undo()
	got, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, "v2", got.Name)
	assert.False(t, h.CanUndo())
}

func TestHistory_SnapshotsAreIsolated(t *testing.T) {
	h := named("v0")
	doc := h.Current()
	doc.Name = "v1"
	h.Record(doc)
	doc.Name = "changed after record"

	assert.Equal(t, "v1", h.Current().Name)
	h.Current().Name = "changed through Current"
	assert.Equal(t, "v1", h.Current().Name)
}

func TestHistory_DefaultLimit(t *testing.T) {
	h := editor.NewHistory(editor.NewTemplate("x", time.Now()), 0)
	assert.Equal(t, editor.DefaultHistoryLimit, h.Limit())
}
