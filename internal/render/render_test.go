package render_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maileditor/internal/domain"
	"maileditor/internal/editor"
	"maileditor/internal/render"
)

func buildDoc(t *testing.T) (*domain.Template, *editor.Store) {
	t.Helper()
	s := editor.NewStore()
	for _, bt := range domain.BlockTypes() {
		_, err := s.AddBlock(bt, nil)
		require.NoError(t, err)
	}
	return s.Document(), s
}

func TestHTML_RendersEveryBlockType(t *testing.T) {
	doc, _ := buildDoc(t)
	out, err := render.New().HTML(doc, render.Options{})
	require.NoError(t, err)

	for _, b := range doc.Blocks {
		assert.Contains(t, out, `data-block-id="`+b.ID+`"`)
	}
	assert.Contains(t, out, "<h2")
	assert.Contains(t, out, "Click me")
	assert.Contains(t, out, "<p>Custom HTML</p>")
	assert.Contains(t, out, `width="600"`)
}

func TestHTML_BlocksInPositionOrder(t *testing.T) {
	s := editor.NewStore()
	a, err := s.AddBlock(domain.BlockTypeText, nil)
	require.NoError(t, err)
	b, err := s.AddBlock(domain.BlockTypeButton, intPtr(0))
	require.NoError(t, err)

	out, err := render.New().HTML(s.Document(), render.Options{})
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, b.ID), strings.Index(out, a.ID))
}

func TestHTML_MergeTags(t *testing.T) {
	s := editor.NewStore()
	b, err := s.AddBlock(domain.BlockTypeText, nil)
	require.NoError(t, err)
	_, err = s.UpdateBlock(b.ID, editor.BlockPatch{
		Content: json.RawMessage(`{"text":"Hi {{ contact.first_name }}!"}`),
	})
	require.NoError(t, err)
	subject := "News for {{ contact.first_name }}"
	_, err = s.UpdateMeta(editor.MetaPatch{Subject: &subject})
	require.NoError(t, err)

	out, err := render.New().HTML(s.Document(), render.Options{
		Data: map[string]any{"contact": map[string]any{"first_name": "Ada"}},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Hi Ada!")
	assert.Contains(t, out, "<title>News for Ada</title>")
}

func TestHTML_PlainTextIsEscaped(t *testing.T) {
	s := editor.NewStore()
	b, err := s.AddBlock(domain.BlockTypeText, nil)
	require.NoError(t, err)
	_, err = s.UpdateBlock(b.ID, editor.BlockPatch{Content: json.RawMessage(`{"text":"<script>x</script>"}`)})
	require.NoError(t, err)

	out, err := render.New().HTML(s.Document(), render.Options{})
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestHTML_MergedTextIsEscaped(t *testing.T) {
	s := editor.NewStore()
	text, err := s.AddBlock(domain.BlockTypeText, nil)
	require.NoError(t, err)
	_, err = s.UpdateBlock(text.ID, editor.BlockPatch{
		Content: json.RawMessage(`{"text":"<script>x</script> {{ name }} & {% if vip %}<b>VIP</b>{% endif %}"}`),
	})
	require.NoError(t, err)
	raw, err := s.AddBlock(domain.BlockTypeHTML, nil)
	require.NoError(t, err)
	_, err = s.UpdateBlock(raw.ID, editor.BlockPatch{Content: json.RawMessage(`{"html":"<em>{{ name }}</em>"}`)})
	require.NoError(t, err)

	out, err := render.New().HTML(s.Document(), render.Options{
		Data: map[string]any{"name": "<img src=x onerror=alert(1)>", "vip": true},
	})
	require.NoError(t, err)

	textOut := out[strings.Index(out, text.ID):strings.Index(out, raw.ID)]
	assert.NotContains(t, textOut, "<script>")
	assert.NotContains(t, textOut, "<img")
	assert.NotContains(t, textOut, "<b>")
	assert.Contains(t, textOut, "&lt;script&gt;x&lt;/script&gt; &lt;img src=x onerror=alert(1)&gt; &amp; &lt;b&gt;VIP&lt;/b&gt;")

	assert.Contains(t, out, "<em><img src=x onerror=alert(1)></em>", "html blocks stay raw")
}

func TestHTML_MergedLinkIsAttributeSafe(t *testing.T) {
	s := editor.NewStore()
	b, err := s.AddBlock(domain.BlockTypeFooter, nil)
	require.NoError(t, err)
	_, err = s.UpdateBlock(b.ID, editor.BlockPatch{
		Content: json.RawMessage(`{"unsubscribeLink":"https://example.com/u?a=1&id={{ id }}"}`),
	})
	require.NoError(t, err)

	out, err := render.New().HTML(s.Document(), render.Options{
		Data: map[string]any{"id": `"><script>`},
	})
	require.NoError(t, err)
	assert.Contains(t, out, `href="https://example.com/u?a=1&amp;id=`)
	assert.Contains(t, out, "&gt;&lt;script&gt;")
	assert.NotContains(t, out, `"><script>`)
}

func TestHTML_BadLiquidIsValidationError(t *testing.T) {
	s := editor.NewStore()
	b, err := s.AddBlock(domain.BlockTypeHTML, nil)
	require.NoError(t, err)
	_, err = s.UpdateBlock(b.ID, editor.BlockPatch{Content: json.RawMessage(`{"html":"{% if %}"}`)})
	require.NoError(t, err)

	_, err = render.New().HTML(s.Document(), render.Options{})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestHTML_HiddenBlocksAreSkipped(t *testing.T) {
	s := editor.NewStore()
	b, err := s.AddBlock(domain.BlockTypeSpacer, nil)
	require.NoError(t, err)
	hidden := true
	_, err = s.UpdateBlock(b.ID, editor.BlockPatch{Hidden: &hidden})
	require.NoError(t, err)

	out, err := render.New().HTML(s.Document(), render.Options{})
	require.NoError(t, err)
	assert.NotContains(t, out, b.ID)
}

func TestHTML_MobileStacksColumns(t *testing.T) {
	s := editor.NewStore()
	cols, err := s.AddBlock(domain.BlockTypeColumns, nil)
	require.NoError(t, err)
	nested, err := s.AddNestedBlock(cols.ID, 1, domain.BlockTypeText, nil)
	require.NoError(t, err)
	doc := s.Document()

	desktop, err := render.New().HTML(doc, render.Options{Mode: domain.PreviewDesktop})
	require.NoError(t, err)
	assert.Contains(t, desktop, `<td width="50%" valign="top">`)
	assert.Contains(t, desktop, nested.ID)

	mobile, err := render.New().HTML(doc, render.Options{Mode: domain.PreviewMobile})
	require.NoError(t, err)
	assert.Contains(t, mobile, `width="375"`)
	assert.Contains(t, mobile, `<tr><td width="100%" valign="top">`)
	assert.Contains(t, mobile, nested.ID)
}

func intPtr(v int) *int { return &v }
