package domain

import (
	"context"
	"time"

	deep "github.com/brunoga/deep/v5"
)

// SchemaVersion is the template JSON schema version written by this module.
const SchemaVersion = 1

// GlobalStyles applies to the whole email body.
type GlobalStyles struct {
	FontFamily        string `json:"fontFamily"`
	FontSize          int    `json:"fontSize"`
	LineHeight        string `json:"lineHeight"`
	TextColor         string `json:"textColor"`
	BackgroundColor   string `json:"backgroundColor"`
	ContentBackground string `json:"contentBackground"`
	ContainerWidth    int    `json:"containerWidth"`
	ContainerPadding  int    `json:"containerPadding"`
}

// DefaultGlobalStyles are applied to freshly created templates.
func DefaultGlobalStyles() GlobalStyles {
	return GlobalStyles{
		FontFamily:        "Arial, Helvetica, sans-serif",
		FontSize:          16,
		LineHeight:        "1.5",
		TextColor:         "#333333",
		BackgroundColor:   "#f4f4f4",
		ContentBackground: "#ffffff",
		ContainerWidth:    600,
		ContainerPadding:  20,
	}
}

// Template is the editable email document. Block order is given by
// Block.Position, not by slice order.
type Template struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Subject      string       `json:"subject"`
	Preheader    string       `json:"preheader"`
	Blocks       []Block      `json:"blocks"`
	GlobalStyles GlobalStyles `json:"globalStyles"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	Version      int          `json:"version"`
}

// Clone returns a deep copy that shares no mutable state with t.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	return deep.Copy(t)
}

// TemplateSummary is a list row without the block payload.
type TemplateSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Subject    string    `json:"subject"`
	BlockCount int       `json:"blockCount"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Summarize builds the list row for t.
func (t *Template) Summarize() TemplateSummary {
	return TemplateSummary{
		ID:         t.ID,
		Name:       t.Name,
		Subject:    t.Subject,
		BlockCount: len(t.Blocks),
		UpdatedAt:  t.UpdatedAt,
	}
}

// PreviewMode is a UI-only flag. It never enters history.
type PreviewMode string

const (
	PreviewDesktop PreviewMode = "desktop"
	PreviewMobile  PreviewMode = "mobile"
)

func ParsePreviewMode(s string) (PreviewMode, error) {
	switch PreviewMode(s) {
	case PreviewDesktop, PreviewMobile:
		return PreviewMode(s), nil
	}
	return "", &ValidationError{Field: "mode", Message: "preview mode must be desktop or mobile"}
}

// Revision is a persisted save point of a template.
type Revision struct {
	ID           string    `json:"id"`
	TemplateID   string    `json:"templateId"`
	Label        string    `json:"label"`
	SnapshotJSON string    `json:"snapshotJson"`
	PatchJSON    string    `json:"patchJson"` // JSON patch from the previous revision
	ChangeCount  int       `json:"changeCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TemplateStore is the persistence collaborator for templates.
type TemplateStore interface {
	SaveTemplate(ctx context.Context, t *Template) error
	GetTemplate(ctx context.Context, id string) (*Template, error)
	ListTemplates(ctx context.Context) ([]TemplateSummary, error)
	DeleteTemplate(ctx context.Context, id string) error
}
