package editor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"maileditor/internal/domain"
)

// BlockPatch is a partial update of a block. Content and Styles are JSON
// objects merged field-by-field onto the current values; fields not present
// keep their value. Unknown fields are rejected.
type BlockPatch struct {
	Content json.RawMessage `json:"content,omitempty"`
	Styles  json.RawMessage `json:"styles,omitempty"`
	Locked  *bool           `json:"locked,omitempty"`
	Hidden  *bool           `json:"hidden,omitempty"`
}

func (p BlockPatch) empty() bool {
	return len(p.Content) == 0 && len(p.Styles) == 0 && p.Locked == nil && p.Hidden == nil
}

// MetaPatch updates template metadata. Nil fields are left alone.
type MetaPatch struct {
	Name      *string `json:"name,omitempty"`
	Subject   *string `json:"subject,omitempty"`
	Preheader *string `json:"preheader,omitempty"`
}

// columnsPatch is the only content patch accepted by columns blocks: widths
// by column index. Nested blocks change through block operations.
type columnsPatch struct {
	Columns []struct {
		WidthPercent *float64 `json:"widthPercent"`
	} `json:"columns"`
}

// mergeJSON decodes raw onto target, rejecting unknown fields and trailing data.
func mergeJSON(field string, raw json.RawMessage, target any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return &domain.ValidationError{Field: field, Message: err.Error()}
	}
	if dec.More() {
		return &domain.ValidationError{Field: field, Message: "unexpected data after patch object"}
	}
	return nil
}

func applyBlockPatch(b *domain.Block, p BlockPatch) error {
	if len(p.Content) > 0 {
		if cols, ok := b.Columns(); ok {
			if err := applyColumnsPatch(cols, p.Content); err != nil {
				return err
			}
		} else {
			if err := mergeJSON("content", p.Content, b.Content); err != nil {
				return err
			}
		}
		if err := validateContent(b.Content); err != nil {
			return err
		}
	}
	if len(p.Styles) > 0 {
		if err := mergeJSON("styles", p.Styles, &b.Styles); err != nil {
			return err
		}
		if err := validateStyles(b.Styles); err != nil {
			return err
		}
	}
	if p.Locked != nil {
		b.Locked = *p.Locked
	}
	if p.Hidden != nil {
		b.Hidden = *p.Hidden
	}
	return nil
}

func applyColumnsPatch(cols *domain.ColumnsContent, raw json.RawMessage) error {
	var patch columnsPatch
	if err := mergeJSON("content", raw, &patch); err != nil {
		return err
	}
	if len(patch.Columns) != len(cols.Columns) {
		return &domain.ValidationError{
			Field:   "content.columns",
			Message: fmt.Sprintf("expected %d columns, got %d", len(cols.Columns), len(patch.Columns)),
		}
	}
	for i, c := range patch.Columns {
		if c.WidthPercent != nil {
			cols.Columns[i].WidthPercent = *c.WidthPercent
		}
	}
	return nil
}

func validateContent(c domain.Content) error {
	switch v := c.(type) {
	case *domain.HeadingContent:
		if v.Level < 1 || v.Level > 6 {
			return &domain.ValidationError{Field: "content.level", Message: "heading level must be between 1 and 6"}
		}
	case *domain.TextContent:
		if v.FontSize <= 0 {
			return &domain.ValidationError{Field: "content.fontSize", Message: "must be positive"}
		}
	case *domain.ButtonContent:
		if v.LinkTarget != "" && v.LinkTarget != "_blank" && v.LinkTarget != "_self" {
			return &domain.ValidationError{Field: "content.linkTarget", Message: "must be _blank or _self"}
		}
	case *domain.DividerContent:
		if v.Thickness < 0 {
			return &domain.ValidationError{Field: "content.thickness", Message: "must not be negative"}
		}
	case *domain.SpacerContent:
		if v.Height < 0 {
			return &domain.ValidationError{Field: "content.height", Message: "must not be negative"}
		}
	case *domain.ColumnsContent:
		for i, col := range v.Columns {
			if col.WidthPercent <= 0 || col.WidthPercent > 100 {
				return &domain.ValidationError{
					Field:   fmt.Sprintf("content.columns[%d].widthPercent", i),
					Message: "must be in (0, 100]",
				}
			}
		}
	case *domain.SocialContent:
		if v.IconSize < 0 {
			return &domain.ValidationError{Field: "content.iconSize", Message: "must not be negative"}
		}
	}
	return nil
}

func validateStyles(s domain.BlockStyles) error {
	switch s.TextAlign {
	case "", "left", "center", "right", "justify":
	default:
		return &domain.ValidationError{Field: "styles.textAlign", Message: fmt.Sprintf("unsupported alignment %q", s.TextAlign)}
	}
	return nil
}

func validateGlobalStyles(g domain.GlobalStyles) error {
	if g.FontSize <= 0 {
		return &domain.ValidationError{Field: "globalStyles.fontSize", Message: "must be positive"}
	}
	if g.ContainerWidth <= 0 {
		return &domain.ValidationError{Field: "globalStyles.containerWidth", Message: "must be positive"}
	}
	if g.ContainerPadding < 0 {
		return &domain.ValidationError{Field: "globalStyles.containerPadding", Message: "must not be negative"}
	}
	return nil
}
