package domain

import (
	"encoding/json"
	"fmt"

	deep "github.com/brunoga/deep/v5"
)

type BlockType string

const (
	BlockTypeText    BlockType = "text"
	BlockTypeHeading BlockType = "heading"
	BlockTypeImage   BlockType = "image"
	BlockTypeButton  BlockType = "button"
	BlockTypeDivider BlockType = "divider"
	BlockTypeSpacer  BlockType = "spacer"
	BlockTypeColumns BlockType = "columns"
	BlockTypeSocial  BlockType = "social"
	BlockTypeFooter  BlockType = "footer"
	BlockTypeHTML    BlockType = "html"
)

// BlockTypes returns every supported block type in palette order.
func BlockTypes() []BlockType {
	return []BlockType{
		BlockTypeText,
		BlockTypeHeading,
		BlockTypeImage,
		BlockTypeButton,
		BlockTypeDivider,
		BlockTypeSpacer,
		BlockTypeColumns,
		BlockTypeSocial,
		BlockTypeFooter,
		BlockTypeHTML,
	}
}

// ParseBlockType validates a block type tag coming from outside the engine.
func ParseBlockType(s string) (BlockType, error) {
	for _, t := range BlockTypes() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", &ValidationError{Field: "type", Message: fmt.Sprintf("unknown block type %q", s)}
}

// IsContainer reports whether blocks of this type can hold nested blocks.
func (t BlockType) IsContainer() bool {
	return t == BlockTypeColumns
}

// Spacing is a four-sided box-model value in pixels.
type Spacing struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Uniform returns a Spacing with the same value on every side.
func Uniform(v int) Spacing {
	return Spacing{Top: v, Right: v, Bottom: v, Left: v}
}

type Border struct {
	Width  int    `json:"width"`
	Style  string `json:"style"`
	Color  string `json:"color"`
	Radius int    `json:"radius"`
}

// BlockStyles is the box-model style record shared by every block variant.
type BlockStyles struct {
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	Padding         Spacing `json:"padding"`
	Margin          Spacing `json:"margin"`
	Border          *Border `json:"border,omitempty"`
	TextAlign       string  `json:"textAlign,omitempty"` // left | center | right | justify
	Width           string  `json:"width,omitempty"`
	Height          string  `json:"height,omitempty"`
}

// Block is a single addressable content unit of a template.
// Content always holds the payload struct matching Type.
type Block struct {
	ID       string      `json:"id"`
	Type     BlockType   `json:"type"`
	Position int         `json:"position"`
	Styles   BlockStyles `json:"styles"`
	Locked   bool        `json:"locked,omitempty"`
	Hidden   bool        `json:"hidden,omitempty"`
	Content  Content     `json:"content"`
}

// blockJSON is the wire shape of Block with the content left undecoded.
type blockJSON struct {
	ID       string          `json:"id"`
	Type     BlockType       `json:"type"`
	Position int             `json:"position"`
	Styles   BlockStyles     `json:"styles"`
	Locked   bool            `json:"locked,omitempty"`
	Hidden   bool            `json:"hidden,omitempty"`
	Content  json.RawMessage `json:"content"`
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var raw blockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	content, err := EmptyContent(raw.Type)
	if err != nil {
		return err
	}
	if len(raw.Content) > 0 && string(raw.Content) != "null" {
		if err := json.Unmarshal(raw.Content, content); err != nil {
			return &ValidationError{Field: "content", Message: fmt.Sprintf("block %s: %v", raw.ID, err)}
		}
	}
	*b = Block{
		ID:       raw.ID,
		Type:     raw.Type,
		Position: raw.Position,
		Styles:   raw.Styles,
		Locked:   raw.Locked,
		Hidden:   raw.Hidden,
		Content:  content,
	}
	return nil
}

// Clone returns a deep copy of the block. Ids are preserved.
func (b Block) Clone() Block {
	return deep.Copy(b)
}

// Columns returns the columns payload when the block is a columns container.
func (b Block) Columns() (*ColumnsContent, bool) {
	c, ok := b.Content.(*ColumnsContent)
	return c, ok
}
