package domain

import "fmt"

// Content is the per-variant payload of a Block. The set of implementations
// is closed: one struct per BlockType.
type Content interface {
	BlockType() BlockType
	content()
}

type TextContent struct {
	Text          string `json:"text"`
	FontSize      int    `json:"fontSize"`
	FontFamily    string `json:"fontFamily"`
	FontWeight    string `json:"fontWeight"`
	Color         string `json:"color"`
	LineHeight    string `json:"lineHeight"`
	LetterSpacing string `json:"letterSpacing"`
}

type HeadingContent struct {
	Text       string `json:"text"`
	Level      int    `json:"level"` // 1-6
	FontSize   int    `json:"fontSize"`
	FontFamily string `json:"fontFamily"`
	FontWeight string `json:"fontWeight"`
	Color      string `json:"color"`
}

type ImageContent struct {
	Src   string `json:"src"`
	Alt   string `json:"alt"`
	Link  string `json:"link"`
	Width string `json:"width"`
}

type ButtonContent struct {
	Text            string  `json:"text"`
	Link            string  `json:"link"`
	LinkTarget      string  `json:"linkTarget"` // _blank | _self
	BackgroundColor string  `json:"backgroundColor"`
	TextColor       string  `json:"textColor"`
	Padding         Spacing `json:"padding"`
	BorderRadius    int     `json:"borderRadius"`
}

type DividerContent struct {
	Color     string `json:"color"`
	Thickness int    `json:"thickness"`
	Style     string `json:"style"` // solid | dashed | dotted
	Width     string `json:"width"`
}

type SpacerContent struct {
	Height int `json:"height"`
}

// Column is one cell of a columns block. Nested blocks are positioned
// independently of the top-level document order.
type Column struct {
	ID           string  `json:"id"`
	WidthPercent float64 `json:"widthPercent"`
	NestedBlocks []Block `json:"nestedBlocks"`
}

type ColumnsContent struct {
	Columns []Column `json:"columns"`
}

type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

type SocialContent struct {
	Links     []SocialLink `json:"links"`
	IconSize  int          `json:"iconSize"`
	IconStyle string       `json:"iconStyle"` // color | dark | light
}

type FooterContent struct {
	CompanyName     string `json:"companyName"`
	Address         string `json:"address"`
	UnsubscribeText string `json:"unsubscribeText"`
	UnsubscribeLink string `json:"unsubscribeLink"`
}

type HTMLContent struct {
	HTML string `json:"html"`
}

func (*TextContent) BlockType() BlockType    { return BlockTypeText }
func (*HeadingContent) BlockType() BlockType { return BlockTypeHeading }
func (*ImageContent) BlockType() BlockType   { return BlockTypeImage }
func (*ButtonContent) BlockType() BlockType  { return BlockTypeButton }
func (*DividerContent) BlockType() BlockType { return BlockTypeDivider }
func (*SpacerContent) BlockType() BlockType  { return BlockTypeSpacer }
func (*ColumnsContent) BlockType() BlockType { return BlockTypeColumns }
func (*SocialContent) BlockType() BlockType  { return BlockTypeSocial }
func (*FooterContent) BlockType() BlockType  { return BlockTypeFooter }
func (*HTMLContent) BlockType() BlockType    { return BlockTypeHTML }

func (*TextContent) content()    {}
func (*HeadingContent) content() {}
func (*ImageContent) content()   {}
func (*ButtonContent) content()  {}
func (*DividerContent) content() {}
func (*SpacerContent) content()  {}
func (*ColumnsContent) content() {}
func (*SocialContent) content()  {}
func (*FooterContent) content()  {}
func (*HTMLContent) content()    {}

// EmptyContent returns a zero-valued payload for t, ready to be decoded into.
func EmptyContent(t BlockType) (Content, error) {
	switch t {
	case BlockTypeText:
		return &TextContent{}, nil
	case BlockTypeHeading:
		return &HeadingContent{}, nil
	case BlockTypeImage:
		return &ImageContent{}, nil
	case BlockTypeButton:
		return &ButtonContent{}, nil
	case BlockTypeDivider:
		return &DividerContent{}, nil
	case BlockTypeSpacer:
		return &SpacerContent{}, nil
	case BlockTypeColumns:
		return &ColumnsContent{}, nil
	case BlockTypeSocial:
		return &SocialContent{}, nil
	case BlockTypeFooter:
		return &FooterContent{}, nil
	case BlockTypeHTML:
		return &HTMLContent{}, nil
	default:
		return nil, &ValidationError{Field: "type", Message: fmt.Sprintf("unknown block type %q", t)}
	}
}
