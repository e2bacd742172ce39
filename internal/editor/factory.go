package editor

import (
	"github.com/google/uuid"

	"maileditor/internal/domain"
)

// newID returns a time-ordered unique id (uuid v7: millisecond timestamp
// plus random bits).
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// NewBlock creates a fully populated block of type t at position 0.
// The caller sets the real position.
func NewBlock(t domain.BlockType) (domain.Block, error) {
	content, err := defaultContent(t)
	if err != nil {
		return domain.Block{}, err
	}
	return domain.Block{
		ID:      newID(),
		Type:    t,
		Styles:  defaultStyles(t),
		Content: content,
	}, nil
}

// NewBlockFromString parses the type tag and creates the block.
func NewBlockFromString(s string) (domain.Block, error) {
	t, err := domain.ParseBlockType(s)
	if err != nil {
		return domain.Block{}, err
	}
	return NewBlock(t)
}

// CloneBlock deep-copies b and assigns fresh ids to the block, its columns
// and every nested block.
func CloneBlock(b domain.Block) domain.Block {
	out := b.Clone()
	out.ID = newID()
	if cols, ok := out.Columns(); ok {
		for i := range cols.Columns {
			cols.Columns[i].ID = newID()
			for j := range cols.Columns[i].NestedBlocks {
				cols.Columns[i].NestedBlocks[j].ID = newID()
			}
		}
	}
	return out
}

func defaultStyles(t domain.BlockType) domain.BlockStyles {
	styles := domain.BlockStyles{
		Padding:   domain.Uniform(10),
		TextAlign: "left",
	}
	switch t {
	case domain.BlockTypeButton, domain.BlockTypeImage, domain.BlockTypeSocial, domain.BlockTypeFooter:
		styles.TextAlign = "center"
	case domain.BlockTypeSpacer:
		styles.Padding = domain.Spacing{}
	case domain.BlockTypeDivider:
		styles.Padding = domain.Spacing{Top: 10, Bottom: 10}
	}
	return styles
}

func defaultContent(t domain.BlockType) (domain.Content, error) {
	switch t {
	case domain.BlockTypeText:
		return &domain.TextContent{
			Text:          "Enter your text here",
			FontSize:      16,
			FontFamily:    "Arial, Helvetica, sans-serif",
			FontWeight:    "normal",
			Color:         "#333333",
			LineHeight:    "1.5",
			LetterSpacing: "normal",
		}, nil
	case domain.BlockTypeHeading:
		return &domain.HeadingContent{
			Text:       "Heading",
			Level:      2,
			FontSize:   28,
			FontFamily: "Arial, Helvetica, sans-serif",
			FontWeight: "bold",
			Color:      "#111111",
		}, nil
	case domain.BlockTypeImage:
		return &domain.ImageContent{
			Src:   "https://via.placeholder.com/600x300",
			Alt:   "Image",
			Width: "100%",
		}, nil
	case domain.BlockTypeButton:
		return &domain.ButtonContent{
			Text:            "Click me",
			Link:            "#",
			LinkTarget:      "_blank",
			BackgroundColor: "#007bff",
			TextColor:       "#ffffff",
			Padding:         domain.Spacing{Top: 12, Right: 24, Bottom: 12, Left: 24},
			BorderRadius:    4,
		}, nil
	case domain.BlockTypeDivider:
		return &domain.DividerContent{
			Color:     "#dddddd",
			Thickness: 1,
			Style:     "solid",
			Width:     "100%",
		}, nil
	case domain.BlockTypeSpacer:
		return &domain.SpacerContent{Height: 32}, nil
	case domain.BlockTypeColumns:
		return &domain.ColumnsContent{
			Columns: []domain.Column{
				{ID: newID(), WidthPercent: 50, NestedBlocks: []domain.Block{}},
				{ID: newID(), WidthPercent: 50, NestedBlocks: []domain.Block{}},
			},
		}, nil
	case domain.BlockTypeSocial:
		return &domain.SocialContent{
			Links: []domain.SocialLink{
				{Platform: "facebook", URL: "https://facebook.com"},
				{Platform: "twitter", URL: "https://twitter.com"},
				{Platform: "instagram", URL: "https://instagram.com"},
			},
			IconSize:  32,
			IconStyle: "color",
		}, nil
	case domain.BlockTypeFooter:
		return &domain.FooterContent{
			CompanyName:     "Your Company",
			Address:         "123 Main Street, City, Country",
			UnsubscribeText: "Unsubscribe",
			UnsubscribeLink: "{{ unsubscribe_url }}",
		}, nil
	case domain.BlockTypeHTML:
		return &domain.HTMLContent{HTML: "<p>Custom HTML</p>"}, nil
	default:
		return domain.EmptyContent(t)
	}
}
