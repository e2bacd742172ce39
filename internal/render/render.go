// Package render turns a template into a table-based HTML email preview.
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/osteele/liquid"
	liquidrender "github.com/osteele/liquid/render"

	"maileditor/internal/domain"
)

// MobileWidth is the container width used by the mobile preview.
const MobileWidth = 375

// Options controls a single render.
type Options struct {
	Mode domain.PreviewMode
	// Data binds Liquid merge tags such as {{ contact.first_name }}.
	Data map[string]any
}

// Renderer owns the Liquid engines; it is safe for concurrent use.
type Renderer struct {
	text *liquid.Engine // HTML-escapes every {{ }} output
	raw  *liquid.Engine // html blocks only
}

func New() *Renderer {
	text := liquid.NewEngine()
	text.SetAutoEscapeReplacer(liquidrender.HtmlEscaper)
	return &Renderer{text: text, raw: liquid.NewEngine()}
}

// HTML renders doc. Hidden blocks are skipped.
func (r *Renderer) HTML(doc *domain.Template, opts Options) (string, error) {
	if opts.Data == nil {
		opts.Data = map[string]any{}
	}
	g := doc.GlobalStyles
	width := g.ContainerWidth
	if opts.Mode == domain.PreviewMobile {
		width = MobileWidth
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	subject, err := r.merge(doc.Subject, opts.Data, "subject")
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "<title>%s</title>\n</head>\n", subject)
	fmt.Fprintf(&b, "<body style=\"margin:0;padding:0;background-color:%s;\">\n", attr(g.BackgroundColor))
	if doc.Preheader != "" {
		pre, err := r.merge(doc.Preheader, opts.Data, "preheader")
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "<div style=\"display:none;max-height:0;overflow:hidden;\">%s</div>\n", pre)
	}
	fmt.Fprintf(&b, "<table role=\"presentation\" width=\"100%%\" cellpadding=\"0\" cellspacing=\"0\" style=\"background-color:%s;\">\n<tr><td align=\"center\">\n", attr(g.BackgroundColor))
	fmt.Fprintf(&b, "<table role=\"presentation\" width=\"%d\" cellpadding=\"0\" cellspacing=\"0\" style=\"width:%dpx;max-width:100%%;background-color:%s;font-family:%s;font-size:%dpx;line-height:%s;color:%s;\">\n",
		width, width, attr(g.ContentBackground), attr(g.FontFamily), g.FontSize, attr(g.LineHeight), attr(g.TextColor))
	fmt.Fprintf(&b, "<tr><td style=\"padding:%dpx;\">\n", g.ContainerPadding)

	for _, block := range doc.Blocks {
		if err := r.block(&b, block, opts); err != nil {
			return "", err
		}
	}

	b.WriteString("</td></tr>\n</table>\n</td></tr>\n</table>\n</body>\n</html>\n")
	return b.String(), nil
}

func (r *Renderer) block(b *strings.Builder, block domain.Block, opts Options) error {
	if block.Hidden {
		return nil
	}
	inner, err := r.content(block, opts)
	if err != nil {
		return fmt.Errorf("render block %s (%s): %w", block.ID, block.Type, err)
	}
	fmt.Fprintf(b, "<div data-block-id=\"%s\" style=\"%s\">%s</div>\n", attr(block.ID), blockStyle(block.Styles), inner)
	return nil
}

// content renders the variant payload. Every block type has a case.
func (r *Renderer) content(block domain.Block, opts Options) (string, error) {
	switch c := block.Content.(type) {
	case *domain.TextContent:
		text, err := r.merge(c.Text, opts.Data, "text")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("<p style=\"margin:0;font-size:%dpx;font-family:%s;font-weight:%s;color:%s;line-height:%s;letter-spacing:%s;\">%s</p>",
			c.FontSize, attr(c.FontFamily), attr(c.FontWeight), attr(c.Color), attr(c.LineHeight), attr(c.LetterSpacing), text), nil

	case *domain.HeadingContent:
		text, err := r.merge(c.Text, opts.Data, "text")
		if err != nil {
			return "", err
		}
		level := min(max(c.Level, 1), 6)
		return fmt.Sprintf("<h%d style=\"margin:0;font-size:%dpx;font-family:%s;font-weight:%s;color:%s;\">%s</h%d>",
			level, c.FontSize, attr(c.FontFamily), attr(c.FontWeight), attr(c.Color), text, level), nil

	case *domain.ImageContent:
		img := fmt.Sprintf("<img src=\"%s\" alt=\"%s\" width=\"%s\" style=\"display:block;max-width:100%%;height:auto;border:0;\">",
			attr(c.Src), attr(c.Alt), attr(c.Width))
		if c.Link != "" {
			img = fmt.Sprintf("<a href=\"%s\">%s</a>", attr(c.Link), img)
		}
		return img, nil

	case *domain.ButtonContent:
		text, err := r.merge(c.Text, opts.Data, "text")
		if err != nil {
			return "", err
		}
		p := c.Padding
		return fmt.Sprintf("<a href=\"%s\" target=\"%s\" style=\"display:inline-block;background-color:%s;color:%s;padding:%dpx %dpx %dpx %dpx;border-radius:%dpx;text-decoration:none;\">%s</a>",
			attr(c.Link), attr(c.LinkTarget), attr(c.BackgroundColor), attr(c.TextColor),
			p.Top, p.Right, p.Bottom, p.Left, c.BorderRadius, text), nil

	case *domain.DividerContent:
		return fmt.Sprintf("<hr style=\"border:0;border-top:%dpx %s %s;width:%s;margin:0 auto;\">",
			c.Thickness, attr(c.Style), attr(c.Color), attr(c.Width)), nil

	case *domain.SpacerContent:
		return fmt.Sprintf("<div style=\"height:%dpx;line-height:%dpx;font-size:1px;\">&nbsp;</div>", c.Height, c.Height), nil

	case *domain.ColumnsContent:
		return r.columns(c, opts)

	case *domain.SocialContent:
		var parts []string
		for _, l := range c.Links {
			parts = append(parts, fmt.Sprintf("<a href=\"%s\" class=\"social-%s social-%s\" style=\"display:inline-block;width:%dpx;height:%dpx;margin:0 4px;\">%s</a>",
				attr(l.URL), attr(l.Platform), attr(c.IconStyle), c.IconSize, c.IconSize, html.EscapeString(l.Platform)))
		}
		return strings.Join(parts, ""), nil

	case *domain.FooterContent:
		link, err := r.merge(c.UnsubscribeLink, opts.Data, "unsubscribeLink")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("<p style=\"margin:0;font-size:12px;color:#888888;\">%s<br>%s<br><a href=\"%s\">%s</a></p>",
			html.EscapeString(c.CompanyName), html.EscapeString(c.Address), link, html.EscapeString(c.UnsubscribeText)), nil

	case *domain.HTMLContent:
		// Raw HTML is trusted author input; merge tags still apply.
		return r.mergeRaw(c.HTML, opts.Data, "html")

	default:
		return "", &domain.ValidationError{Field: "type", Message: fmt.Sprintf("cannot render block type %q", block.Type)}
	}
}

// columns renders side-by-side cells on desktop and stacked rows on mobile.
func (r *Renderer) columns(c *domain.ColumnsContent, opts Options) (string, error) {
	var b strings.Builder
	b.WriteString("<table role=\"presentation\" width=\"100%\" cellpadding=\"0\" cellspacing=\"0\">")
	stacked := opts.Mode == domain.PreviewMobile
	if !stacked {
		b.WriteString("<tr>")
	}
	for _, col := range c.Columns {
		if stacked {
			b.WriteString("<tr><td width=\"100%\" valign=\"top\">")
		} else {
			fmt.Fprintf(&b, "<td width=\"%s%%\" valign=\"top\">", trimFloat(col.WidthPercent))
		}
		for _, nb := range col.NestedBlocks {
			if err := r.block(&b, nb, opts); err != nil {
				return "", err
			}
		}
		b.WriteString("</td>")
		if stacked {
			b.WriteString("</tr>")
		}
	}
	if !stacked {
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String(), nil
}

// merge resolves Liquid tags in s and returns HTML-safe text: the literal
// text around tags is escaped here, merged values by the engine. The result
// is also safe inside a quoted attribute.
func (r *Renderer) merge(s string, data map[string]any, field string) (string, error) {
	if !hasLiquid(s) {
		return html.EscapeString(s), nil
	}
	return liquidString(r.text, escapeLiterals(s), data, field)
}

// mergeRaw resolves Liquid tags and leaves everything unescaped.
func (r *Renderer) mergeRaw(s string, data map[string]any, field string) (string, error) {
	if !hasLiquid(s) {
		return s, nil
	}
	return liquidString(r.raw, s, data, field)
}

func liquidString(engine *liquid.Engine, s string, data map[string]any, field string) (string, error) {
	out, err := engine.ParseAndRenderString(s, data)
	if err != nil {
		return "", &domain.ValidationError{Field: field, Message: "liquid: " + err.Error()}
	}
	return out, nil
}

func hasLiquid(s string) bool {
	return nextTag(s) >= 0
}

// escapeLiterals HTML-escapes the text between Liquid tags. An unterminated
// tag is left for the engine to reject.
func escapeLiterals(s string) string {
	var b strings.Builder
	for {
		start := nextTag(s)
		if start < 0 {
			b.WriteString(html.EscapeString(s))
			return b.String()
		}
		closer := "}}"
		if s[start+1] == '%' {
			closer = "%}"
		}
		n := strings.Index(s[start+2:], closer)
		if n < 0 {
			b.WriteString(html.EscapeString(s[:start]))
			b.WriteString(s[start:])
			return b.String()
		}
		end := start + 2 + n + len(closer)
		b.WriteString(html.EscapeString(s[:start]))
		b.WriteString(s[start:end])
		s = s[end:]
	}
}

// nextTag returns the index of the first "{{" or "{%" in s, or -1.
func nextTag(s string) int {
	i, j := strings.Index(s, "{{"), strings.Index(s, "{%")
	if i < 0 || (j >= 0 && j < i) {
		return j
	}
	return i
}

func blockStyle(s domain.BlockStyles) string {
	parts := []string{
		fmt.Sprintf("padding:%dpx %dpx %dpx %dpx", s.Padding.Top, s.Padding.Right, s.Padding.Bottom, s.Padding.Left),
		fmt.Sprintf("margin:%dpx %dpx %dpx %dpx", s.Margin.Top, s.Margin.Right, s.Margin.Bottom, s.Margin.Left),
	}
	if s.BackgroundColor != "" {
		parts = append(parts, "background-color:"+attr(s.BackgroundColor))
	}
	if s.TextAlign != "" {
		parts = append(parts, "text-align:"+attr(s.TextAlign))
	}
	if s.Width != "" {
		parts = append(parts, "width:"+attr(s.Width))
	}
	if s.Height != "" {
		parts = append(parts, "height:"+attr(s.Height))
	}
	if bd := s.Border; bd != nil {
		parts = append(parts,
			fmt.Sprintf("border:%dpx %s %s", bd.Width, attr(bd.Style), attr(bd.Color)),
			fmt.Sprintf("border-radius:%dpx", bd.Radius))
	}
	return strings.Join(parts, ";") + ";"
}

func attr(s string) string {
	return html.EscapeString(s)
}

func trimFloat(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}
