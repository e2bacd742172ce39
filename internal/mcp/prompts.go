package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("newsletter",
		mcp.WithPromptDescription("Guide through building a newsletter email from an empty template"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("What the newsletter is about"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("company",
			mcp.ArgumentDescription("Sender company name for the footer"),
		),
	), s.handleNewsletterPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("promo_email",
		mcp.WithPromptDescription("Build a two-column promotional email with a call to action"),
		mcp.WithArgument("offer",
			mcp.ArgumentDescription("The offer being promoted"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("link",
			mcp.ArgumentDescription("Landing page URL for the button"),
			mcp.RequiredArgument(),
		),
	), s.handlePromoPrompt)
}

func (s *Server) handleNewsletterPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	company := req.Params.Arguments["company"]
	if company == "" {
		company = "your company"
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a newsletter about: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a newsletter email about "%s". Follow these steps:

1. Use new_template with a descriptive name, then rename_template to set a subject line and preheader
2. Add a heading block (add_block type=heading) and set its text with update_block
3. Add two or three text blocks with short sections, separated by divider blocks
4. Add an image block with alt text for the main story
5. Add a footer block for %s with an unsubscribe link
6. Check the result with render_preview in desktop and mobile mode
7. Call save_template with a label describing the draft

Use {{ first_name }} style merge tags where personalisation makes sense.`, topic, company),
				},
			},
		},
	}, nil
}

func (s *Server) handlePromoPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	offer := req.Params.Arguments["offer"]
	link := req.Params.Arguments["link"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a promotional email for: %s", offer),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a promotional email for "%s". Follow these steps:

1. Start with new_template and set the subject line with rename_template
2. Add a heading block with the offer headline
3. Add a columns block; put an image in column 0 and a text block in column 1 with add_nested_block
4. Adjust the column widths with update_block, e.g. {"columns":[{"widthPercent":40},{"widthPercent":60}]}
5. Add a button block linking to %s
6. Finish with a footer block, preview on mobile with render_preview, then save_template`, offer, link),
				},
			},
		},
	}, nil
}
