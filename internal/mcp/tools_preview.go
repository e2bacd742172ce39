package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"maileditor/internal/domain"
	"maileditor/internal/render"
)

func (s *Server) registerPreviewTools() {
	// ── render_preview ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("render_preview",
		mcp.WithDescription("Render the open template to email HTML. Hidden blocks are left out; {{ liquid }} merge tags are filled from data."),
		mcp.WithString("mode", mcp.Description("desktop or mobile (optional, defaults to the current preview mode)")),
		mcp.WithString("data", mcp.Description("JSON object with merge-tag values (optional)")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleRenderPreview)

	// ── list_revisions ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_revisions",
		mcp.WithDescription("List save points of a template, newest first, with their change counts"),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to the open template)")),
	), s.handleListRevisions)

	// ── restore_revision ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("restore_revision",
		mcp.WithDescription("Load a save point of the open template. The result is unsaved until save_template."),
		mcp.WithString("revisionId", mcp.Description("Revision ID"), mcp.Required()),
	), s.handleRestoreRevision)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleRenderPreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	var opts render.Options
	if m := stringArg(args, "mode"); m != "" {
		mode, err := domain.ParsePreviewMode(m)
		if err != nil {
			return nil, err
		}
		opts.Mode = mode
	}
	raw, err := rawArg(args, "data")
	if err != nil {
		return nil, err
	}
	if raw != nil {
		if err := json.Unmarshal(raw, &opts.Data); err != nil {
			return nil, fmt.Errorf("data must be a JSON object: %w", err)
		}
	}
	html, err := s.editor.Preview(opts)
	s.logCall(ctx, "render_preview", err)
	if err != nil {
		return nil, err
	}
	return textResult(html), nil
}

func (s *Server) handleListRevisions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	revs, err := s.editor.Revisions(ctx, stringArg(req.GetArguments(), "templateId"))
	if err != nil {
		return nil, err
	}
	return jsonResult(revs)
}

func (s *Server) handleRestoreRevision(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(req.GetArguments(), "revisionId")
	if err != nil {
		return nil, err
	}
	doc, err := s.editor.RestoreRevision(ctx, id)
	s.logCall(ctx, "restore_revision", err)
	if err != nil {
		return nil, err
	}
	return jsonResult(doc.Summarize())
}
