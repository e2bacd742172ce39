package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"maileditor/internal/editor"
)

func (s *Server) registerTemplateTools() {
	// ── new_template ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("new_template",
		mcp.WithDescription("Start a new empty email template and make it the open one. Unsaved changes to the current template are discarded."),
		mcp.WithString("name", mcp.Description("Template name (optional)")),
	), s.handleNewTemplate)

	// ── open_template ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_template",
		mcp.WithDescription("Open a stored template for editing. Undo history starts fresh."),
		mcp.WithString("templateId", mcp.Description("Template ID"), mcp.Required()),
	), s.handleOpenTemplate)

	// ── save_template ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_template",
		mcp.WithDescription("Save the open template and record a revision"),
		mcp.WithString("label", mcp.Description("Revision label (optional, default \"manual\")")),
	), s.handleSaveTemplate)

	// ── list_templates ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List stored templates, most recently updated first"),
	), s.handleListTemplates)

	// ── get_template ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_template",
		mcp.WithDescription("Return the open template document, selection and undo/redo availability"),
	), s.handleGetTemplate)

	// ── rename_template ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("rename_template",
		mcp.WithDescription("Change the name, subject line or preheader of the open template"),
		mcp.WithString("name", mcp.Description("New name (optional)")),
		mcp.WithString("subject", mcp.Description("New subject line (optional)")),
		mcp.WithString("preheader", mcp.Description("New preheader text (optional)")),
	), s.handleRenameTemplate)

	// ── import_template ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("import_template",
		mcp.WithDescription("Validate and store a template JSON document"),
		mcp.WithString("document", mcp.Description("Template JSON"), mcp.Required()),
	), s.handleImportTemplate)

	// ── delete_template (destructive) ──────────────────
	s.mcp.AddTool(mcp.NewTool("delete_template",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a stored template and all its revisions"),
		mcp.WithString("templateId", mcp.Description("Template ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteTemplate)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleNewTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.editor.New(ctx, stringArg(req.GetArguments(), "name"))
	s.logCall(ctx, "new_template", err)
	if err != nil {
		return nil, err
	}
	return jsonResult(doc)
}

func (s *Server) handleOpenTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(req.GetArguments(), "templateId")
	if err != nil {
		return nil, err
	}
	doc, err := s.editor.Open(ctx, id)
	s.logCall(ctx, "open_template", err)
	if err != nil {
		return nil, err
	}
	return jsonResult(doc)
}

func (s *Server) handleSaveTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label := stringArg(req.GetArguments(), "label")
	if label == "" {
		label = "manual"
	}
	rev, err := s.editor.Save(ctx, label)
	s.logCall(ctx, "save_template", err)
	if err != nil {
		return nil, err
	}
	if rev == nil {
		return textResult("Template saved."), nil
	}
	out := *rev
	out.SnapshotJSON = "" // the document is available as a resource
	return jsonResult(out)
}

func (s *Server) handleListTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.editor.List(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(list)
}

func (s *Server) handleGetTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.stateResult()
}

func (s *Server) handleRenameTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	var patch editor.MetaPatch
	if v, ok := args["name"].(string); ok {
		patch.Name = &v
	}
	if v, ok := args["subject"].(string); ok {
		patch.Subject = &v
	}
	if v, ok := args["preheader"].(string); ok {
		patch.Preheader = &v
	}
	doc, err := s.store().UpdateMeta(patch)
	s.logCall(ctx, "rename_template", err)
	if err != nil {
		return nil, err
	}
	return jsonResult(doc.Summarize())
}

func (s *Server) handleImportTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := requiredString(req.GetArguments(), "document")
	if err != nil {
		return nil, err
	}
	doc, err := s.editor.Import(ctx, []byte(data))
	s.logCall(ctx, "import_template", err)
	if err != nil {
		return nil, err
	}
	return jsonResult(doc.Summarize())
}

func (s *Server) handleDeleteTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(req.GetArguments(), "templateId")
	if err != nil {
		return nil, err
	}
	err = s.editor.Delete(ctx, id)
	s.logCall(ctx, "delete_template", err)
	if err != nil {
		return nil, err
	}
	return textResult("Deleted template " + id), nil
}
