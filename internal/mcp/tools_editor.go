package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"maileditor/internal/domain"
)

func (s *Server) registerEditorTools() {
	// ── cursor ─────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_block",
		mcp.WithDescription("Select a block. An empty blockId clears the selection."),
		mcp.WithString("blockId", mcp.Description("Block ID")),
	), s.handleSelectBlock)

	s.mcp.AddTool(mcp.NewTool("start_editing",
		mcp.WithDescription("Select a block and enter inline edit mode on it"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.handleStartEditing)

	s.mcp.AddTool(mcp.NewTool("stop_editing",
		mcp.WithDescription("Leave inline edit mode. The selection is kept."),
	), s.handleStopEditing)

	// ── styles and preview ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_global_styles",
		mcp.WithDescription("Merge fields into the template's global styles (fontFamily, fontSize, lineHeight, textColor, backgroundColor, contentBackground, containerWidth, containerPadding)"),
		mcp.WithString("styles", mcp.Description("JSON object with the fields to change"), mcp.Required()),
	), s.handleUpdateGlobalStyles)

	s.mcp.AddTool(mcp.NewTool("set_preview_mode",
		mcp.WithDescription("Switch the preview between desktop and mobile. Not recorded in undo history."),
		mcp.WithString("mode", mcp.Description("desktop or mobile"), mcp.Required()),
	), s.handleSetPreviewMode)

	// ── history ────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last document change"),
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone change"),
	), s.handleRedo)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleSelectBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.store().SelectBlock(stringArg(req.GetArguments(), "blockId")); err != nil {
		return nil, err
	}
	return s.stateResult()
}

func (s *Server) handleStartEditing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(req.GetArguments(), "blockId")
	if err != nil {
		return nil, err
	}
	if err := s.store().StartEditing(id); err != nil {
		return nil, err
	}
	return s.stateResult()
}

func (s *Server) handleStopEditing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.store().StopEditing()
	return s.stateResult()
}

func (s *Server) handleUpdateGlobalStyles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	patch, err := rawArg(req.GetArguments(), "styles")
	if err != nil {
		return nil, err
	}
	doc, err := s.store().UpdateGlobalStyles(patch)
	s.logCall(ctx, "update_global_styles", err)
	if err != nil {
		return nil, err
	}
	return jsonResult(doc.GlobalStyles)
}

func (s *Server) handleSetPreviewMode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := domain.ParsePreviewMode(stringArg(req.GetArguments(), "mode"))
	if err != nil {
		return nil, err
	}
	if err := s.store().SetPreviewMode(mode); err != nil {
		return nil, err
	}
	return textResult("Preview mode: " + string(mode)), nil
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, ok := s.store().Undo(); !ok {
		return textResult("Nothing to undo."), nil
	}
	return s.stateResult()
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, ok := s.store().Redo(); !ok {
		return textResult("Nothing to redo."), nil
	}
	return s.stateResult()
}
