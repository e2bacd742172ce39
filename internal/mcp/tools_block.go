package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"maileditor/internal/domain"
	"maileditor/internal/editor"
)

func (s *Server) registerBlockTools() {
	types := make([]string, 0, len(domain.BlockTypes()))
	for _, t := range domain.BlockTypes() {
		types = append(types, string(t))
	}
	typeList := strings.Join(types, ", ")

	// ── add_block ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Add a block with default content to the open template. Appends unless a position is given; the new block is selected."),
		mcp.WithString("type", mcp.Description("Block type: "+typeList), mcp.Required()),
		mcp.WithNumber("position", mcp.Description("Zero-based position (optional, clamped)")),
	), s.handleAddBlock)

	// ── add_nested_block ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_nested_block",
		mcp.WithDescription("Add a block inside one column of a columns block"),
		mcp.WithString("containerId", mcp.Description("Columns block ID"), mcp.Required()),
		mcp.WithNumber("column", mcp.Description("Zero-based column index"), mcp.Required()),
		mcp.WithString("type", mcp.Description("Block type: "+typeList), mcp.Required()),
		mcp.WithNumber("position", mcp.Description("Position within the column (optional)")),
	), s.handleAddNestedBlock)

	// ── update_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block",
		mcp.WithDescription("Merge content and/or style fields into a block. Fields not given keep their value. Columns blocks only accept column widths: {\"columns\":[{\"widthPercent\":30},{\"widthPercent\":70}]}."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("content", mcp.Description("JSON object with content fields to change (optional)")),
		mcp.WithString("styles", mcp.Description("JSON object with style fields to change (optional)")),
		mcp.WithBoolean("locked", mcp.Description("Lock or unlock the block (optional)")),
		mcp.WithBoolean("hidden", mcp.Description("Hide or show the block (optional)")),
	), s.handleUpdateBlock)

	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List the top-level blocks of the open template in position order, optionally filtered by type"),
		mcp.WithString("type", mcp.Description("Filter by block type (optional)")),
	), s.handleListBlocks)

	// ── duplicate_block ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("duplicate_block",
		mcp.WithDescription("Insert a copy of a block right after it. The copy gets new IDs and is selected."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.handleDuplicateBlock)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block to a new position within its list (top level or its column)"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("position", mcp.Description("Zero-based target position (clamped)"), mcp.Required()),
	), s.handleMoveBlock)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a block and everything nested in it. Can be undone."),
		mcp.WithString("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlock)
}

// blockSummary is the compact listing of a block.
type blockSummary struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Position int    `json:"position"`
	Hidden   bool   `json:"hidden,omitempty"`
	Locked   bool   `json:"locked,omitempty"`
	Nested   []int  `json:"nestedPerColumn,omitempty"`
}

func summarizeBlock(b domain.Block) blockSummary {
	sum := blockSummary{
		ID:       b.ID,
		Type:     string(b.Type),
		Position: b.Position,
		Hidden:   b.Hidden,
		Locked:   b.Locked,
	}
	if cols, ok := b.Columns(); ok {
		for _, c := range cols.Columns {
			sum.Nested = append(sum.Nested, len(c.NestedBlocks))
		}
	}
	return sum
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleAddBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	raw, err := requiredString(args, "type")
	if err != nil {
		return nil, err
	}
	t, err := domain.ParseBlockType(raw)
	if err != nil {
		return nil, err
	}
	pos, err := intArg(args, "position")
	if err != nil {
		return nil, err
	}
	block, err := s.store().AddBlock(t, pos)
	s.logCall(ctx, "add_block", err)
	if err != nil {
		return nil, err
	}
	return jsonResult(block)
}

func (s *Server) handleAddNestedBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	containerID, err := requiredString(args, "containerId")
	if err != nil {
		return nil, err
	}
	column, err := requiredInt(args, "column")
	if err != nil {
		return nil, err
	}
	raw, err := requiredString(args, "type")
	if err != nil {
		return nil, err
	}
	t, err := domain.ParseBlockType(raw)
	if err != nil {
		return nil, err
	}
	pos, err := intArg(args, "position")
	if err != nil {
		return nil, err
	}
	block, err := s.store().AddNestedBlock(containerID, column, t, pos)
	s.logCall(ctx, "add_nested_block", err)
	if err != nil {
		return nil, err
	}
	return jsonResult(block)
}

func (s *Server) handleUpdateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requiredString(args, "blockId")
	if err != nil {
		return nil, err
	}
	var patch editor.BlockPatch
	if patch.Content, err = rawArg(args, "content"); err != nil {
		return nil, err
	}
	if patch.Styles, err = rawArg(args, "styles"); err != nil {
		return nil, err
	}
	patch.Locked = boolArg(args, "locked")
	patch.Hidden = boolArg(args, "hidden")

	doc, err := s.store().UpdateBlock(id, patch)
	s.logCall(ctx, "update_block", err)
	if err != nil {
		return nil, err
	}
	block, _ := editor.FindBlock(doc, id)
	return jsonResult(block)
}

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := stringArg(req.GetArguments(), "type")
	summaries := []blockSummary{}
	for b := range s.store().OrderedBlocks() {
		if filter != "" && string(b.Type) != filter {
			continue
		}
		summaries = append(summaries, summarizeBlock(b))
	}
	return jsonResult(summaries)
}

func (s *Server) handleDuplicateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(req.GetArguments(), "blockId")
	if err != nil {
		return nil, err
	}
	clone, err := s.store().DuplicateBlock(id)
	s.logCall(ctx, "duplicate_block", err)
	if err != nil {
		return nil, err
	}
	return jsonResult(clone)
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requiredString(args, "blockId")
	if err != nil {
		return nil, err
	}
	pos, err := requiredInt(args, "position")
	if err != nil {
		return nil, err
	}
	doc, err := s.store().MoveBlock(id, pos)
	s.logCall(ctx, "move_block", err)
	if err != nil {
		return nil, err
	}
	block, _ := editor.FindBlock(doc, id)
	return textResult(fmt.Sprintf("Block %s is now at position %d", id, block.Position)), nil
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(req.GetArguments(), "blockId")
	if err != nil {
		return nil, err
	}
	if _, err := s.store().DeleteBlock(id); err != nil {
		s.logCall(ctx, "delete_block", err)
		return nil, err
	}
	return textResult("Deleted block " + id), nil
}
