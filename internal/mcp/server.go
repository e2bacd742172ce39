package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"maileditor/internal/editor"
	"maileditor/internal/service"
)

// Server is the MCP server for the template editor.
// It exposes tools, resources, and prompts so AI agents can build emails.
type Server struct {
	mcp    *server.MCPServer
	editor *service.EditorService
	log    zerolog.Logger
}

// Deps holds everything the MCP server needs from main.
type Deps struct {
	Editor *service.EditorService
	Log    zerolog.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		editor: deps.Editor,
		log:    deps.Log,
	}

	s.mcp = server.NewMCPServer(
		"maileditor",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerTemplateTools()
	s.registerBlockTools()
	s.registerEditorTools()
	s.registerPreviewTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout. Stdout carries the
// protocol, so nothing else may write to it.
func (s *Server) ServeStdio() error {
	s.log.Info().Msg("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

func (s *Server) store() *editor.Store {
	return s.editor.Store()
}

// stateResult returns the full editor state after a mutation.
func (s *Server) stateResult() (*mcp.CallToolResult, error) {
	return jsonResult(s.store().State())
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func (s *Server) logCall(ctx context.Context, tool string, err error) {
	if err != nil {
		s.log.Warn().Err(err).Str("tool", tool).Msg("tool failed")
		return
	}
	s.log.Debug().Str("tool", tool).Msg("tool called")
}
