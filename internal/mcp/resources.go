package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"maileditor/internal/domain"
)

const (
	currentTemplateURI = "maileditor://template/current"
	templateURIPrefix  = "maileditor://template/"
	templatesURI       = "maileditor://templates"
)

func (s *Server) registerResources() {
	// ── maileditor://templates ─────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		templatesURI,
		"All Templates",
		mcp.WithMIMEType("application/json"),
	), s.handleTemplatesResource)

	// ── maileditor://template/current ──────────────────
	s.mcp.AddResource(mcp.NewResource(
		currentTemplateURI,
		"Open Template",
		mcp.WithResourceDescription("The template being edited, including unsaved changes"),
		mcp.WithMIMEType("application/json"),
	), s.handleCurrentTemplateResource)

	// ── maileditor://template/{id} ─────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"maileditor://template/{id}",
			"Stored Template",
		),
		s.handleTemplateResource,
	)
}

func (s *Server) handleTemplatesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	list, err := s.editor.List(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource(templatesURI, list)
}

func (s *Server) handleCurrentTemplateResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(currentTemplateURI, s.store().Document())
}

func (s *Server) handleTemplateResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := templateIDFromURI(uri)
	if id == "" {
		return nil, fmt.Errorf("could not extract template id from URI: %s", uri)
	}
	if id == "current" {
		return jsonResource(uri, s.store().Document())
	}

	var doc *domain.Template
	if open := s.store().Document(); open.ID == id {
		doc = open
	} else {
		stored, err := s.editor.Templates().GetTemplate(ctx, id)
		if err != nil {
			return nil, err
		}
		doc = stored
	}
	return jsonResource(uri, doc)
}

// templateIDFromURI extracts the id from "maileditor://template/{id}".
func templateIDFromURI(uri string) string {
	id, ok := strings.CutPrefix(uri, templateURIPrefix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
