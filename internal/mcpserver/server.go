// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes read-only daybook tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/entryservice"
)

const formatURI = "daybook://entry-format"

// Server wraps the MCP server with daybook tools.
type Server struct {
	mcp *server.MCPServer
	svc *entryservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *entryservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Daybook",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List journal entries, newest first."),
		mcp.WithString("query", mcp.Description("Optional case-insensitive filter on subject or path")),
	), s.listEntries)

	s.mcp.AddTool(mcp.NewTool("read_entry",
		mcp.WithDescription("Read the raw Markdown of a journal entry, header included."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the entries directory (e.g. 2024-03-05.md)")),
	), s.readEntry)

	s.mcp.AddTool(mcp.NewTool("convert_entry",
		mcp.WithDescription("Parse an entry and return its subject, metadata and the content blocks "+
			"that would be published to the notes store."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the entries directory")),
	), s.convertEntry)

	s.mcp.AddTool(mcp.NewTool("list_links",
		mcp.WithDescription("List the links in an entry body and flag those pointing at internal notes pages."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the entries directory")),
	), s.listLinks)

	s.mcp.AddTool(mcp.NewTool("preview_message",
		mcp.WithDescription("Render an entry as the chat message it would be posted as."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the entries directory")),
	), s.previewMessage)

	s.mcp.AddTool(mcp.NewTool("get_entry_format",
		mcp.WithDescription("Returns the journal entry format. "+
			"Call this before drafting an entry to get the header keys and supported Markdown right."),
	), s.getEntryFormat)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Entry Format",
			mcp.WithResourceDescription("Journal entry file format and supported Markdown."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEntryFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func toolError(path string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path))
	case errors.Is(err, apperr.ErrUnsupported):
		return mcp.NewToolResultError(fmt.Sprintf("not a markdown entry: %s", path))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := ""
	if q, err := req.RequireString("query"); err == nil {
		query = q
	}
	items, _ := s.svc.ListEntries(ctx, 0, 0, query)
	if len(items) == 0 {
		return mcp.NewToolResultText("no entries found"), nil
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = it.Path + "\t" + it.Subject
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.svc.Raw(ctx, path)
	if err != nil {
		return toolError(path, err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) convertEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry, err := s.svc.GetEntry(ctx, path)
	if err != nil {
		return toolError(path, err), nil
	}
	bs, err := s.svc.Blocks(ctx, path)
	if err != nil {
		return toolError(path, err), nil
	}
	return jsonResult(map[string]any{
		"subject":  entry.Subject,
		"format":   entry.Format,
		"metadata": entry.Metadata,
		"blocks":   bs,
	})
}

func (s *Server) listLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.svc.Links(ctx, path)
	if err != nil {
		return toolError(path, err), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no links found"), nil
	}
	return jsonResult(items)
}

func (s *Server) previewMessage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := s.svc.Mrkdwn(ctx, path)
	if err != nil {
		return toolError(path, err), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) getEntryFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EntryFormatContract), nil
}

func (s *Server) readEntryFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     EntryFormatContract,
		},
	}, nil
}
