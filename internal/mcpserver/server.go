// Package mcpserver exposes the analyzer over MCP (Model Context
// Protocol) via stdio transport, so LLM clients can classify notes and
// inspect the review queue without a network surface.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notamaton/internal/analyzer"
	"github.com/starford/notamaton/internal/report"
)

// Server wraps the MCP server with the analyzer tools.
type Server struct {
	mcp *server.MCPServer
	a   *analyzer.Analyzer
}

// New creates an MCP server with all analyzer tools registered.
func New(a *analyzer.Analyzer) *Server {
	s := &Server{a: a}

	s.mcp = server.NewMCPServer(
		"Notamaton",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("classify_note",
		mcp.WithDescription("Classify a single note against the taxonomy and return the metadata proposal. "+
			"Nothing is written; proposals only become metadata after human approval via the feedback ledger."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.classifyNote)

	s.mcp.AddTool(mcp.NewTool("vault_report",
		mcp.WithDescription("Aggregate committed metadata across the vault and return the study report as Markdown."),
	), s.vaultReport)

	s.mcp.AddTool(mcp.NewTool("list_pending",
		mcp.WithDescription("List feedback-ledger entries still awaiting a human decision."),
	), s.listPending)

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

func (s *Server) classifyNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	proposal, err := s.a.ClassifyPath(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot classify %s: %v", path, err)), nil
	}
	if proposal == nil {
		return mcp.NewToolResultText("no proposal: the note has no keyword signal above the confidence threshold"), nil
	}
	out, _ := json.MarshalIndent(proposal, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) vaultReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.a.CollectStats()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rendered, err := report.Render(stats, time.Now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(rendered)), nil
}

func (s *Server) listPending(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.a.PendingEntries()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("no pending entries"), nil
	}
	out, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
