// Package mcp provides the pullserver MCP server, exposing the
// synchronization trigger and run inspection as tools.
package mcp

import (
	"context"
	_ "embed"

	"github.com/deixis/pullserver"
	"github.com/deixis/pullserver/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed instructions.md
var Instructions string

// Syncer runs one synchronization.
type Syncer interface {
	Sync(ctx context.Context) (*report.Report, error)
}

// History gives access to previous runs.
type History interface {
	Load(runID string) (*report.Report, error)
	Recent(n int) []*report.Report
}

// handler holds shared dependencies for all tool handlers.
type handler struct {
	syncer  Syncer
	history History
}

// NewServer creates an MCP server with the pullserver tools registered.
func NewServer(syncer Syncer, history History) *mcp.Server {
	h := &handler{syncer: syncer, history: history}

	s := mcp.NewServer(&mcp.Implementation{Name: "pullserver", Version: pullserver.Version}, &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	})

	mcp.AddTool(s, &mcp.Tool{
		Name: "pull_sync",
		Description: `Synchronize the working copy with its upstream (git pull) and report the outcome.

The outcome is one of: changes applied, no changes to apply, or an error carrying the command's stderr.
Full output stays available via pull_inspect using the returned run ID.`,
	}, h.syncHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "pull_inspect",
		Description: "Show the full output of a previous pull_sync run, or list recent runs when run_id is empty.",
	}, h.inspectHandler)

	return s
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
