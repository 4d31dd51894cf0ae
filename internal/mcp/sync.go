package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/deixis/pullserver/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type syncParams struct{}

func (h *handler) syncHandler(ctx context.Context, req *mcp.CallToolRequest, _ syncParams) (*mcp.CallToolResult, any, error) {
	rep, err := h.syncer.Sync(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("sync failed: %v", err))
	}

	text := formatSync(rep)
	if rep.Outcome == report.Failed {
		return errorResult(text)
	}
	return textResult(text)
}

func formatSync(rep *report.Report) string {
	var b strings.Builder

	fmt.Fprintln(&b, rep.Message)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Run: %s\n", rep.ID)
	fmt.Fprintf(&b, "Outcome: %s\n", rep.Outcome)
	if rep.LaunchError == "" {
		fmt.Fprintf(&b, "Exit code: %d\n", rep.ExitCode)
	}
	switch {
	case rep.HeadMoved():
		fmt.Fprintf(&b, "HEAD: %s..%s\n", rep.HeadBefore, rep.HeadAfter)
	case rep.HeadKnown():
		fmt.Fprintf(&b, "HEAD: %s (unchanged)\n", rep.HeadAfter)
	}
	fmt.Fprintf(&b, "\nInspect with pull_inspect(run_id=%q).\n", rep.ID)

	return b.String()
}
