package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deixis/pullserver/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// recentRuns is the number of runs listed by pull_inspect without a run ID.
const recentRuns = 10

type inspectParams struct {
	RunID string `json:"run_id,omitempty" jsonschema:"the run ID from a pull_sync result; empty lists recent runs"`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return textResult(formatRecent(h.history.Recent(recentRuns)))
	}

	rep, err := h.history.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}
	return textResult(formatInspect(rep))
}

func formatRecent(reps []*report.Report) string {
	if len(reps) == 0 {
		return "No runs recorded yet.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent runs (%d):\n", len(reps))
	for _, r := range reps {
		fmt.Fprintf(&b, "  %s  %s  %-7s  %s\n", r.ID, r.Started.Format(time.RFC3339), r.Outcome, firstLine(r.Message))
	}
	return b.String()
}

func formatInspect(rep *report.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s (%s)\n", rep.ID, rep.Outcome)
	fmt.Fprintf(&b, "Command: %s\n", strings.Join(rep.Command, " "))
	fmt.Fprintf(&b, "Started: %s (took %s)\n", rep.Started.Format(time.RFC3339), rep.Duration.Round(time.Millisecond))
	if rep.LaunchError != "" {
		fmt.Fprintf(&b, "Launch error: %s\n", rep.LaunchError)
	} else {
		fmt.Fprintf(&b, "Exit code: %d\n", rep.ExitCode)
	}
	if rep.HeadKnown() {
		fmt.Fprintf(&b, "HEAD before: %s\nHEAD after:  %s\n", rep.HeadBefore, rep.HeadAfter)
	}
	if rep.Truncated {
		fmt.Fprintln(&b, "Output was truncated.")
	}

	writeBlock(&b, "Stdout", rep.Stdout)
	writeBlock(&b, "Stderr", rep.Stderr)

	return b.String()
}

func writeBlock(b *strings.Builder, title, text string) {
	if text == "" {
		return
	}
	fmt.Fprintln(b)
	fmt.Fprintf(b, "%s:\n", title)
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(b, "    %s\n", line)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
