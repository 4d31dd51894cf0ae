// Package pull runs the synchronization command and classifies its outcome.
package pull

import (
	"strings"

	"github.com/deixis/pullserver/internal/report"
	"github.com/deixis/pullserver/internal/runner"
)

// Marker is the text the synchronization tool prints when there is nothing
// to pull.
const Marker = "Already up to date."

// Response bodies, one per outcome.
const (
	AppliedPrefix = "Changes applied: "
	NoOpMessage   = "No changes to apply"
	FailedPrefix  = "Error applying changes: "
)

// Decode converts raw process output to text. Invalid UTF-8 sequences are
// replaced with U+FFFD.
func Decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

// Classify decides the outcome of a finished command and the message that
// describes it. Checks run in order: a non-zero exit is a failure whatever
// stdout says, then the marker in the trimmed stdout means nothing changed,
// otherwise the changes were applied.
func Classify(res *runner.Result) (report.Kind, string) {
	stdout := strings.TrimSpace(Decode(res.Stdout))
	stderr := strings.TrimSpace(Decode(res.Stderr))

	switch {
	case !res.Success():
		return report.Failed, FailedPrefix + stderr
	case strings.Contains(stdout, Marker):
		return report.NoOp, NoOpMessage
	default:
		return report.Applied, AppliedPrefix + stdout
	}
}
