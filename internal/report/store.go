// Package report describes the outcome of a synchronization run and keeps
// recent runs in memory for later inspection.
package report

import (
	"errors"
	"time"
)

// Kind classifies the outcome of a synchronization run.
type Kind string

const (
	// Applied means the command succeeded and reported new changes.
	Applied Kind = "applied"
	// NoOp means the command succeeded and the working copy was already up to date.
	NoOp Kind = "noop"
	// Failed means the command exited unsuccessfully or could not be started.
	Failed Kind = "failed"
)

// ErrNotFound is returned by Store.Load for unknown run IDs.
var ErrNotFound = errors.New("run not found")

// Store persists and retrieves reports.
type Store interface {
	Save(r *Report) error
	Load(runID string) (*Report, error)
}

// Report holds the result of one synchronization run.
type Report struct {
	ID       string        `json:"id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Command  []string      `json:"command"`

	ExitCode  int    `json:"exit_code"`
	Stdout    string `json:"stdout,omitempty"` // decoded and trimmed
	Stderr    string `json:"stderr,omitempty"` // decoded and trimmed
	Truncated bool   `json:"truncated,omitempty"`

	// LaunchError is set when the command could not be started.
	LaunchError string `json:"launch_error,omitempty"`

	Outcome Kind   `json:"outcome"`
	Message string `json:"message"` // response body

	// HEAD of the enclosing repository before and after the run. Empty when
	// the working directory is not a git repository or detection is off.
	HeadBefore string `json:"head_before,omitempty"`
	HeadAfter  string `json:"head_after,omitempty"`
}

// HeadKnown reports whether both HEAD hashes were recorded.
func (r *Report) HeadKnown() bool {
	return r.HeadBefore != "" && r.HeadAfter != ""
}

// HeadMoved reports whether the repository HEAD changed during the run.
// It is false when either hash is unknown.
func (r *Report) HeadMoved() bool {
	return r.HeadKnown() && r.HeadBefore != r.HeadAfter
}
