// Package runner executes a synchronization command as a subprocess and
// captures its exit status and output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/google/uuid"
)

// ErrLaunch is wrapped by errors returned from Run when the process could
// not be started at all (binary missing, directory inaccessible).
var ErrLaunch = errors.New("command could not be started")

// waitDelay bounds how long Run waits for output pipes to close once the
// process has exited or been killed. Helpers such as git-remote-https may
// otherwise hold them open.
const waitDelay = time.Second

// Runner executes commands in a fixed directory.
type Runner struct {
	Dir       string        // working directory; empty means the process working directory
	Timeout   time.Duration // zero means no deadline
	MaxOutput int           // bytes per stream; zero means unlimited
}

// Run executes a command with the given argv. The first element is the
// binary name (resolved via PATH), and the rest are arguments.
//
// A non-zero exit status is not an error: it is reported through
// Result.ExitCode. Run only fails when argv is empty or the process cannot
// be launched, in which case the error wraps ErrLaunch.
func (r *Runner) Run(ctx context.Context, argv []string) (*Result, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty argv")
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	runID := uuid.New().String()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	outw := &limitWriter{buf: &stdout, limit: r.MaxOutput}
	errw := &limitWriter{buf: &stderr, limit: r.MaxOutput}
	cmd.Stdout = outw
	cmd.Stderr = errw

	runErr := cmd.Run()

	truncated := outw.dropped || errw.dropped

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(runErr, &exitErr):
			exitCode = exitErr.ExitCode()
		case cmd.ProcessState != nil:
			// Started and waited on, but stopped by the timeout.
			exitCode = -1
		default:
			return nil, fmt.Errorf("%w: executing %s: %w", ErrLaunch, argv[0], runErr)
		}
	}

	return &Result{
		RunID:     runID,
		ExitCode:  exitCode,
		Stdout:    stdout.Bytes(),
		Stderr:    stderr.Bytes(),
		Truncated: truncated,
	}, nil
}

// limitWriter writes up to limit bytes to buf, then silently discards the
// rest. A limit <= 0 means unlimited.
type limitWriter struct {
	buf     *bytes.Buffer
	limit   int
	dropped bool // set once any byte was discarded
}

func (w *limitWriter) Write(p []byte) (int, error) {
	if w.limit <= 0 {
		return w.buf.Write(p)
	}
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		if len(p) > 0 {
			w.dropped = true
		}
		return len(p), nil // discard
	}
	if len(p) > remaining {
		// Report all bytes as consumed to avoid short write errors from io.Copy.
		w.buf.Write(p[:remaining])
		w.dropped = true
		return len(p), nil
	}
	return w.buf.Write(p)
}
