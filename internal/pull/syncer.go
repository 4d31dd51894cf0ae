package pull

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/deixis/pullserver/internal/report"
	"github.com/deixis/pullserver/internal/runner"
	"github.com/google/uuid"
)

// Syncer runs the synchronization command against the runner's directory
// and turns each run into a report.
type Syncer struct {
	Runner *runner.Runner
	Argv   []string
	Mode   Mode

	// Heads reads the repository HEAD before and after each run. Nil
	// disables detection. The result is recorded but never changes the
	// outcome, which is decided from the command output alone.
	Heads func(dir string) (string, error)

	Store report.Store // optional; receives every report
	Echo  io.Writer    // receives the trimmed stdout of applied runs
	Log   *log.Logger  // optional

	once sync.Once
	gate *gate
}

// Sync runs the command once and classifies the result.
//
// The command is started with a context detached from ctx: once launched it
// runs to completion (or to the runner's timeout) even if the caller goes
// away. ctx only bounds the wait for the gate in Queue mode.
//
// A command that fails or cannot be launched is not an error; it yields a
// report with the Failed outcome. Sync returns an error only when the gate
// refuses the call (ErrBusy) or ctx ends while queued.
func (s *Syncer) Sync(ctx context.Context) (*report.Report, error) {
	s.once.Do(func() { s.gate = newGate(s.Mode) })

	release, err := s.gate.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rep := &report.Report{
		Started: time.Now(),
		Command: s.Argv,
	}
	rep.HeadBefore = s.readHead()

	res, err := s.Runner.Run(context.WithoutCancel(ctx), s.Argv)
	rep.Duration = time.Since(rep.Started)
	rep.HeadAfter = s.readHead()

	if err != nil {
		if !errors.Is(err, runner.ErrLaunch) {
			return nil, err
		}
		rep.ID = uuid.New().String()
		rep.ExitCode = -1
		rep.LaunchError = err.Error()
		rep.Outcome = report.Failed
		rep.Message = FailedPrefix + err.Error()
		s.save(rep)
		return rep, nil
	}

	rep.ID = res.RunID
	rep.ExitCode = res.ExitCode
	rep.Stdout = strings.TrimSpace(Decode(res.Stdout))
	rep.Stderr = strings.TrimSpace(Decode(res.Stderr))
	rep.Truncated = res.Truncated
	rep.Outcome, rep.Message = Classify(res)

	if rep.Outcome == report.Applied && s.Echo != nil {
		fmt.Fprintln(s.Echo, rep.Stdout)
	}
	s.checkHeads(rep)
	s.save(rep)
	return rep, nil
}

func (s *Syncer) readHead() string {
	if s.Heads == nil {
		return ""
	}
	hash, err := s.Heads(s.Runner.Dir)
	if err != nil {
		return ""
	}
	return hash
}

// checkHeads logs runs where the HEAD comparison contradicts the text
// classification, e.g. a localized tool whose marker text differs.
func (s *Syncer) checkHeads(rep *report.Report) {
	if !rep.HeadKnown() {
		return
	}
	switch {
	case rep.Outcome == report.NoOp && rep.HeadMoved():
		s.logf("run %s: reported up to date but HEAD moved %s..%s", rep.ID, short(rep.HeadBefore), short(rep.HeadAfter))
	case rep.Outcome == report.Applied && !rep.HeadMoved():
		s.logf("run %s: reported changes but HEAD stayed at %s", rep.ID, short(rep.HeadAfter))
	}
}

func (s *Syncer) save(rep *report.Report) {
	if s.Store == nil {
		return
	}
	if err := s.Store.Save(rep); err != nil {
		s.logf("run %s: saving report: %v", rep.ID, err)
	}
}

func (s *Syncer) logf(format string, v ...any) {
	if s.Log == nil {
		return
	}
	s.Log.Printf(format, v...)
}

func short(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
