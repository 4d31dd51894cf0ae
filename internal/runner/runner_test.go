package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	return &Runner{
		Dir:     t.TempDir(),
		Timeout: 10 * time.Second,
	}
}

func TestRun_Success(t *testing.T) {
	r := newTestRunner(t)
	res, err := r.Run(context.Background(), []string{"echo", "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success() {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if !strings.Contains(string(res.Stdout), "hello") {
		t.Errorf("Stdout = %q, want to contain 'hello'", res.Stdout)
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	r := newTestRunner(t)
	res, err := r.Run(context.Background(), []string{"sh", "-c", "echo boom >&2; exit 3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if res.Success() {
		t.Error("Success() = true, want false")
	}
	if strings.TrimSpace(string(res.Stderr)) != "boom" {
		t.Errorf("Stderr = %q, want %q", res.Stderr, "boom\n")
	}
}

func TestRun_BinaryNotFound(t *testing.T) {
	r := newTestRunner(t)
	_, err := r.Run(context.Background(), []string{"nonexistent-binary-xyz-123"})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if !errors.Is(err, ErrLaunch) {
		t.Errorf("error = %v, want it to wrap ErrLaunch", err)
	}
	if !strings.Contains(err.Error(), "nonexistent-binary-xyz-123") {
		t.Errorf("error = %q, want to mention the binary name", err)
	}
}

func TestRun_MissingDirectory(t *testing.T) {
	r := newTestRunner(t)
	r.Dir = filepath.Join(r.Dir, "does-not-exist")
	_, err := r.Run(context.Background(), []string{"echo"})
	if !errors.Is(err, ErrLaunch) {
		t.Fatalf("error = %v, want it to wrap ErrLaunch", err)
	}
}

func TestRun_EmptyArgv(t *testing.T) {
	r := newTestRunner(t)
	_, err := r.Run(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for empty argv")
	}
}

func TestRun_Dir(t *testing.T) {
	r := newTestRunner(t)
	sub := filepath.Join(r.Dir, "subdir")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	r.Dir = sub
	res, err := r.Run(context.Background(), []string{"pwd"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(res.Stdout), "subdir") {
		t.Errorf("Stdout = %q, want to contain 'subdir'", res.Stdout)
	}
}

func TestRun_Timeout(t *testing.T) {
	r := newTestRunner(t)
	r.Timeout = 100 * time.Millisecond

	start := time.Now()
	res, err := r.Run(context.Background(), []string{"sleep", "10"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// exec.CommandContext kills the process, which surfaces as an ExitError.
	if res.Success() {
		t.Error("Success() = true after timeout, want false")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Run took %s, want the timeout to stop it", elapsed)
	}
}

func TestRun_TimeoutKillsChildHoldingPipes(t *testing.T) {
	r := newTestRunner(t)
	r.Timeout = 200 * time.Millisecond

	// sh forks sleep, which inherits stdout and keeps it open after sh dies.
	start := time.Now()
	res, err := r.Run(context.Background(), []string{"sh", "-c", "sleep 3; echo done"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Run took %s, want it to return shortly after the 200ms timeout", elapsed)
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", res.ExitCode)
	}
	if strings.Contains(string(res.Stdout), "done") {
		t.Errorf("Stdout = %q, want the command cut short", res.Stdout)
	}
}

func TestRun_NoLimitByDefault(t *testing.T) {
	r := newTestRunner(t)
	res, err := r.Run(context.Background(), []string{"sh", "-c", "dd if=/dev/zero bs=4096 count=4 2>/dev/null"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Truncated {
		t.Error("Truncated = true, want false")
	}
	if len(res.Stdout) != 4*4096 {
		t.Errorf("len(Stdout) = %d, want %d", len(res.Stdout), 4*4096)
	}
}

func TestRun_OutputTruncation(t *testing.T) {
	r := newTestRunner(t)
	r.MaxOutput = 100 // very small cap

	res, err := r.Run(context.Background(), []string{"sh", "-c", "dd if=/dev/zero bs=200 count=1 2>/dev/null"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Truncated {
		t.Error("Truncated = false, want true")
	}
	if len(res.Stdout) > r.MaxOutput {
		t.Errorf("len(Stdout) = %d, want <= %d", len(res.Stdout), r.MaxOutput)
	}
}

func TestRun_OutputExactlyAtLimit(t *testing.T) {
	r := newTestRunner(t)
	r.MaxOutput = 5

	res, err := r.Run(context.Background(), []string{"printf", "abcde"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Stdout) != "abcde" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "abcde")
	}
	if res.Truncated {
		t.Error("Truncated = true for output that fits the cap, want false")
	}
}
