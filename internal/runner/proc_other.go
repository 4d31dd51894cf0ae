//go:build !unix

package runner

import "os/exec"

// killProcessGroup is a no-op; cancellation kills the direct child only and
// WaitDelay bounds the wait for its helpers.
func killProcessGroup(cmd *exec.Cmd) {}
