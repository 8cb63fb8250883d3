// Package testable holds the seams lintlab uses to swap the OS for fakes in
// tests: process execution, the file system, and git.
package testable

import (
	"context"
	"os/exec"
	"time"
)

// LinterWaitDelay bounds how long Wait blocks on the linter's output pipes
// after its context is cancelled. Linters that fork helpers can otherwise
// hold stdout open past the per-rule timeout.
const LinterWaitDelay = 2 * time.Second

// CommandExecutor starts external processes. The linter invoker resolves its
// binary with LookPath and runs each lint through CommandContext.
type CommandExecutor interface {
	LookPath(file string) (string, error)
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // binary comes from tool settings
	cmd.WaitDelay = LinterWaitDelay
	return cmd
}

// DefaultExecutor returns the executor backed by os/exec.
func DefaultExecutor() CommandExecutor {
	return osExecutor{}
}
