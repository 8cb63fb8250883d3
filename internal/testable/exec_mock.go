package testable

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// MockCommandExecutor is a test double for CommandExecutor.
// It can simulate a missing binary, failing commands, exit codes and
// predetermined outputs.
type MockCommandExecutor struct {
	// LookPathErr, when non-nil, is returned by LookPath for any file.
	LookPathErr error

	// LookPathResult is returned as the path when LookPathErr is nil.
	// When empty, LookPath echoes the requested file name.
	LookPathResult string

	// CommandOutputs maps a command key (e.g., "swiftlint lint --quiet") to
	// the stdout that the resulting exec.Cmd should produce. The key is built
	// from the command name and all arguments joined by spaces.
	CommandOutputs map[string]string

	// CommandExitCodes maps a command key to the exit status of the resulting
	// exec.Cmd. Output from CommandOutputs is still written.
	CommandExitCodes map[string]int

	// CommandErrors maps a command key to an error message. When set, the
	// resulting exec.Cmd will fail with that message written to stderr.
	CommandErrors map[string]string

	// DefaultOutput is returned when no key matches in CommandOutputs.
	DefaultOutput string

	// DefaultExitCode is the exit status for unmatched commands.
	DefaultExitCode int

	// DefaultError, when non-empty, makes every unmatched command fail.
	DefaultError string

	mu sync.Mutex
	// Calls records the command keys that were invoked, for assertion purposes.
	Calls []string
	cmds  []*exec.Cmd
}

// LookPath returns the configured result or error.
func (m *MockCommandExecutor) LookPath(file string) (string, error) {
	if m.LookPathErr != nil {
		return "", m.LookPathErr
	}
	if m.LookPathResult != "" {
		return m.LookPathResult, nil
	}
	return file, nil
}

// CommandContext returns an *exec.Cmd that, when executed, produces the
// pre-configured output, exit code or error. It runs small sh scripts to
// simulate the behaviour without the real binary.
func (m *MockCommandExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	key := name + " " + strings.Join(args, " ")

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, key)

	var script string
	if errMsg, ok := m.CommandErrors[key]; ok {
		script = fmt.Sprintf("echo %q >&2; exit 1", errMsg)
	} else if out, ok := m.CommandOutputs[key]; ok {
		script = fmt.Sprintf("printf '%%s' %q; exit %d", out, m.exitCode(key))
	} else if m.DefaultError != "" {
		script = fmt.Sprintf("echo %q >&2; exit 1", m.DefaultError)
	} else {
		script = fmt.Sprintf("printf '%%s' %q; exit %d", m.DefaultOutput, m.exitCode(key))
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", script) //nolint:gosec // test helper
	m.cmds = append(m.cmds, cmd)
	return cmd
}

func (m *MockCommandExecutor) exitCode(key string) int {
	if code, ok := m.CommandExitCodes[key]; ok {
		return code
	}
	return m.DefaultExitCode
}

// RecordedDirs returns the working directory set on each command returned
// so far, in call order.
func (m *MockCommandExecutor) RecordedDirs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	dirs := make([]string, len(m.cmds))
	for i, c := range m.cmds {
		dirs[i] = c.Dir
	}
	return dirs
}

// Compile-time interface check.
var _ CommandExecutor = (*MockCommandExecutor)(nil)
