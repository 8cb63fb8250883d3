// Package linter runs the external lint tool against a configuration file
// and parses its JSON reporter output into findings.
package linter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/davetashner/lintlab/internal/finding"
	"github.com/davetashner/lintlab/internal/testable"
)

// Linter produces findings for a workspace under a given configuration file.
type Linter interface {
	Lint(ctx context.Context, configPath, workspaceRoot string) ([]finding.Finding, error)
}

// ErrorKind classifies invoker failures.
type ErrorKind string

const (
	KindBinaryMissing     ErrorKind = "binary-missing"
	KindNonZeroExit       ErrorKind = "non-zero-exit"
	KindUnparseableOutput ErrorKind = "unparseable-output"
)

// InvokerError is returned when the lint tool could not produce findings.
type InvokerError struct {
	Kind     ErrorKind
	Binary   string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *InvokerError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "lint %s: %s", e.Binary, e.Kind)
	if e.Kind == KindNonZeroExit {
		fmt.Fprintf(&b, " (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		fmt.Fprintf(&b, ": %s", firstLine(s))
	}
	return b.String()
}

func (e *InvokerError) Unwrap() error { return e.Err }

// Invoker runs the lint binary. The zero value is not usable; use New.
type Invoker struct {
	Binary string
	// ExtraArgs are appended after the standard arguments.
	ExtraArgs []string
	// ViolationExitCodes are exit statuses that mean "ran fine, found
	// violations". Exit status 0 is always accepted.
	ViolationExitCodes []int
	Exec               testable.CommandExecutor
}

// New returns an Invoker for binary. A nil executor runs real processes.
func New(binary string, violationExitCodes []int, exec testable.CommandExecutor) *Invoker {
	if exec == nil {
		exec = testable.DefaultExecutor()
	}
	return &Invoker{
		Binary:             binary,
		ViolationExitCodes: violationExitCodes,
		Exec:               exec,
	}
}

// Args returns the command-line arguments used for configPath.
func (inv *Invoker) Args(configPath string) []string {
	args := []string{"lint", "--config", configPath, "--reporter", "json", "--quiet"}
	return append(args, inv.ExtraArgs...)
}

// Lint runs the tool in workspaceRoot with configPath and returns its
// findings. File paths under workspaceRoot are made relative to it.
func (inv *Invoker) Lint(ctx context.Context, configPath, workspaceRoot string) ([]finding.Finding, error) {
	bin, err := inv.Exec.LookPath(inv.Binary)
	if err != nil {
		return nil, &InvokerError{Kind: KindBinaryMissing, Binary: inv.Binary, Err: err}
	}

	start := time.Now()
	cmd := inv.Exec.CommandContext(ctx, bin, inv.Args(configPath)...)
	cmd.Dir = workspaceRoot
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("lint %s: %w", inv.Binary, ctxErr)
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, &InvokerError{Kind: KindBinaryMissing, Binary: inv.Binary, Err: runErr}
		}
		code := exitErr.ExitCode()
		if !slices.Contains(inv.ViolationExitCodes, code) {
			return nil, &InvokerError{Kind: KindNonZeroExit, Binary: inv.Binary, ExitCode: code, Stderr: stderr.String()}
		}
	}

	findings, err := Parse(stdout.Bytes(), workspaceRoot)
	if err != nil {
		return nil, &InvokerError{Kind: KindUnparseableOutput, Binary: inv.Binary, Stderr: stderr.String(), Err: err}
	}
	slog.Debug("lint finished", "binary", inv.Binary, "config", configPath,
		"findings", len(findings), "duration", time.Since(start))
	return findings, nil
}

// violation is one entry of the JSON reporter output.
type violation struct {
	Character *int   `json:"character"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Reason    string `json:"reason"`
	RuleID    string `json:"rule_id"`
	Severity  string `json:"severity"`
	Type      string `json:"type"`
}

// Parse decodes JSON reporter output. Empty output means no findings.
func Parse(data []byte, workspaceRoot string) ([]finding.Finding, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var raw []violation
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode reporter output: %w", err)
	}

	findings := make([]finding.Finding, 0, len(raw))
	for i, v := range raw {
		if v.RuleID == "" {
			return nil, fmt.Errorf("violation %d: missing rule_id", i)
		}
		sev, err := finding.ParseSeverity(v.Severity)
		if err != nil {
			return nil, fmt.Errorf("violation %d (%s): %w", i, v.RuleID, err)
		}
		f := finding.Finding{
			RuleID:   v.RuleID,
			RuleName: v.Type,
			File:     relativeTo(workspaceRoot, v.File),
			Line:     v.Line,
			Severity: sev,
			Message:  v.Reason,
		}
		if v.Character != nil {
			f.Column = *v.Character
		}
		findings = append(findings, f)
	}
	return findings, nil
}

func relativeTo(root, file string) string {
	if root == "" || !filepath.IsAbs(file) {
		return file
	}
	rel, err := filepath.Rel(root, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return file
	}
	return rel
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Compile-time interface check.
var _ Linter = (*Invoker)(nil)
