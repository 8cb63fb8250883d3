// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

// Package simulate answers "what would change if rule X were enabled?" by
// linting the workspace with a throwaway variant of its configuration. The
// live configuration file is never read or written here.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/davetashner/lintlab/internal/config"
	"github.com/davetashner/lintlab/internal/finding"
	"github.com/davetashner/lintlab/internal/linter"
	"github.com/davetashner/lintlab/internal/testable"
)

// DefaultPreviewLimit caps the findings kept on a result.
const DefaultPreviewLimit = 50

// ErrCancelled is returned when a simulation is cancelled before it starts.
var ErrCancelled = errors.New("simulation cancelled")

// Options configures a Simulator.
type Options struct {
	// Defaults supplies the exclusions merged into every variant.
	Defaults config.Defaults
	// TempDir holds variant files. Empty means os.TempDir().
	TempDir string
	// PreviewLimit caps RuleImpactResult.Findings. Zero means
	// DefaultPreviewLimit; negative keeps everything.
	PreviewLimit int
	// RuleTimeout bounds each linter run. Zero means no bound.
	RuleTimeout time.Duration
	FS          testable.FileSystem
}

// Request asks for the impact of enabling one rule.
type Request struct {
	RuleID        string
	Base          *config.Config
	OptIn         bool
	WorkspaceRoot string
}

// RuleImpactResult is the outcome of one simulation.
type RuleImpactResult struct {
	RuleID         string            `json:"rule_id"`
	OptIn          bool              `json:"opt_in"`
	ViolationCount int               `json:"violation_count"`
	Findings       []finding.Finding `json:"findings,omitempty"`
	AffectedFiles  []string          `json:"affected_files,omitempty"`
	Duration       time.Duration     `json:"duration"`
}

// Safe reports whether enabling the rule produces no violations.
func (r *RuleImpactResult) Safe() bool { return r.ViolationCount == 0 }

// Simulator runs simulations, at most one at a time per workspace root.
type Simulator struct {
	linter linter.Linter
	opts   Options

	mu    sync.Mutex
	roots map[string]*semaphore.Weighted
}

// New returns a Simulator that lints through l.
func New(l linter.Linter, opts Options) *Simulator {
	if opts.FS == nil {
		opts.FS = testable.DefaultFS
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.PreviewLimit == 0 {
		opts.PreviewLimit = DefaultPreviewLimit
	}
	return &Simulator{linter: l, opts: opts, roots: make(map[string]*semaphore.Weighted)}
}

func (s *Simulator) rootSem(root string) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()
	sem, ok := s.roots[root]
	if !ok {
		sem = semaphore.NewWeighted(1)
		s.roots[root] = sem
	}
	return sem
}

func (s *Simulator) resolveRoot(root string) (string, error) {
	if root == "" {
		return "", errors.New("workspace root is required")
	}
	abs, err := s.opts.FS.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve workspace %s: %w", root, err)
	}
	return abs, nil
}

// Simulate lints the workspace with req.RuleID enabled on top of req.Base.
// Callers for the same workspace queue behind each other. Once started, the
// linter run is not interrupted by ctx; RuleTimeout still applies.
func (s *Simulator) Simulate(ctx context.Context, req Request) (*RuleImpactResult, error) {
	if ctx.Err() != nil {
		return nil, ErrCancelled
	}
	if req.RuleID == "" {
		return nil, errors.New("simulate: rule id is required")
	}
	root, err := s.resolveRoot(req.WorkspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("simulate %s: %w", req.RuleID, err)
	}
	return s.simulate(ctx, req, root)
}

func (s *Simulator) simulate(ctx context.Context, req Request, root string) (*RuleImpactResult, error) {
	sem := s.rootSem(root)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, ErrCancelled
	}
	defer sem.Release(1)

	start := time.Now()
	variant, err := s.variant(req, root)
	if err != nil {
		return nil, fmt.Errorf("simulate %s: %w", req.RuleID, err)
	}

	path, err := s.writeVariant(variant)
	if err != nil {
		return nil, fmt.Errorf("simulate %s: %w", req.RuleID, err)
	}
	defer s.removeVariant(path)

	lintCtx := context.WithoutCancel(ctx)
	if s.opts.RuleTimeout > 0 {
		var cancel context.CancelFunc
		lintCtx, cancel = context.WithTimeout(lintCtx, s.opts.RuleTimeout)
		defer cancel()
	}

	findings, err := s.linter.Lint(lintCtx, path, root)
	if err != nil {
		return nil, fmt.Errorf("simulate %s: %w", req.RuleID, err)
	}

	matched := finding.FilterRule(findings, req.RuleID)
	finding.Sort(matched)
	res := &RuleImpactResult{
		RuleID:         req.RuleID,
		OptIn:          req.OptIn,
		ViolationCount: len(matched),
		AffectedFiles:  finding.Files(matched),
		Findings:       matched,
		Duration:       time.Since(start),
	}
	if limit := s.opts.PreviewLimit; limit > 0 && len(res.Findings) > limit {
		res.Findings = res.Findings[:limit]
	}
	slog.Debug("rule simulated", "rule", req.RuleID, "opt_in", req.OptIn,
		"violations", res.ViolationCount, "duration", res.Duration)
	return res, nil
}

// variant is req.Base with the rule enabled, default exclusions added and
// relative paths anchored at root, since the variant file lives elsewhere.
func (s *Simulator) variant(req Request, root string) (*config.Config, error) {
	base := req.Base
	if base == nil {
		base = &config.Config{}
	}
	v, err := config.SetEnabled(base, req.RuleID, true, req.OptIn)
	if err != nil {
		return nil, err
	}

	excluded := append([]string(nil), v.Excluded...)
	for _, e := range s.opts.Defaults.Excluded() {
		if !containsString(excluded, e) {
			excluded = append(excluded, e)
		}
	}
	v.Included = anchor(root, v.Included)
	v.Excluded = anchor(root, excluded)
	return v, nil
}

func (s *Simulator) writeVariant(cfg *config.Config) (string, error) {
	text, err := config.Canonical(cfg)
	if err != nil {
		return "", fmt.Errorf("render variant: %w", err)
	}
	f, err := s.opts.FS.CreateTemp(s.opts.TempDir, "lintlab-variant-*.yml")
	if err != nil {
		return "", fmt.Errorf("create variant: %w", err)
	}
	name := f.Name()
	_, werr := f.Write(text)
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		s.removeVariant(name)
		return "", fmt.Errorf("write variant: %w", werr)
	}
	return name, nil
}

func (s *Simulator) removeVariant(path string) {
	if err := s.opts.FS.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove variant config", "path", path, "error", err)
	}
}

func anchor(root string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) {
			out[i] = p
		} else {
			out[i] = filepath.Join(root, p)
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
