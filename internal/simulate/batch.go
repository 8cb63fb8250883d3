// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package simulate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/davetashner/lintlab/internal/config"
)

// BatchRequest asks which of the given rules could be enabled without
// producing violations.
type BatchRequest struct {
	Disabled      []string
	OptIn         []string
	Base          *config.Config
	WorkspaceRoot string
}

// Progress is reported after each completed rule.
type Progress struct {
	Completed int
	Total     int
	RuleID    string
}

// Failure records a rule whose simulation could not complete.
type Failure struct {
	RuleID string `json:"rule_id"`
	OptIn  bool   `json:"opt_in"`
	Err    error  `json:"-"`
	Error  string `json:"error"`
}

// BatchResult is the outcome of FindSafeRules. Results are in completion
// order. When Cancelled is set, Results holds only the rules that finished
// before cancellation was observed.
type BatchResult struct {
	Results     []RuleImpactResult `json:"results"`
	Failures    []Failure          `json:"failures,omitempty"`
	Total       int                `json:"total"`
	Duration    time.Duration      `json:"duration"`
	CompletedAt time.Time          `json:"completed_at"`
	Cancelled   bool               `json:"cancelled"`
}

// SafeRules lists the rules with zero violations, in completion order.
func (b *BatchResult) SafeRules() []string {
	var ids []string
	for _, r := range b.Results {
		if r.Safe() {
			ids = append(ids, r.RuleID)
		}
	}
	return ids
}

// RulesWithViolations lists the rules with violations, most violations
// first.
func (b *BatchResult) RulesWithViolations() []RuleImpactResult {
	var out []RuleImpactResult
	for _, r := range b.Results {
		if !r.Safe() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ViolationCount > out[j].ViolationCount
	})
	return out
}

type candidate struct {
	id    string
	optIn bool
}

// candidates lists disabled ids then opt-in ids, each id once.
func (req BatchRequest) candidates() []candidate {
	seen := make(map[string]bool)
	var out []candidate
	add := func(ids []string, optIn bool) {
		for _, id := range ids {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, candidate{id: id, optIn: optIn})
		}
	}
	add(req.Disabled, false)
	add(req.OptIn, true)
	return out
}

// FindSafeRules simulates every candidate rule in turn. Cancelling ctx stops
// the loop at the next rule boundary: the rule in flight finishes, its
// result is discarded and the partial result is returned with Cancelled set
// and a nil error. A rule whose simulation fails is recorded in Failures and
// the loop moves on.
func (s *Simulator) FindSafeRules(ctx context.Context, req BatchRequest, onProgress func(Progress)) (*BatchResult, error) {
	root, err := s.resolveRoot(req.WorkspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("find safe rules: %w", err)
	}

	cands := req.candidates()
	res := &BatchResult{Total: len(cands)}
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		res.CompletedAt = time.Now()
	}()

	for i, c := range cands {
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}

		r, err := s.simulate(ctx, Request{RuleID: c.id, Base: req.Base, OptIn: c.optIn, WorkspaceRoot: root}, root)
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}
		if err != nil {
			if errors.Is(err, ErrCancelled) {
				res.Cancelled = true
				break
			}
			slog.Warn("rule simulation failed", "rule", c.id, "error", err)
			res.Failures = append(res.Failures, Failure{RuleID: c.id, OptIn: c.optIn, Err: err, Error: err.Error()})
		} else {
			res.Results = append(res.Results, *r)
		}

		if onProgress != nil {
			onProgress(Progress{Completed: i + 1, Total: len(cands), RuleID: c.id})
		}
	}

	if res.Cancelled {
		slog.Info("safe rule discovery cancelled", "completed", len(res.Results)+len(res.Failures), "total", len(cands))
	}
	return res, nil
}
