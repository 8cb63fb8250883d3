// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package simulate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/lintlab/internal/finding"
	"github.com/davetashner/lintlab/internal/linter"
)

func TestFindSafeRules_Classification(t *testing.T) {
	fx := newFixture(t)
	l := &fakeLinter{world: []finding.Finding{
		hit("ruleB", "a.swift", 1), hit("ruleB", "a.swift", 2), hit("ruleB", "b.swift", 1),
	}}

	var progress []Progress
	res, err := fx.simulator(l).FindSafeRules(context.Background(), BatchRequest{
		Disabled:      []string{"ruleA", "ruleB"},
		Base:          fx.base,
		WorkspaceRoot: fx.root,
	}, func(p Progress) { progress = append(progress, p) })
	require.NoError(t, err)

	assert.False(t, res.Cancelled)
	assert.Equal(t, []string{"ruleA"}, res.SafeRules())
	withViolations := res.RulesWithViolations()
	require.Len(t, withViolations, 1)
	assert.Equal(t, "ruleB", withViolations[0].RuleID)
	assert.Equal(t, 3, withViolations[0].ViolationCount)
	assert.Equal(t, []Progress{{1, 2, "ruleA"}, {2, 2, "ruleB"}}, progress)
	assert.False(t, res.CompletedAt.IsZero())
	fx.assertPure(t)
}

func TestFindSafeRules_CandidateOrder(t *testing.T) {
	fx := newFixture(t)
	l := &fakeLinter{}

	res, err := fx.simulator(l).FindSafeRules(context.Background(), BatchRequest{
		Disabled:      []string{"b", "a", "b"},
		OptIn:         []string{"c", "a"},
		Base:          fx.base,
		WorkspaceRoot: fx.root,
	}, nil)
	require.NoError(t, err)

	var order []string
	var optIn []bool
	for _, r := range res.Results {
		order = append(order, r.RuleID)
		optIn = append(optIn, r.OptIn)
	}
	assert.Equal(t, []string{"b", "a", "c"}, order)
	assert.Equal(t, []bool{false, false, true}, optIn)
	assert.Equal(t, 3, res.Total)
}

func TestFindSafeRules_CancelAfterFirst(t *testing.T) {
	fx := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := &fakeLinter{}

	res, err := fx.simulator(l).FindSafeRules(ctx, BatchRequest{
		Disabled:      []string{"r1", "r2", "r3", "r4", "r5"},
		Base:          fx.base,
		WorkspaceRoot: fx.root,
	}, func(p Progress) {
		if p.Completed == 1 {
			cancel()
		}
	})
	require.NoError(t, err)

	assert.True(t, res.Cancelled)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "r1", res.Results[0].RuleID)
	assert.Equal(t, 1, l.calls)
	fx.assertPure(t)
}

func TestFindSafeRules_CancelDuringRuleDiscardsIt(t *testing.T) {
	fx := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := &fakeLinter{during: func(call int) {
		if call == 2 {
			cancel()
		}
	}}

	res, err := fx.simulator(l).FindSafeRules(ctx, BatchRequest{
		Disabled:      []string{"r1", "r2", "r3"},
		Base:          fx.base,
		WorkspaceRoot: fx.root,
	}, nil)
	require.NoError(t, err)

	assert.True(t, res.Cancelled)
	require.Len(t, res.Results, 1)
	assert.Equal(t, 2, l.calls, "the in-flight rule runs to completion")
	assert.NoError(t, l.ctxErrs[1])
	fx.assertPure(t)
}

func TestFindSafeRules_FailuresAreRecorded(t *testing.T) {
	fx := newFixture(t)
	l := &fakeLinter{failCall: 2}

	res, err := fx.simulator(l).FindSafeRules(context.Background(), BatchRequest{
		Disabled:      []string{"r1", "r2", "r3"},
		Base:          fx.base,
		WorkspaceRoot: fx.root,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"r1", "r3"}, res.SafeRules())
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "r2", res.Failures[0].RuleID)
	var invErr *linter.InvokerError
	assert.True(t, errors.As(res.Failures[0].Err, &invErr))
	assert.NotEmpty(t, res.Failures[0].Error)
}

func TestFindSafeRules_RuleTimeout(t *testing.T) {
	fx := newFixture(t)
	l := &fakeLinter{block: true}
	s := New(l, Options{TempDir: fx.tmp, RuleTimeout: 10 * time.Millisecond})

	res, err := s.FindSafeRules(context.Background(), BatchRequest{
		OptIn:         []string{"x", "y"},
		Base:          fx.base,
		WorkspaceRoot: fx.root,
	}, nil)
	require.NoError(t, err)

	assert.Empty(t, res.Results)
	require.Len(t, res.Failures, 2)
	assert.ErrorIs(t, res.Failures[0].Err, context.DeadlineExceeded)
	assert.True(t, res.Failures[0].OptIn)
}

func TestBatchResult_RulesWithViolationsOrder(t *testing.T) {
	b := &BatchResult{Results: []RuleImpactResult{
		{RuleID: "a", ViolationCount: 1},
		{RuleID: "b", ViolationCount: 0},
		{RuleID: "c", ViolationCount: 5},
		{RuleID: "d", ViolationCount: 1},
	}}
	var ids []string
	for _, r := range b.RulesWithViolations() {
		ids = append(ids, r.RuleID)
	}
	assert.Equal(t, []string{"c", "a", "d"}, ids)
	assert.Equal(t, []string{"b"}, b.SafeRules())
}

func TestFindSafeRules_MissingRoot(t *testing.T) {
	s := New(&fakeLinter{}, Options{})
	_, err := s.FindSafeRules(context.Background(), BatchRequest{Disabled: []string{"a"}}, nil)
	assert.Error(t, err)
}
