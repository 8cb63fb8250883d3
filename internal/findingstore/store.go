// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

// Package findingstore keeps the findings of past lint runs per workspace,
// tracking which are open, suppressed or resolved.
package findingstore

import (
	"context"
	"errors"
	"time"

	"github.com/davetashner/lintlab/internal/finding"
)

// Status is the lifecycle state of a stored finding.
type Status string

const (
	StatusOpen       Status = "open"
	StatusSuppressed Status = "suppressed"
	StatusResolved   Status = "resolved"
)

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusSuppressed, StatusResolved:
		return Status(s), nil
	default:
		return "", errors.New("unknown status " + s + " (want open, suppressed or resolved)")
	}
}

// ErrNotFound is returned for an unknown record id.
var ErrNotFound = errors.New("finding not found")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("finding store closed")

// Record is a stored finding.
type Record struct {
	ID             string          `json:"id"`
	WorkspaceID    string          `json:"workspace_id"`
	Fingerprint    string          `json:"fingerprint"`
	Finding        finding.Finding `json:"finding"`
	Status         Status          `json:"status"`
	SuppressReason string          `json:"suppress_reason,omitempty"`
	FirstSeen      time.Time       `json:"first_seen"`
	LastSeen       time.Time       `json:"last_seen"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
	GitHead        string          `json:"git_head,omitempty"`
}

// Meta describes the lint run a batch of findings came from.
type Meta struct {
	GitHead    string
	ConfigPath string
	At         time.Time
}

// Filter selects records. Zero fields match everything.
type Filter struct {
	WorkspaceID string
	RuleID      string
	File        string
	Status      Status
	Limit       int
}

func (f Filter) match(r *Record) bool {
	switch {
	case f.WorkspaceID != "" && r.WorkspaceID != f.WorkspaceID:
		return false
	case f.RuleID != "" && r.Finding.RuleID != f.RuleID:
		return false
	case f.File != "" && r.Finding.File != f.File:
		return false
	case f.Status != "" && r.Status != f.Status:
		return false
	}
	return true
}

// Store persists findings. Writes are serialized; reads may run
// concurrently with them.
type Store interface {
	// Store records the complete set of findings of one lint run. Known
	// findings keep their id and suppression; open findings of the
	// workspace that are missing from the batch become resolved.
	Store(ctx context.Context, workspaceID string, findings []finding.Finding, meta Meta) error
	Query(ctx context.Context, filter Filter) ([]Record, error)
	Suppress(ctx context.Context, id, reason string) error
	MarkResolved(ctx context.Context, id string) error
	Close() error
}
