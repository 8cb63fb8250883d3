// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

// Package config models the linter's YAML configuration file. It parses the
// file into typed values, applies pure mutations and writes it back without
// disturbing comments or key order of the parts that did not change.
package config

import (
	"sort"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"

	"github.com/davetashner/lintlab/internal/finding"
)

// DefaultFileName is the configuration file looked up in a workspace root.
const DefaultFileName = ".swiftlint.yml"

// Top-level keys understood by this package, in canonical output order.
const (
	KeyDisabledRules = "disabled_rules"
	KeyOptInRules    = "opt_in_rules"
	KeyIncluded      = "included"
	KeyExcluded      = "excluded"
	KeyReporter      = "reporter"
	KeyRules         = "rules"
)

var canonicalKeys = []string{
	KeyDisabledRules,
	KeyOptInRules,
	KeyIncluded,
	KeyExcluded,
	KeyReporter,
	KeyRules,
}

func isKnownKey(key string) bool {
	for _, k := range canonicalKeys {
		if k == key {
			return true
		}
	}
	return false
}

// RuleSettings holds the per-rule entry under the rules mapping.
type RuleSettings struct {
	Enabled    *bool
	Severity   finding.Severity
	Parameters map[string]any
}

// IsZero reports whether the settings carry no values at all.
func (s RuleSettings) IsZero() bool {
	return s.Enabled == nil && s.Severity == "" && len(s.Parameters) == 0
}

func (s RuleSettings) clone() RuleSettings {
	out := RuleSettings{Severity: s.Severity}
	if s.Enabled != nil {
		v := *s.Enabled
		out.Enabled = &v
	}
	if s.Parameters != nil {
		out.Parameters = cloneValue(s.Parameters).(map[string]any)
	}
	return out
}

// ExtraKey is a top-level key this package does not interpret. Its value is
// kept as a YAML node and written back unchanged.
type ExtraKey struct {
	Key   string
	Value *yaml.Node
}

// Config is the typed form of the configuration file.
//
// A rule id never appears in both DisabledRules and OptInRules after a
// successful mutation.
type Config struct {
	DisabledRules []string
	OptInRules    []string
	Included      []string
	Excluded      []string
	Reporter      string
	Rules         map[string]RuleSettings
	Extra         []ExtraKey
}

// Clone returns a deep copy. Extra nodes are shared; they are never mutated.
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}
	out := &Config{
		DisabledRules: cloneStrings(c.DisabledRules),
		OptInRules:    cloneStrings(c.OptInRules),
		Included:      cloneStrings(c.Included),
		Excluded:      cloneStrings(c.Excluded),
		Reporter:      c.Reporter,
	}
	if c.Rules != nil {
		out.Rules = make(map[string]RuleSettings, len(c.Rules))
		for id, rs := range c.Rules {
			out.Rules[id] = rs.clone()
		}
	}
	if c.Extra != nil {
		out.Extra = append([]ExtraKey(nil), c.Extra...)
	}
	return out
}

// Equal reports whether two configs are semantically equal. Empty and nil
// collections compare equal; unknown keys compare by their rendered YAML.
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	// Compare values: on *Config cmp would call this method again.
	return cmp.Equal(*c, *other, compareOpts...)
}

var compareOpts = []cmp.Option{
	cmpopts.EquateEmpty(),
	cmp.Comparer(func(a, b *yaml.Node) bool {
		return nodeText(a) == nodeText(b)
	}),
}

// RuleIDs returns the sorted union of disabled, opt-in and configured rules.
func (c *Config) RuleIDs() []string {
	seen := make(map[string]struct{})
	for _, id := range c.DisabledRules {
		seen[id] = struct{}{}
	}
	for _, id := range c.OptInRules {
		seen[id] = struct{}{}
	}
	for id := range c.Rules {
		seen[id] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsDisabled reports whether id is listed in disabled_rules.
func (c *Config) IsDisabled(id string) bool { return contains(c.DisabledRules, id) }

// IsOptIn reports whether id is listed in opt_in_rules.
func (c *Config) IsOptIn(id string) bool { return contains(c.OptInRules, id) }

// extra returns the unknown top-level key with the given name.
func (c *Config) extra(key string) (*yaml.Node, bool) {
	for _, e := range c.Extra {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Snapshot is an immutable copy of a configuration and the exact text it was
// read from. It is the "before" side of every diff and the payload of every
// backup. Callers must not mutate Config; use Config.Clone to start editing.
type Snapshot struct {
	Path    string
	Config  *Config
	Text    []byte
	TakenAt time.Time
	Exists  bool
}

// NewSnapshot parses text into a snapshot of the file at path.
func NewSnapshot(path string, text []byte, exists bool) (*Snapshot, error) {
	cfg, err := Parse(text)
	if err != nil {
		return nil, withPath(err, path)
	}
	return &Snapshot{
		Path:    path,
		Config:  cfg,
		Text:    append([]byte(nil), text...),
		TakenAt: time.Now(),
		Exists:  exists,
	}, nil
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

func contains(list []string, id string) bool {
	for _, s := range list {
		if s == id {
			return true
		}
	}
	return false
}

func without(list []string, id string) []string {
	var out []string
	for _, s := range list {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}
