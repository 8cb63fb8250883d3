// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/davetashner/lintlab/internal/finding"
)

// ParseError reports malformed configuration text. Line and Column are
// 1-based and zero when unknown.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "config"
	}
	if e.Line > 0 {
		loc += ":" + strconv.Itoa(e.Line)
		if e.Column > 0 {
			loc += ":" + strconv.Itoa(e.Column)
		}
	}
	return fmt.Sprintf("parse %s: %s", loc, e.Msg)
}

func nodeError(n *yaml.Node, format string, args ...any) *ParseError {
	return &ParseError{Line: n.Line, Column: n.Column, Msg: fmt.Sprintf(format, args...)}
}

func withPath(err error, path string) error {
	var pe *ParseError
	if errors.As(err, &pe) && pe.Path == "" {
		pe.Path = path
	}
	return err
}

var yamlLineRe = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

// Load reads the configuration file at path. A missing file yields an empty
// Config and nil error.
func Load(path string) (*Config, error) {
	snap, err := LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return snap.Config, nil
}

// LoadSnapshot reads path and keeps its exact text alongside the parsed
// config. A missing file yields an empty snapshot with Exists set to false.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Snapshot{Path: path, Config: &Config{}, TakenAt: time.Now()}, nil
		}
		return nil, err
	}
	return NewSnapshot(path, data, true)
}

// Parse decodes configuration text. Empty text, or text holding only
// comments, is an empty Config.
func Parse(data []byte) (*Config, error) {
	root, err := parseRoot(data)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if root == nil {
		return cfg, nil
	}

	seen := make(map[string]bool)
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, nodeError(k, "top-level keys must be scalars")
		}
		if seen[k.Value] {
			return nil, nodeError(k, "duplicate key %q", k.Value)
		}
		seen[k.Value] = true

		switch k.Value {
		case KeyDisabledRules:
			cfg.DisabledRules, err = decodeStrings(k.Value, v)
		case KeyOptInRules:
			cfg.OptInRules, err = decodeStrings(k.Value, v)
		case KeyIncluded:
			cfg.Included, err = decodeStrings(k.Value, v)
		case KeyExcluded:
			cfg.Excluded, err = decodeStrings(k.Value, v)
		case KeyReporter:
			cfg.Reporter, err = decodeScalar(k.Value, v)
		case KeyRules:
			cfg.Rules, err = decodeRules(v)
		default:
			cfg.Extra = append(cfg.Extra, ExtraKey{Key: k.Value, Value: v})
		}
		if err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// parseRoot returns the top-level mapping node, or nil for an empty document.
func parseRoot(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		pe := &ParseError{Msg: err.Error()}
		if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
			pe.Line, _ = strconv.Atoi(m[1])
			pe.Msg = m[2]
		}
		return nil, pe
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, nodeError(root, "top level must be a mapping")
	}
	return root, nil
}

func decodeStrings(key string, n *yaml.Node) ([]string, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, nodeError(n, "%s must be a sequence of strings", key)
	}
	out := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		if item.Kind != yaml.ScalarNode || isNull(item) {
			return nil, nodeError(item, "%s entries must be strings", key)
		}
		out = append(out, item.Value)
	}
	return out, nil
}

func decodeScalar(key string, n *yaml.Node) (string, error) {
	if isNull(n) {
		return "", nil
	}
	if n.Kind != yaml.ScalarNode {
		return "", nodeError(n, "%s must be a string", key)
	}
	return n.Value, nil
}

func decodeRules(n *yaml.Node) (map[string]RuleSettings, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, nodeError(n, "rules must be a mapping of rule id to settings")
	}
	rules := make(map[string]RuleSettings, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode || k.Value == "" {
			return nil, nodeError(k, "rule ids must be non-empty strings")
		}
		if _, dup := rules[k.Value]; dup {
			return nil, nodeError(k, "duplicate rule %q", k.Value)
		}
		rs, err := decodeRule(k.Value, v)
		if err != nil {
			return nil, err
		}
		rules[k.Value] = rs
	}
	return rules, nil
}

func decodeRule(id string, n *yaml.Node) (RuleSettings, error) {
	var rs RuleSettings
	if isNull(n) {
		return rs, nil
	}
	if n.Kind != yaml.MappingNode {
		return rs, nodeError(n, "rules.%s must be a mapping", id)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		switch k.Value {
		case "enabled":
			var b bool
			if v.Kind != yaml.ScalarNode || v.Decode(&b) != nil {
				return rs, nodeError(v, "rules.%s.enabled must be true or false", id)
			}
			rs.Enabled = &b
		case "severity":
			sev := finding.Severity(v.Value)
			if v.Kind != yaml.ScalarNode || !sev.Valid() {
				return rs, nodeError(v, "rules.%s.severity: invalid value %q (must be warning, error, or hint)", id, v.Value)
			}
			rs.Severity = sev
		case "parameters":
			if isNull(v) {
				continue
			}
			if v.Kind != yaml.MappingNode {
				return rs, nodeError(v, "rules.%s.parameters must be a mapping", id)
			}
			var params map[string]any
			if err := v.Decode(&params); err != nil {
				return rs, nodeError(v, "rules.%s.parameters: %v", id, err)
			}
			rs.Parameters = params
		default:
			return rs, nodeError(k, "rules.%s: unknown key %q (want enabled, severity, or parameters)", id, k.Value)
		}
	}
	return rs, nil
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

// ruleYAML is the canonical field order of a rule entry.
type ruleYAML struct {
	Enabled    *bool          `yaml:"enabled,omitempty"`
	Severity   string         `yaml:"severity,omitempty"`
	Parameters map[string]any `yaml:"parameters,omitempty"`
}

func ruleNode(rs RuleSettings) (*yaml.Node, error) {
	var n yaml.Node
	err := n.Encode(ruleYAML{Enabled: rs.Enabled, Severity: string(rs.Severity), Parameters: rs.Parameters})
	return &n, err
}

// RuleText renders the settings of rule id in canonical form, or "" when
// cfg has no settings for it.
func RuleText(cfg *Config, id string) (string, error) {
	rs, ok := cfg.Rules[id]
	if !ok || rs.IsZero() {
		return "", nil
	}
	n, err := ruleNode(rs)
	if err != nil {
		return "", fmt.Errorf("encode rule %s: %w", id, err)
	}
	out, err := encode(n)
	return string(out), err
}

func rulesNode(rules map[string]RuleSettings) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, id := range sortedRuleIDs(rules) {
		v, err := ruleNode(rules[id])
		if err != nil {
			return nil, fmt.Errorf("encode rule %s: %w", id, err)
		}
		n.Content = append(n.Content, strNode(id), v)
	}
	return n, nil
}

func strNode(s string) *yaml.Node {
	var n yaml.Node
	_ = n.Encode(s)
	return &n
}

func listNode(items []string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, s := range items {
		n.Content = append(n.Content, strNode(s))
	}
	return n
}

// valueNode renders one top-level key of cfg. ok is false when the key is
// absent or empty, which means it is not written at all.
func valueNode(cfg *Config, key string) (*yaml.Node, bool, error) {
	switch key {
	case KeyDisabledRules:
		return listNode(cfg.DisabledRules), len(cfg.DisabledRules) > 0, nil
	case KeyOptInRules:
		return listNode(cfg.OptInRules), len(cfg.OptInRules) > 0, nil
	case KeyIncluded:
		return listNode(cfg.Included), len(cfg.Included) > 0, nil
	case KeyExcluded:
		return listNode(cfg.Excluded), len(cfg.Excluded) > 0, nil
	case KeyReporter:
		return strNode(cfg.Reporter), cfg.Reporter != "", nil
	case KeyRules:
		if len(cfg.Rules) == 0 {
			return nil, false, nil
		}
		n, err := rulesNode(cfg.Rules)
		return n, err == nil, err
	default:
		n, ok := cfg.extra(key)
		return n, ok, nil
	}
}

// presentKeys lists the keys cfg writes, canonical keys first, then unknown
// keys in their stored order.
func presentKeys(cfg *Config) []string {
	var keys []string
	for _, k := range canonicalKeys {
		if _, ok, _ := valueNode(cfg, k); ok {
			keys = append(keys, k)
		}
	}
	for _, e := range cfg.Extra {
		keys = append(keys, e.Key)
	}
	return keys
}

// Canonical renders cfg with two-space indentation in canonical key order.
// An empty config renders as empty text.
func Canonical(cfg *Config) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range presentKeys(cfg) {
		v, _, err := valueNode(cfg, k)
		if err != nil {
			return nil, err
		}
		root.Content = append(root.Content, strNode(k), v)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	return encode(root)
}

func encode(n *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// nodeText renders a node for comparison purposes.
func nodeText(n *yaml.Node) string {
	if n == nil {
		return ""
	}
	out, err := encode(n)
	if err != nil {
		return n.Value
	}
	return string(out)
}
