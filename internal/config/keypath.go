// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/davetashner/lintlab/internal/finding"
)

// GetValue retrieves a value from a Config by dot-notation key path, e.g.
// "reporter", "disabled_rules" or "rules.line_length.parameters.warning".
func GetValue(cfg *Config, keyPath string) (any, error) {
	m, err := ToMap(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return navigateMap(m, keyPath)
}

// SetValue applies a dot-notation assignment through the mutation
// operations, so the result serializes with the usual overlay guarantees.
// List keys take a comma-separated value; an empty value clears the list.
func SetValue(cfg *Config, keyPath, rawValue string) (*Config, error) {
	if err := ValidateKeyPath(keyPath); err != nil {
		return nil, err
	}
	parts := strings.Split(keyPath, ".")

	switch parts[0] {
	case KeyDisabledRules, KeyOptInRules, KeyIncluded, KeyExcluded:
		return SetList(cfg, parts[0], splitList(rawValue))
	case KeyReporter:
		c := cfg.Clone()
		c.Reporter = strings.TrimSpace(rawValue)
		return c, nil
	}

	id := parts[1]
	switch parts[2] {
	case "enabled":
		b, err := strconv.ParseBool(rawValue)
		if err != nil {
			return nil, fmt.Errorf("%s: want true or false, got %q", keyPath, rawValue)
		}
		c, err := SetEnabled(cfg, id, b, cfg.IsOptIn(id))
		if err != nil {
			return nil, err
		}
		rs := c.rule(id)
		rs.Enabled = &b
		c.Rules[id] = rs
		return c, nil
	case "severity":
		sev, err := finding.ParseSeverity(rawValue)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", keyPath, err)
		}
		return SetSeverity(cfg, id, sev)
	default:
		return SetParameter(cfg, id, parts[3], coerceValue(rawValue))
	}
}

// ValidateKeyPath checks that a dot-notation key path can be assigned.
func ValidateKeyPath(keyPath string) error {
	if keyPath == "" {
		return fmt.Errorf("empty key path")
	}
	parts := strings.Split(keyPath, ".")
	first := parts[0]

	if !isKnownKey(first) {
		return fmt.Errorf("unknown key %q; valid top-level keys: %s", first, strings.Join(canonicalKeys, ", "))
	}
	if first != KeyRules {
		if len(parts) > 1 {
			return fmt.Errorf("key %q is not a mapping; cannot use sub-keys", first)
		}
		return nil
	}

	// rules.<id>.<field>[.<param>]
	if len(parts) < 3 || parts[1] == "" {
		return fmt.Errorf("rules requires a rule id and field (e.g. rules.line_length.severity)")
	}
	switch parts[2] {
	case "enabled", "severity":
		if len(parts) != 3 {
			return fmt.Errorf("key %q: %s has no sub-keys", keyPath, parts[2])
		}
	case "parameters":
		if len(parts) != 4 || parts[3] == "" {
			return fmt.Errorf("key %q: name a single parameter (e.g. rules.%s.parameters.warning)", keyPath, parts[1])
		}
	default:
		return fmt.Errorf("unknown rule field %q; valid fields: enabled, parameters, severity", parts[2])
	}
	return nil
}

// ToMap converts cfg to generic maps via its canonical YAML form.
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := Canonical(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

// FlattenMap recursively flattens a nested map to dot-notation keys.
func FlattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok && len(sub) > 0 {
			for sk, sv := range FlattenMap(sub, key) {
				result[sk] = sv
			}
		} else {
			result[key] = v
		}
	}
	return result
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func navigateMap(m map[string]any, keyPath string) (any, error) {
	parts := strings.Split(keyPath, ".")
	var current any = m
	for _, part := range parts {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("key %q: parent is not a map", part)
		}
		val, exists := cm[part]
		if !exists {
			return nil, fmt.Errorf("key %q not found", keyPath)
		}
		current = val
	}
	return current, nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// coerceValue parses a string into bool, int, float64, or keeps it as string.
func coerceValue(s string) any {
	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		// Only use float if it has a decimal point (avoid converting "3" to 3.0).
		if strings.Contains(s, ".") {
			return f
		}
	}
	return s
}
