// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/davetashner/lintlab/internal/finding"
)

// ConflictError reports a mutation that would put a rule in both
// disabled_rules and opt_in_rules, or otherwise contradict existing state.
type ConflictError struct {
	RuleID string
	Msg    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("rule %s: %s", e.RuleID, e.Msg)
}

var errEmptyRuleID = errors.New("rule id must not be empty")

// SetEnabled turns a rule on or off. optIn marks a rule that is off unless
// listed in opt_in_rules.
//
// Enabling removes the rule from disabled_rules and, for opt-in rules, adds
// it to opt_in_rules. Disabling removes it from opt_in_rules and, for
// default rules, adds it to disabled_rules. An explicit rules.<id>.enabled
// flag is kept in sync.
func SetEnabled(cfg *Config, id string, enabled, optIn bool) (*Config, error) {
	if id == "" {
		return nil, errEmptyRuleID
	}
	c := cfg.Clone()
	if enabled {
		c.DisabledRules = without(c.DisabledRules, id)
		if optIn && !contains(c.OptInRules, id) {
			c.OptInRules = append(c.OptInRules, id)
		}
	} else {
		c.OptInRules = without(c.OptInRules, id)
		if !optIn && !contains(c.DisabledRules, id) {
			c.DisabledRules = append(c.DisabledRules, id)
		}
	}
	if rs, ok := c.Rules[id]; ok && rs.Enabled != nil {
		v := enabled
		rs.Enabled = &v
		c.Rules[id] = rs
	}
	return c, nil
}

// SetSeverity sets rules.<id>.severity.
func SetSeverity(cfg *Config, id string, sev finding.Severity) (*Config, error) {
	if id == "" {
		return nil, errEmptyRuleID
	}
	if !sev.Valid() {
		return nil, fmt.Errorf("rule %s: invalid severity %q (must be warning, error, or hint)", id, sev)
	}
	c := cfg.Clone()
	rs := c.rule(id)
	rs.Severity = sev
	c.Rules[id] = rs
	return c, nil
}

// SetParameter sets rules.<id>.parameters.<name>.
func SetParameter(cfg *Config, id, name string, value any) (*Config, error) {
	if id == "" {
		return nil, errEmptyRuleID
	}
	if name == "" {
		return nil, fmt.Errorf("rule %s: parameter name must not be empty", id)
	}
	c := cfg.Clone()
	rs := c.rule(id)
	if rs.Parameters == nil {
		rs.Parameters = make(map[string]any)
	}
	rs.Parameters[name] = cloneValue(value)
	c.Rules[id] = rs
	return c, nil
}

// SetList replaces one of the list keys. The result must keep disabled_rules
// and opt_in_rules disjoint.
func SetList(cfg *Config, key string, values []string) (*Config, error) {
	c := cfg.Clone()
	switch key {
	case KeyDisabledRules:
		c.DisabledRules = dedupe(values)
	case KeyOptInRules:
		c.OptInRules = dedupe(values)
	case KeyIncluded:
		c.Included = dedupe(values)
	case KeyExcluded:
		c.Excluded = dedupe(values)
	default:
		return nil, fmt.Errorf("%s is not a list key", key)
	}
	if err := checkExclusive(c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddDisabled appends id to disabled_rules. It refuses ids that are opted in.
func AddDisabled(cfg *Config, id string) (*Config, error) {
	if id == "" {
		return nil, errEmptyRuleID
	}
	if contains(cfg.OptInRules, id) {
		return nil, &ConflictError{RuleID: id, Msg: "already listed in opt_in_rules"}
	}
	c := cfg.Clone()
	if !contains(c.DisabledRules, id) {
		c.DisabledRules = append(c.DisabledRules, id)
	}
	return c, nil
}

// AddOptIn appends id to opt_in_rules. It refuses ids that are disabled.
func AddOptIn(cfg *Config, id string) (*Config, error) {
	if id == "" {
		return nil, errEmptyRuleID
	}
	if contains(cfg.DisabledRules, id) {
		return nil, &ConflictError{RuleID: id, Msg: "already listed in disabled_rules"}
	}
	c := cfg.Clone()
	if !contains(c.OptInRules, id) {
		c.OptInRules = append(c.OptInRules, id)
	}
	return c, nil
}

// RenameRule replaces every reference to oldID with newID.
func RenameRule(cfg *Config, oldID, newID string) (*Config, error) {
	if oldID == "" || newID == "" {
		return nil, errEmptyRuleID
	}
	if _, clash := cfg.Rules[newID]; clash {
		if _, ok := cfg.Rules[oldID]; ok {
			return nil, &ConflictError{RuleID: newID, Msg: fmt.Sprintf("cannot rename %s: rules.%s already exists", oldID, newID)}
		}
	}
	c := cfg.Clone()
	c.DisabledRules = dedupe(replace(c.DisabledRules, oldID, newID))
	c.OptInRules = dedupe(replace(c.OptInRules, oldID, newID))
	if rs, ok := c.Rules[oldID]; ok {
		delete(c.Rules, oldID)
		c.Rules[newID] = rs
	}
	if err := checkExclusive(c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveRule deletes id from every list and from the rules mapping.
func RemoveRule(cfg *Config, id string) (*Config, error) {
	if id == "" {
		return nil, errEmptyRuleID
	}
	c := cfg.Clone()
	c.DisabledRules = without(c.DisabledRules, id)
	c.OptInRules = without(c.OptInRules, id)
	delete(c.Rules, id)
	return c, nil
}

// RenameParameter moves rules.<id>.parameters.<oldName> to <newName>. It is
// a no-op when the parameter is not set.
func RenameParameter(cfg *Config, id, oldName, newName string) (*Config, error) {
	if id == "" {
		return nil, errEmptyRuleID
	}
	rs, ok := cfg.Rules[id]
	if !ok {
		return cfg.Clone(), nil
	}
	val, ok := rs.Parameters[oldName]
	if !ok {
		return cfg.Clone(), nil
	}
	if _, clash := rs.Parameters[newName]; clash {
		return nil, &ConflictError{RuleID: id, Msg: fmt.Sprintf("parameter %s already set", newName)}
	}
	c := cfg.Clone()
	rs = c.Rules[id]
	delete(rs.Parameters, oldName)
	rs.Parameters[newName] = cloneValue(val)
	c.Rules[id] = rs
	return c, nil
}

// ChangeKind names a mutation in a bulk change set.
type ChangeKind string

const (
	ChangeEnable    ChangeKind = "enable"
	ChangeDisable   ChangeKind = "disable"
	ChangeSeverity  ChangeKind = "severity"
	ChangeParameter ChangeKind = "parameter"
)

// Change is one entry of a bulk change set.
type Change struct {
	Kind     ChangeKind
	RuleID   string
	OptIn    bool
	Severity finding.Severity
	Name     string
	Value    any
}

// Apply runs the change against cfg.
func (ch Change) Apply(cfg *Config) (*Config, error) {
	switch ch.Kind {
	case ChangeEnable:
		return SetEnabled(cfg, ch.RuleID, true, ch.OptIn)
	case ChangeDisable:
		return SetEnabled(cfg, ch.RuleID, false, ch.OptIn)
	case ChangeSeverity:
		return SetSeverity(cfg, ch.RuleID, ch.Severity)
	case ChangeParameter:
		return SetParameter(cfg, ch.RuleID, ch.Name, ch.Value)
	default:
		return nil, fmt.Errorf("unknown change kind %q", ch.Kind)
	}
}

// BulkApply folds changes over cfg. Either every change applies or cfg is
// returned untouched together with the first error.
func BulkApply(cfg *Config, changes []Change) (*Config, error) {
	cur := cfg
	for i, ch := range changes {
		next, err := ch.Apply(cur)
		if err != nil {
			return nil, fmt.Errorf("change %d (%s %s): %w", i+1, ch.Kind, ch.RuleID, err)
		}
		cur = next
	}
	return cur.Clone(), nil
}

// rule returns the settings for id, creating the rules map if needed.
func (c *Config) rule(id string) RuleSettings {
	if c.Rules == nil {
		c.Rules = make(map[string]RuleSettings)
	}
	return c.Rules[id]
}

func checkExclusive(c *Config) error {
	for _, id := range c.DisabledRules {
		if contains(c.OptInRules, id) {
			return &ConflictError{RuleID: id, Msg: "listed in both disabled_rules and opt_in_rules"}
		}
	}
	return nil
}

func replace(list []string, oldID, newID string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s == oldID {
			s = newID
		}
		out = append(out, s)
	}
	return out
}

func dedupe(list []string) []string {
	if list == nil {
		return nil
	}
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func sortedRuleIDs(rules map[string]RuleSettings) []string {
	ids := make([]string, 0, len(rules))
	for id := range rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
