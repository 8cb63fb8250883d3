// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"strings"
)

// Validate checks cfg and returns every problem at once.
func Validate(cfg *Config) error {
	var errs []string

	lists := []struct {
		key   string
		items []string
	}{
		{KeyDisabledRules, cfg.DisabledRules},
		{KeyOptInRules, cfg.OptInRules},
		{KeyIncluded, cfg.Included},
		{KeyExcluded, cfg.Excluded},
	}
	for _, l := range lists {
		seen := make(map[string]bool, len(l.items))
		for i, s := range l.items {
			if strings.TrimSpace(s) == "" {
				errs = append(errs, fmt.Sprintf("%s[%d]: must not be empty", l.key, i))
				continue
			}
			if seen[s] {
				errs = append(errs, fmt.Sprintf("%s: duplicate entry %q", l.key, s))
			}
			seen[s] = true
		}
	}

	for _, id := range cfg.DisabledRules {
		if contains(cfg.OptInRules, id) {
			errs = append(errs, fmt.Sprintf("%s: listed in both disabled_rules and opt_in_rules", id))
		}
	}

	for _, id := range sortedRuleIDs(cfg.Rules) {
		rs := cfg.Rules[id]
		if strings.TrimSpace(id) == "" {
			errs = append(errs, "rules: rule id must not be empty")
		}
		if rs.Severity != "" && !rs.Severity.Valid() {
			errs = append(errs, fmt.Sprintf("rules.%s.severity: invalid value %q (must be warning, error, or hint)", id, rs.Severity))
		}
		for name := range rs.Parameters {
			if name == "" {
				errs = append(errs, fmt.Sprintf("rules.%s.parameters: parameter name must not be empty", id))
			}
		}
		if rs.Enabled != nil && *rs.Enabled && contains(cfg.DisabledRules, id) {
			errs = append(errs, fmt.Sprintf("rules.%s.enabled: true but rule is listed in disabled_rules", id))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
