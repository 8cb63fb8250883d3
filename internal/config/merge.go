// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"strings"
)

// MergeMode selects how an imported configuration is combined with the
// local one.
type MergeMode string

const (
	// ModeReplace discards the local configuration in favor of the remote.
	ModeReplace MergeMode = "replace"
	// ModeMerge unions the rule and exclusion lists; remote rule settings win.
	ModeMerge MergeMode = "merge"
)

// ParseMode converts a --mode flag value.
func ParseMode(s string) (MergeMode, error) {
	switch MergeMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeReplace:
		return ModeReplace, nil
	case "", ModeMerge:
		return ModeMerge, nil
	default:
		return "", fmt.Errorf("unknown merge mode %q (want merge or replace)", s)
	}
}

// Merge combines local and remote.
//
// ModeReplace returns a copy of remote; snapshotting local is the caller's
// job. ModeMerge keeps local list entries in order and appends remote entries
// not already present for disabled_rules, opt_in_rules and excluded. Rules
// configured on both sides take the remote settings. included, reporter and
// unknown keys stay local and are only filled from remote when local lacks
// them. A rule that ends up both disabled and opted in keeps the remote's
// membership. Merging a config with an equal one returns it unchanged, even
// when it already lists a rule in both places.
func Merge(local, remote *Config, mode MergeMode) (*Config, error) {
	switch mode {
	case ModeReplace:
		return remote.Clone(), nil
	case ModeMerge:
	default:
		return nil, fmt.Errorf("unknown merge mode %q", mode)
	}
	if local.Equal(remote) {
		return local.Clone(), nil
	}

	out := local.Clone()
	out.DisabledRules = union(out.DisabledRules, remote.DisabledRules)
	out.OptInRules = union(out.OptInRules, remote.OptInRules)
	out.Excluded = union(out.Excluded, remote.Excluded)

	if len(out.Included) == 0 {
		out.Included = cloneStrings(remote.Included)
	}
	if out.Reporter == "" {
		out.Reporter = remote.Reporter
	}
	for _, e := range remote.Extra {
		if _, ok := out.extra(e.Key); !ok {
			out.Extra = append(out.Extra, e)
		}
	}

	if len(remote.Rules) > 0 && out.Rules == nil {
		out.Rules = make(map[string]RuleSettings, len(remote.Rules))
	}
	for id, rs := range remote.Rules {
		out.Rules[id] = rs.clone()
	}

	for _, id := range append([]string(nil), out.DisabledRules...) {
		if !contains(out.OptInRules, id) {
			continue
		}
		inDisabled, inOptIn := contains(remote.DisabledRules, id), contains(remote.OptInRules, id)
		switch {
		case inDisabled && !inOptIn:
			out.OptInRules = without(out.OptInRules, id)
		case inOptIn && !inDisabled:
			out.DisabledRules = without(out.DisabledRules, id)
		default:
			return nil, &ConflictError{RuleID: id, Msg: "listed in both disabled_rules and opt_in_rules and the imported config does not settle it"}
		}
	}
	return out, nil
}

// union appends the entries of add that base does not already hold.
func union(base, add []string) []string {
	out := cloneStrings(base)
	for _, s := range add {
		if !contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
