// Package migrate plans configuration edits needed when moving between
// releases of the lint tool: renamed rules, removed rules and renamed
// parameters. Plans are pure; callers preview and commit the result through
// the usual diff and persist path.
package migrate

import (
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/semver"

	"github.com/davetashner/lintlab/internal/config"
)

// Rename maps a rule id to its new id.
type Rename struct {
	Since string `toml:"since"`
	From  string `toml:"from"`
	To    string `toml:"to"`
}

// Removal drops a rule that no longer exists.
type Removal struct {
	Since  string `toml:"since"`
	Rule   string `toml:"rule"`
	Reason string `toml:"reason"`
}

// ParameterRename renames a parameter of one rule.
type ParameterRename struct {
	Since string `toml:"since"`
	Rule  string `toml:"rule"`
	From  string `toml:"from"`
	To    string `toml:"to"`
}

// Manual is a change that needs a human. An empty Rule applies to every
// configuration.
type Manual struct {
	Since   string `toml:"since"`
	Rule    string `toml:"rule"`
	Message string `toml:"message"`
}

// Table is the versioned migration data.
type Table struct {
	Renames    []Rename          `toml:"renames"`
	Removals   []Removal         `toml:"removals"`
	Parameters []ParameterRename `toml:"parameters"`
	Manual     []Manual          `toml:"manual"`
}

//go:embed table.toml
var defaultTable []byte

// DefaultTable returns the built-in migration table.
func DefaultTable() (*Table, error) {
	return decode(strings.NewReader(string(defaultTable)))
}

// LoadTable reads a migration table in TOML form.
func LoadTable(r io.Reader) (*Table, error) {
	return decode(r)
}

func decode(r io.Reader) (*Table, error) {
	var t Table
	if _, err := toml.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode migration table: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Table) validate() error {
	var errs []string
	check := func(what, since string, fields ...string) {
		if _, err := canonical(since); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", what, err))
		}
		for _, f := range fields {
			if f == "" {
				errs = append(errs, fmt.Sprintf("%s: missing field", what))
				return
			}
		}
	}
	for i, r := range t.Renames {
		check(fmt.Sprintf("renames[%d]", i), r.Since, r.From, r.To)
	}
	for i, r := range t.Removals {
		check(fmt.Sprintf("removals[%d]", i), r.Since, r.Rule)
	}
	for i, p := range t.Parameters {
		check(fmt.Sprintf("parameters[%d]", i), p.Since, p.Rule, p.From, p.To)
	}
	for i, m := range t.Manual {
		check(fmt.Sprintf("manual[%d]", i), m.Since, m.Message)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid migration table:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// canonical accepts "0.54.0" or "v0.54.0" and returns the semver form.
func canonical(v string) (string, error) {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", fmt.Errorf("invalid version %q", strings.TrimPrefix(v, "v"))
	}
	return semver.Canonical(v), nil
}

// StepKind classifies a migration step.
type StepKind string

const (
	KindRename          StepKind = "rename"
	KindRemove          StepKind = "remove"
	KindUpdateParameter StepKind = "update-parameter"
	KindManualAction    StepKind = "manual"
)

// Step is one proposed edit.
type Step struct {
	Kind     StepKind `json:"kind"`
	Since    string   `json:"since"`
	RuleID   string   `json:"rule_id,omitempty"`
	NewID    string   `json:"new_id,omitempty"`
	Param    string   `json:"param,omitempty"`
	NewParam string   `json:"new_param,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// Auto reports whether the step can be applied without a human.
func (s Step) Auto() bool { return s.Kind != KindManualAction }

func (s Step) String() string {
	switch s.Kind {
	case KindRename:
		return fmt.Sprintf("%s: rename %s to %s", s.Since, s.RuleID, s.NewID)
	case KindRemove:
		return fmt.Sprintf("%s: remove %s (%s)", s.Since, s.RuleID, s.Message)
	case KindUpdateParameter:
		return fmt.Sprintf("%s: rename %s parameter %s to %s", s.Since, s.RuleID, s.Param, s.NewParam)
	default:
		if s.RuleID != "" {
			return fmt.Sprintf("%s: manual (%s): %s", s.Since, s.RuleID, s.Message)
		}
		return fmt.Sprintf("%s: manual: %s", s.Since, s.Message)
	}
}

// Plan lists the steps that apply to cfg when upgrading from version from
// to version to: every table entry with from < since <= to that touches the
// configuration, in version order. Steps see the effect of earlier steps,
// so chained renames resolve.
func Plan(cfg *config.Config, from, to string, table *Table) ([]Step, error) {
	lo, err := canonical(from)
	if err != nil {
		return nil, fmt.Errorf("plan: from: %w", err)
	}
	hi, err := canonical(to)
	if err != nil {
		return nil, fmt.Errorf("plan: to: %w", err)
	}
	if semver.Compare(lo, hi) > 0 {
		return nil, fmt.Errorf("plan: from version %s is newer than to version %s", from, to)
	}
	if table == nil {
		return nil, nil
	}

	var candidates []Step
	inRange := func(since string) (string, bool) {
		v, err := canonical(since)
		if err != nil {
			return "", false
		}
		return v, semver.Compare(lo, v) < 0 && semver.Compare(v, hi) <= 0
	}
	for _, r := range table.Renames {
		if v, ok := inRange(r.Since); ok {
			candidates = append(candidates, Step{Kind: KindRename, Since: v, RuleID: r.From, NewID: r.To})
		}
	}
	for _, r := range table.Removals {
		if v, ok := inRange(r.Since); ok {
			candidates = append(candidates, Step{Kind: KindRemove, Since: v, RuleID: r.Rule, Message: r.Reason})
		}
	}
	for _, p := range table.Parameters {
		if v, ok := inRange(p.Since); ok {
			candidates = append(candidates, Step{Kind: KindUpdateParameter, Since: v, RuleID: p.Rule, Param: p.From, NewParam: p.To})
		}
	}
	for _, m := range table.Manual {
		if v, ok := inRange(m.Since); ok {
			candidates = append(candidates, Step{Kind: KindManualAction, Since: v, RuleID: m.Rule, Message: m.Message})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return semver.Compare(candidates[i].Since, candidates[j].Since) < 0
	})

	work := cfg.Clone()
	var steps []Step
	for _, s := range candidates {
		if !touches(work, s) {
			continue
		}
		if s.Auto() {
			next, err := apply(work, s)
			if err != nil {
				return nil, fmt.Errorf("plan: %s: %w", s, err)
			}
			work = next
		}
		steps = append(steps, s)
	}
	return steps, nil
}

func touches(cfg *config.Config, s Step) bool {
	if s.RuleID == "" {
		return true
	}
	present := false
	for _, id := range cfg.RuleIDs() {
		if id == s.RuleID {
			present = true
			break
		}
	}
	if !present {
		return false
	}
	if s.Kind == KindUpdateParameter {
		_, ok := cfg.Rules[s.RuleID].Parameters[s.Param]
		return ok
	}
	return true
}

// ApplyAutoSteps folds the automatic steps into a copy of cfg. Manual steps
// are skipped.
func ApplyAutoSteps(cfg *config.Config, steps []Step) (*config.Config, error) {
	out := cfg.Clone()
	for _, s := range steps {
		if !s.Auto() {
			continue
		}
		next, err := apply(out, s)
		if err != nil {
			return nil, fmt.Errorf("apply %s: %w", s, err)
		}
		out = next
	}
	return out, nil
}

func apply(cfg *config.Config, s Step) (*config.Config, error) {
	switch s.Kind {
	case KindRename:
		return config.RenameRule(cfg, s.RuleID, s.NewID)
	case KindRemove:
		return config.RemoveRule(cfg, s.RuleID)
	case KindUpdateParameter:
		return config.RenameParameter(cfg, s.RuleID, s.Param, s.NewParam)
	default:
		return cfg, nil
	}
}
