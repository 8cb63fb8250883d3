// Package diff compares a configuration snapshot with a proposed
// configuration, both at the rule level and line by line.
package diff

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	godiff "github.com/sourcegraph/go-diff/diff"

	"github.com/davetashner/lintlab/internal/config"
)

// Context is the number of unchanged lines around each hunk.
const Context = 3

// OpKind classifies a line operation.
type OpKind string

const (
	OpEqual   OpKind = "equal"
	OpReplace OpKind = "replace"
	OpDelete  OpKind = "delete"
	OpInsert  OpKind = "insert"
)

// Op maps Before[BeforeStart:BeforeEnd] onto After[AfterStart:AfterEnd].
type Op struct {
	Kind        OpKind
	BeforeStart int
	BeforeEnd   int
	AfterStart  int
	AfterEnd    int
}

// Stats summarizes the unified diff.
type Stats struct {
	Hunks        int `json:"hunks"`
	LinesAdded   int `json:"lines_added"`
	LinesRemoved int `json:"lines_removed"`
}

// Diff is the derived difference between a snapshot and a proposed config.
// It is recomputed on demand and never stored.
type Diff struct {
	Path string `json:"path"`
	// Fresh is true when the snapshot had no file on disk.
	Fresh bool `json:"fresh"`

	Added    []string `json:"added,omitempty"`
	Removed  []string `json:"removed,omitempty"`
	Modified []string `json:"modified,omitempty"`

	Before []byte `json:"-"`
	After  []byte `json:"-"`

	Ops     []Op   `json:"-"`
	Unified string `json:"unified,omitempty"`
	Stats   Stats  `json:"stats"`
}

// Empty reports whether the proposed config changes nothing at all.
func (d *Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0 && bytes.Equal(d.Before, d.After)
}

// RuleChanges is the number of rules added, removed or modified.
func (d *Diff) RuleChanges() int {
	return len(d.Added) + len(d.Removed) + len(d.Modified)
}

// Summary renders the rule-level counts on one line.
func (d *Diff) Summary() string {
	return fmt.Sprintf("%d added, %d removed, %d modified (+%d -%d lines)",
		len(d.Added), len(d.Removed), len(d.Modified), d.Stats.LinesAdded, d.Stats.LinesRemoved)
}

// Compute diffs before against after. The after text is rendered over the
// snapshot text so unchanged parts of the file show no line changes.
func Compute(before *config.Snapshot, after *config.Config) (*Diff, error) {
	if before == nil || before.Config == nil {
		return nil, fmt.Errorf("diff: nil snapshot")
	}
	if after == nil {
		after = &config.Config{}
	}

	d := &Diff{
		Path:   before.Path,
		Fresh:  !before.Exists,
		Before: before.Text,
	}

	if err := d.compareRules(before.Config, after); err != nil {
		return nil, err
	}

	text, err := config.Serialize(after, before.Text)
	if err != nil {
		return nil, fmt.Errorf("diff: render proposed config: %w", err)
	}
	d.After = text

	if err := d.compareLines(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Diff) compareRules(before, after *config.Config) error {
	beforeIDs := universe(before)
	afterIDs := universe(after)

	for _, id := range sortedKeys(afterIDs) {
		if !beforeIDs[id] {
			d.Added = append(d.Added, id)
			continue
		}
		b, err := subtree(before, id)
		if err != nil {
			return err
		}
		a, err := subtree(after, id)
		if err != nil {
			return err
		}
		if a != b {
			d.Modified = append(d.Modified, id)
		}
	}
	for _, id := range sortedKeys(beforeIDs) {
		if !afterIDs[id] {
			d.Removed = append(d.Removed, id)
		}
	}
	return nil
}

// universe is disabled ∪ opt-in ∪ keys(rules).
func universe(cfg *config.Config) map[string]bool {
	ids := make(map[string]bool)
	for _, id := range cfg.RuleIDs() {
		ids[id] = true
	}
	return ids
}

// subtree is the serialized state of one rule: its list memberships and its
// canonical settings.
func subtree(cfg *config.Config, id string) (string, error) {
	settings, err := config.RuleText(cfg, id)
	if err != nil {
		return "", fmt.Errorf("diff: rule %s: %w", id, err)
	}
	return fmt.Sprintf("disabled=%t opt_in=%t\n%s", cfg.IsDisabled(id), cfg.IsOptIn(id), settings), nil
}

func (d *Diff) compareLines() error {
	a := splitLines(d.Before)
	b := splitLines(d.After)

	for _, oc := range difflib.NewMatcher(a, b).GetOpCodes() {
		d.Ops = append(d.Ops, Op{
			Kind:        opKind(oc.Tag),
			BeforeStart: oc.I1,
			BeforeEnd:   oc.I2,
			AfterStart:  oc.J1,
			AfterEnd:    oc.J2,
		})
	}

	name := filepath.Base(d.Path)
	if d.Path == "" {
		name = config.DefaultFileName
	}
	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  Context,
	})
	if err != nil {
		return fmt.Errorf("diff: unified %s: %w", name, err)
	}
	d.Unified = unified
	if unified == "" {
		return nil
	}

	fd, err := godiff.ParseFileDiff([]byte(unified))
	if err != nil {
		return fmt.Errorf("diff: parse hunks %s: %w", name, err)
	}
	d.Stats.Hunks = len(fd.Hunks)
	for _, h := range fd.Hunks {
		for _, line := range strings.Split(string(h.Body), "\n") {
			switch {
			case strings.HasPrefix(line, "+"):
				d.Stats.LinesAdded++
			case strings.HasPrefix(line, "-"):
				d.Stats.LinesRemoved++
			}
		}
	}
	return nil
}

func opKind(tag byte) OpKind {
	switch tag {
	case 'r':
		return OpReplace
	case 'd':
		return OpDelete
	case 'i':
		return OpInsert
	default:
		return OpEqual
	}
}

// splitLines keeps line terminators and terminates a final partial line so
// the unified output stays line-aligned.
func splitLines(text []byte) []string {
	if len(text) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(text), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if last := lines[len(lines)-1]; !strings.HasSuffix(last, "\n") {
		lines[len(lines)-1] = last + "\n"
	}
	return lines
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
