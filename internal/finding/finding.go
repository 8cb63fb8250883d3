// Package finding defines the core domain types shared by the linter invoker,
// the impact simulator and the findings store.
package finding

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Severity is the level a rule reports at.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityHint    Severity = "hint"
)

// ParseSeverity normalizes a severity string. The external tool reports
// "Warning" and "Error" capitalized; the config file uses lower case.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityWarning:
		return SeverityWarning, nil
	case SeverityError:
		return SeverityError, nil
	case SeverityHint:
		return SeverityHint, nil
	default:
		return "", fmt.Errorf("unknown severity %q (want warning, error or hint)", s)
	}
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	_, err := ParseSeverity(string(s))
	return err == nil && string(s) == strings.ToLower(string(s))
}

// Finding is one issue reported by the external linter at a file/line.
type Finding struct {
	RuleID   string   `json:"rule_id"`
	RuleName string   `json:"rule_name,omitempty"`
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Column   int      `json:"column,omitempty"` // 0 when the tool reports no column.
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Location renders file:line[:column].
func (f Finding) Location() string {
	loc := f.File + ":" + strconv.Itoa(f.Line)
	if f.Column > 0 {
		loc += ":" + strconv.Itoa(f.Column)
	}
	return loc
}

// Fingerprint is a stable identity used to deduplicate findings across runs.
// Column is left out so that reformatting a line does not create a new finding.
func (f Finding) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%s", f.RuleID, f.File, f.Line, f.Message)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Files returns the sorted distinct file paths among findings.
func Files(findings []Finding) []string {
	seen := make(map[string]struct{}, len(findings))
	files := make([]string, 0, len(findings))
	for _, f := range findings {
		if _, ok := seen[f.File]; ok {
			continue
		}
		seen[f.File] = struct{}{}
		files = append(files, f.File)
	}
	sort.Strings(files)
	return files
}

// FilterRule keeps only findings reported for ruleID.
func FilterRule(findings []Finding, ruleID string) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.RuleID == ruleID {
			out = append(out, f)
		}
	}
	return out
}

// Sort orders findings by file, line, column and rule.
func Sort(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.RuleID < b.RuleID
	})
}
