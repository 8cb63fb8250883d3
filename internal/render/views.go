// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/davetashner/lintlab/internal/config"
	"github.com/davetashner/lintlab/internal/finding"
	"github.com/davetashner/lintlab/internal/findingstore"
	"github.com/davetashner/lintlab/internal/history"
	"github.com/davetashner/lintlab/internal/migrate"
	"github.com/davetashner/lintlab/internal/persist"
	"github.com/davetashner/lintlab/internal/redact"
	"github.com/davetashner/lintlab/internal/simulate"
)

// Rules writes one row per rule the config mentions.
func Rules(w io.Writer, cfg *config.Config) error {
	t := NewTable(
		Column{Header: "RULE"},
		Column{Header: "STATE", Color: ColorState},
		Column{Header: "SEVERITY", Color: ColorSeverity},
		Column{Header: "PARAMETERS"},
	)
	for _, id := range cfg.RuleIDs() {
		state := "configured"
		switch {
		case cfg.IsDisabled(id):
			state = "disabled"
		case cfg.IsOptIn(id):
			state = "opt-in"
		}
		rs := cfg.Rules[id]
		t.AddRow(id, state, string(rs.Severity), params(rs.Parameters))
	}
	if t.Len() == 0 {
		_, err := fmt.Fprintln(w, "No rules configured.")
		return err
	}
	return t.Render(w)
}

func params(m map[string]any) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, m[k])
	}
	return strings.Join(parts, " ")
}

// Findings writes a table of lint findings.
func Findings(w io.Writer, findings []finding.Finding) error {
	t := NewTable(
		Column{Header: "LOCATION"},
		Column{Header: "RULE"},
		Column{Header: "SEVERITY", Color: ColorSeverity},
		Column{Header: "MESSAGE"},
	)
	for _, f := range findings {
		t.AddRow(f.Location(), f.RuleID, string(f.Severity), f.Message)
	}
	return t.Render(w)
}

// Impact writes the outcome of a single-rule simulation.
func Impact(w io.Writer, r *simulate.RuleImpactResult) error {
	verdict := colorGreen.Sprint("safe to enable")
	if !r.Safe() {
		verdict = colorYellow.Sprintf("%d violation(s) in %d file(s)", r.ViolationCount, len(r.AffectedFiles))
	}
	if _, err := fmt.Fprintf(w, "%s: %s (%s)\n", SectionTitle(r.RuleID), verdict, r.Duration.Round(time.Millisecond)); err != nil {
		return err
	}
	if len(r.Findings) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if err := Findings(w, r.Findings); err != nil {
		return err
	}
	if hidden := r.ViolationCount - len(r.Findings); hidden > 0 {
		_, err := fmt.Fprintf(w, "  ... %d more\n", hidden)
		return err
	}
	return nil
}

// Batch writes the safe-rule discovery report.
func Batch(w io.Writer, b *simulate.BatchResult) error {
	safe := b.SafeRules()
	status := "complete"
	if b.Cancelled {
		status = colorYellow.Sprint("cancelled")
	}
	if _, err := fmt.Fprintf(w, "%s %d/%d rules simulated in %s (%s)\n\n",
		SectionTitle("Safe rule discovery:"), len(b.Results)+len(b.Failures), b.Total,
		b.Duration.Round(time.Millisecond), status); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "%s (%s)\n", SectionTitle("Safe to enable"), colorCount(itoa(len(safe)))); err != nil {
		return err
	}
	for _, id := range safe {
		if _, err := fmt.Fprintf(w, "  %s\n", id); err != nil {
			return err
		}
	}

	withViolations := b.RulesWithViolations()
	if len(withViolations) > 0 {
		if _, err := fmt.Fprintf(w, "\n%s\n", SectionTitle("Rules with violations")); err != nil {
			return err
		}
		t := NewTable(
			Column{Header: "RULE"},
			Column{Header: "KIND"},
			Column{Header: "VIOLATIONS", Align: AlignRight, Color: colorCount},
			Column{Header: "FILES", Align: AlignRight},
		)
		for _, r := range withViolations {
			t.AddRow(r.RuleID, kind(r.OptIn), itoa(r.ViolationCount), itoa(len(r.AffectedFiles)))
		}
		if err := t.Render(w); err != nil {
			return err
		}
	}

	if len(b.Failures) > 0 {
		if _, err := fmt.Fprintf(w, "\n%s\n", SectionTitle("Failed")); err != nil {
			return err
		}
		for _, f := range b.Failures {
			if _, err := fmt.Fprintf(w, "  %s: %s\n", f.RuleID, colorRed.Sprint(redact.String(f.Error))); err != nil {
				return err
			}
		}
	}
	return nil
}

func kind(optIn bool) string {
	if optIn {
		return "opt-in"
	}
	return "disabled"
}

// Records writes stored findings.
func Records(w io.Writer, records []findingstore.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No findings.")
		return err
	}
	t := NewTable(
		Column{Header: "ID"},
		Column{Header: "STATUS", Color: ColorStatus},
		Column{Header: "RULE"},
		Column{Header: "LOCATION"},
		Column{Header: "LAST SEEN"},
	)
	for _, r := range records {
		t.AddRow(shortID(r.ID), string(r.Status), r.Finding.RuleID, r.Finding.Location(),
			r.LastSeen.Local().Format(time.DateTime))
	}
	return t.Render(w)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Steps writes a migration plan.
func Steps(w io.Writer, steps []migrate.Step) error {
	if len(steps) == 0 {
		_, err := fmt.Fprintln(w, "Nothing to migrate.")
		return err
	}
	for _, s := range steps {
		mark := colorGreen.Sprint("auto  ")
		if !s.Auto() {
			mark = colorYellow.Sprint("manual")
		}
		if _, err := fmt.Fprintf(w, "  %s %s\n", mark, s.String()); err != nil {
			return err
		}
	}
	return nil
}

// Backups writes the backup list for a config file, newest first.
func Backups(w io.Writer, refs []persist.BackupRef) error {
	if len(refs) == 0 {
		_, err := fmt.Fprintln(w, "No backups.")
		return err
	}
	t := NewTable(
		Column{Header: "TAKEN"},
		Column{Header: "PATH"},
	)
	for _, r := range refs {
		t.AddRow(r.Timestamp.Local().Format(time.DateTime), r.Path)
	}
	return t.Render(w)
}

// Trends writes recent discovery history and the computed trends.
func Trends(w io.Writer, h *history.History, tr *history.TrendResult) error {
	if h == nil || len(h.Entries) == 0 {
		_, err := fmt.Fprintln(w, "No discovery history.")
		return err
	}
	t := NewTable(
		Column{Header: "WHEN"},
		Column{Header: "HEAD"},
		Column{Header: "CANDIDATES", Align: AlignRight},
		Column{Header: "SAFE", Align: AlignRight},
		Column{Header: "VIOLATIONS", Align: AlignRight, Color: colorCount},
	)
	for _, e := range h.Entries {
		head := e.GitHead
		if len(head) > 7 {
			head = head[:7]
		}
		when := e.Timestamp.Local().Format(time.DateTime)
		if e.Cancelled {
			when += "*"
		}
		t.AddRow(when, head, itoa(e.Candidates), itoa(len(e.Safe)), itoa(e.TotalViolations()))
	}
	if err := t.Render(w); err != nil {
		return err
	}
	if tr == nil || tr.DataPoints < 2 {
		return nil
	}

	if _, err := fmt.Fprintf(w, "\n%s (last %d runs)\n", SectionTitle("Trends"), tr.DataPoints); err != nil {
		return err
	}
	tt := NewTable(
		Column{Header: "METRIC"},
		Column{Header: "PREVIOUS", Align: AlignRight},
		Column{Header: "CURRENT", Align: AlignRight},
		Column{Header: "DIRECTION", Color: ColorDirection},
	)
	tt.AddRow("violations", itoa(tr.ViolationTrend.Previous), itoa(tr.ViolationTrend.Current), string(tr.ViolationTrend.Direction))
	tt.AddRow("safe rules", itoa(tr.SafeTrend.Previous), itoa(tr.SafeTrend.Current), string(tr.SafeTrend.Direction))
	return tt.Render(w)
}
