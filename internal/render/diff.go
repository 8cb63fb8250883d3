// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/davetashner/lintlab/internal/diff"
)

// Diff writes a rule-level summary followed by the colored unified diff.
func Diff(w io.Writer, d *diff.Diff) error {
	if d == nil || d.Empty() {
		_, err := fmt.Fprintln(w, "No changes.")
		return err
	}

	var b strings.Builder
	if d.Fresh {
		fmt.Fprintf(&b, "%s (new file)\n", d.Path)
	}
	for _, id := range d.Added {
		fmt.Fprintf(&b, "  %s %s\n", colorGreen.Sprint("+"), id)
	}
	for _, id := range d.Removed {
		fmt.Fprintf(&b, "  %s %s\n", colorRed.Sprint("-"), id)
	}
	for _, id := range d.Modified {
		fmt.Fprintf(&b, "  %s %s\n", colorYellow.Sprint("~"), id)
	}
	fmt.Fprintf(&b, "%s\n\n", d.Summary())
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	return Unified(w, d.Unified)
}

// Unified colors the lines of a unified diff: additions green, removals
// red, hunk headers cyan, file headers bold.
func Unified(w io.Writer, text string) error {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	for _, line := range lines {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		var out string
		switch {
		case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"):
			out = colorBold.Sprint(body)
		case strings.HasPrefix(body, "@@"):
			out = colorCyan.Sprint(body)
		case strings.HasPrefix(body, "+"):
			out = colorGreen.Sprint(body)
		case strings.HasPrefix(body, "-"):
			out = colorRed.Sprint(body)
		default:
			out = body
		}
		if _, err := fmt.Fprintln(w, out); err != nil {
			return err
		}
	}
	return nil
}
