// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"io"
	"strings"
)

// Alignment controls how a column's content is justified.
type Alignment int

const (
	// AlignLeft pads on the right (default).
	AlignLeft Alignment = iota
	// AlignRight pads on the left.
	AlignRight
)

// ColorFunc maps a cell value to a colored string. If nil, no color is applied.
type ColorFunc func(value string) string

// Column describes a single table column.
type Column struct {
	Header string
	Align  Alignment
	Color  ColorFunc
}

// Table renders aligned text tables to an io.Writer.
type Table struct {
	columns []Column
	rows    [][]string
}

// NewTable creates a table with the given column definitions.
func NewTable(columns ...Column) *Table {
	return &Table{columns: columns}
}

// AddRow appends a row. Extra values are ignored; missing values are empty.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.columns))
	copy(row, values)
	t.rows = append(t.rows, row)
}

// Len is the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Render writes the table to w with computed column widths.
func (t *Table) Render(w io.Writer) error {
	if len(t.columns) == 0 {
		return nil
	}

	widths := make([]int, len(t.columns))
	for i, col := range t.columns {
		widths[i] = len(col.Header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	header := make([]string, len(t.columns))
	sep := make([]string, len(t.columns))
	for i, col := range t.columns {
		header[i] = colorBold.Sprint(pad(col.Header, col.Header, widths[i], col.Align))
		sep[i] = strings.Repeat("-", widths[i])
	}
	if err := writeLine(w, header); err != nil {
		return err
	}
	if err := writeLine(w, sep); err != nil {
		return err
	}

	for _, row := range t.rows {
		parts := make([]string, len(t.columns))
		for i, col := range t.columns {
			display := row[i]
			if col.Color != nil && row[i] != "" {
				display = col.Color(row[i])
			}
			parts[i] = pad(row[i], display, widths[i], col.Align)
		}
		if err := writeLine(w, parts); err != nil {
			return err
		}
	}
	return nil
}

// pad justifies display using the width of the uncolored raw value.
func pad(raw, display string, width int, align Alignment) string {
	n := max(width-len(raw), 0)
	if align == AlignRight {
		return strings.Repeat(" ", n) + display
	}
	return display + strings.Repeat(" ", n)
}

func writeLine(w io.Writer, parts []string) error {
	line := strings.TrimRight("  "+strings.Join(parts, "  "), " ")
	if _, err := fmt.Fprintln(w, line); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}
