// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

// Package render formats lintlab results for the terminal.
package render

import (
	"fmt"

	"github.com/fatih/color"
)

// Shared color printers.
var (
	colorRed    = color.New(color.FgRed)
	colorYellow = color.New(color.FgYellow)
	colorGreen  = color.New(color.FgGreen)
	colorCyan   = color.New(color.FgCyan)
	colorBold   = color.New(color.Bold)
	colorFaint  = color.New(color.Faint)
)

// ColorSeverity colors error/warning/hint labels.
func ColorSeverity(val string) string {
	switch val {
	case "error":
		return colorRed.Sprint(val)
	case "warning":
		return colorYellow.Sprint(val)
	case "hint":
		return colorCyan.Sprint(val)
	default:
		return val
	}
}

// ColorState colors rule membership labels.
func ColorState(val string) string {
	switch val {
	case "disabled":
		return colorFaint.Sprint(val)
	case "opt-in":
		return colorGreen.Sprint(val)
	default:
		return val
	}
}

// ColorStatus colors stored finding statuses.
func ColorStatus(val string) string {
	switch val {
	case "open":
		return colorYellow.Sprint(val)
	case "resolved":
		return colorGreen.Sprint(val)
	case "suppressed":
		return colorFaint.Sprint(val)
	default:
		return val
	}
}

// ColorDirection colors trend direction labels.
func ColorDirection(val string) string {
	switch val {
	case "improving":
		return colorGreen.Sprint(val)
	case "degrading":
		return colorRed.Sprint(val)
	default:
		return val
	}
}

// SectionTitle renders a bold section title.
func SectionTitle(title string) string {
	return colorBold.Sprint(title)
}

// colorCount colors a count: 0 is green, >0 is yellow.
func colorCount(val string) string {
	if val == "0" {
		return colorGreen.Sprint(val)
	}
	return colorYellow.Sprint(val)
}

func itoa(n int) string { return fmt.Sprintf("%d", n) }
