// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package history

import "math"

// DefaultWindowSize is the default number of entries to compare for trends.
const DefaultWindowSize = 5

// deadbandPct is the percentage change threshold below which a trend is "stable".
const deadbandPct = 0.10

// Direction describes whether a metric is improving, stable, or degrading.
type Direction string

const (
	Improving Direction = "improving"
	Stable    Direction = "stable"
	Degrading Direction = "degrading"
)

// TrendLine captures the directional change for a single metric.
type TrendLine struct {
	Current   int       `json:"current"`
	Previous  int       `json:"previous"`
	Delta     int       `json:"delta"`
	Direction Direction `json:"direction"`
}

// TrendResult holds computed trends across discovery runs.
type TrendResult struct {
	ViolationTrend TrendLine            `json:"violation_trend"`
	SafeTrend      TrendLine            `json:"safe_trend"`
	RuleTrends     map[string]TrendLine `json:"rule_trends"`
	WindowSize     int                  `json:"window_size"`
	DataPoints     int                  `json:"data_points"`
}

// ComputeTrends compares the oldest and newest completed runs within the
// window. Cancelled runs are skipped since their counts are partial.
// Returns nil if fewer than 2 data points are available.
func ComputeTrends(h *History, windowSize int) *TrendResult {
	if h == nil {
		return nil
	}
	var entries []Entry
	for _, e := range h.Entries {
		if !e.Cancelled {
			entries = append(entries, e)
		}
	}
	if len(entries) < 2 {
		return nil
	}
	if len(entries) > windowSize {
		entries = entries[len(entries)-windowSize:]
	}

	oldest := entries[0]
	newest := entries[len(entries)-1]

	result := &TrendResult{
		ViolationTrend: computeTrendLine(oldest.TotalViolations(), newest.TotalViolations(), false),
		SafeTrend:      computeTrendLine(len(oldest.Safe), len(newest.Safe), true),
		RuleTrends:     make(map[string]TrendLine),
		WindowSize:     windowSize,
		DataPoints:     len(entries),
	}
	for _, k := range mergeKeys(oldest.WithViolations, newest.WithViolations) {
		result.RuleTrends[k] = computeTrendLine(oldest.WithViolations[k], newest.WithViolations[k], false)
	}
	return result
}

// computeTrendLine determines direction from old to new using a 10% deadband.
// higherIsBetter flips the reading for metrics such as safe rule counts.
func computeTrendLine(oldVal, newVal int, higherIsBetter bool) TrendLine {
	dir := classifyDirection(oldVal, newVal)
	if higherIsBetter && dir != Stable {
		if dir == Improving {
			dir = Degrading
		} else {
			dir = Improving
		}
	}
	return TrendLine{
		Current:   newVal,
		Previous:  oldVal,
		Delta:     newVal - oldVal,
		Direction: dir,
	}
}

// classifyDirection applies the deadband threshold. Counts going down read
// as improving.
func classifyDirection(oldVal, newVal int) Direction {
	if oldVal == 0 && newVal == 0 {
		return Stable
	}

	base := oldVal
	if base == 0 {
		base = newVal
	}

	pctChange := math.Abs(float64(newVal-oldVal)) / float64(base)
	if pctChange <= deadbandPct {
		return Stable
	}
	if newVal < oldVal {
		return Improving
	}
	return Degrading
}

func mergeKeys(a, b map[string]int) []string {
	m := make(map[string]int, len(a)+len(b))
	for k := range a {
		m[k] = 0
	}
	for k := range b {
		m[k] = 0
	}
	return SortedKeys(m)
}
