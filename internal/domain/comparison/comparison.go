// Package comparison computes per-entity rolling statistics around a
// split year for tabular display.
package comparison

import (
	"math"
	"sort"
)

// Confidence labels attached to a row. Display hints only; they say
// nothing about statistical significance.
const (
	ConfidenceHigh    = "High"
	ConfidenceLowData = "Low Data"
)

// DefaultWindow is the half-width of the comparison window in years.
const DefaultWindow = 5

// minObservations is the per-window sample size below which a row is
// labeled ConfidenceLowData.
const minObservations = 3

// YearValue is one observation of an entity's series.
type YearValue struct {
	Year  int
	Value float64
}

// RowStats is one row of the comparison table: an entity's descriptive
// statistics over the windows before and after the split.
type RowStats struct {
	EntityID   string  `json:"entity_id"`
	PreMean    float64 `json:"pre_mean"`
	PreStdDev  float64 `json:"pre_std_dev"`
	PreCV      float64 `json:"pre_cv"`
	PostMean   float64 `json:"post_mean"`
	PostStdDev float64 `json:"post_std_dev"`
	PostCV     float64 `json:"post_cv"`
	PctChange  float64 `json:"pct_change"`
	Confidence string  `json:"confidence"`
}

// Tabulate computes a RowStats per entity over [splitYear-window,
// splitYear) and [splitYear, splitYear+window]. Rows come back in
// ascending entity-id order so identical inputs always produce identical
// tables. A window of zero or less falls back to DefaultWindow.
func Tabulate(seriesByEntity map[string][]YearValue, splitYear, window int) []RowStats {
	if window <= 0 {
		window = DefaultWindow
	}

	ids := make([]string, 0, len(seriesByEntity))
	for id := range seriesByEntity {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]RowStats, 0, len(ids))
	for _, id := range ids {
		var pre, post []float64
		for _, yv := range seriesByEntity[id] {
			switch {
			case yv.Year >= splitYear-window && yv.Year < splitYear:
				pre = append(pre, yv.Value)
			case yv.Year >= splitYear && yv.Year <= splitYear+window:
				post = append(post, yv.Value)
			}
		}

		row := RowStats{EntityID: id, Confidence: ConfidenceLowData}
		row.PreMean, row.PreStdDev, row.PreCV = describe(pre)
		row.PostMean, row.PostStdDev, row.PostCV = describe(post)
		if row.PreMean > 0 {
			row.PctChange = 100 * (row.PostMean - row.PreMean) / row.PreMean
		}
		if len(pre) >= minObservations && len(post) >= minObservations {
			row.Confidence = ConfidenceHigh
		}
		rows = append(rows, row)
	}
	return rows
}

// describe returns mean, population standard deviation and CV for one
// window. All zeros on an empty window.
func describe(values []float64) (mean, stddev, cv float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	stddev = math.Sqrt(variance / float64(n))
	if mean > 0 {
		cv = 100 * stddev / mean
	}
	return mean, stddev, cv
}
