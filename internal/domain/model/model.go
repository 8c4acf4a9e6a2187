// Package model contains domain models passed between layers.
package model

import "sort"

// Variable name suffixes used in the metric store. A variable is the
// composite "{crop}_{suffix}", e.g. "wheat_yield".
const (
	SuffixArea       = "area"
	SuffixProduction = "production"
	SuffixYield      = "yield"
)

// LineageEvent represents one parent->child edge of an administrative
// split. Several events may share a parent and an event year (one parent,
// many successors). Reference data; never mutated by the engine.
type LineageEvent struct {
	ParentID   string  `db:"parent_id" json:"parent_id"`
	ChildID    string  `db:"child_id" json:"child_id"`
	EventYear  int     `db:"event_year" json:"event_year"`
	EventType  string  `db:"event_type" json:"event_type"`
	Confidence float64 `db:"confidence" json:"confidence"`
	WeightType string  `db:"weight_type" json:"weight_type"`
}

// MetricObservation is one raw per-unit, per-year, per-variable value.
// Both the relational store and the flat-file fallback normalize to this
// shape before any computation sees it.
type MetricObservation struct {
	UnitID   string  `db:"unit_id" json:"unit_id"`
	Year     int     `db:"year" json:"year"`
	Variable string  `db:"variable" json:"variable"`
	Value    float64 `db:"value" json:"value"`
}

// UnitMetrics holds the three metric slots for one unit in one year.
// Unset slots stay at zero.
type UnitMetrics struct {
	Area       float64 `json:"area"`
	Production float64 `json:"production"`
	Yield      float64 `json:"yield"`
}

// YearTable is the pivoted panel: year -> unit -> metrics. Built fresh
// per request and treated as immutable once returned by the pivot.
type YearTable map[int]map[string]UnitMetrics

// Years returns the table's years in ascending order.
func (t YearTable) Years() []int {
	years := make([]int, 0, len(t))
	for y := range t {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// YearRange optionally bounds a metric fetch. Zero value means unbounded.
type YearRange struct {
	From int
	To   int
}

// Bounded reports whether the range constrains anything.
func (r YearRange) Bounded() bool {
	return r.From != 0 || r.To != 0
}
