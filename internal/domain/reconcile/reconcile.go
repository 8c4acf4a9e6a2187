// Package reconcile reconstructs a comparable metric series across an
// administrative split event.
//
// The core rule is area-weighted aggregation: a unit contributes to a
// year's aggregate only when its recorded area for that year is strictly
// positive, and the aggregated yield is the area-weighted mean of the
// contributing units' yields. Years with no contributing data are skipped
// entirely; the engine never zero-fills a timeline.
package reconcile

import (
	"github.com/agrolens/agrolens/internal/domain/model"
)

// MergedPoint is one point of a merged (before/after) series.
type MergedPoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// ParallelPoint is one point of a parallel (parent/child) series. Parent
// is nil for years where the parent has no record. Children holds each
// successor's raw value under its own unit id, and is only populated for
// years at or after the split.
type ParallelPoint struct {
	Year     int
	Parent   *float64
	Children map[string]float64
}

// Merged builds a single continuous series across the split.
//
// Years before splitYear carry the parent's own value; years at or after
// it carry the area-weighted aggregate of the child set. A pre-split year
// is emitted only when the parent has a record, a post-split year only
// when at least one child contributes area.
func Merged(table model.YearTable, parentID string, childIDs []string, splitYear int, metric Metric) []MergedPoint {
	series := make([]MergedPoint, 0, len(table))
	for _, year := range table.Years() {
		units := table[year]
		if year < splitYear {
			u, ok := units[parentID]
			if !ok {
				continue
			}
			series = append(series, MergedPoint{Year: year, Value: metric.Select(u)})
			continue
		}
		value, ok := Aggregate(units, childIDs, metric)
		if !ok {
			continue
		}
		series = append(series, MergedPoint{Year: year, Value: value})
	}
	return series
}

// Parallel builds separate parent and child series over a shared year
// axis.
//
// The parent's raw value is emitted for every year it has a record, split
// or not: historical parent data stays meaningful even after the unit
// nominally ceased to exist. Child values are emitted only for years at
// or after the split; any earlier row for a child is a backfilled
// artifact of the source system, not an observation of a unit that did
// not yet exist, and is suppressed. Years contributing no value at all
// are dropped.
func Parallel(table model.YearTable, parentID string, childIDs []string, splitYear int, metric Metric) []ParallelPoint {
	series := make([]ParallelPoint, 0, len(table))
	for _, year := range table.Years() {
		units := table[year]
		p := ParallelPoint{Year: year}
		if u, ok := units[parentID]; ok {
			v := metric.Select(u)
			p.Parent = &v
		}
		if year >= splitYear {
			for _, id := range childIDs {
				u, ok := units[id]
				if !ok {
					continue
				}
				if p.Children == nil {
					p.Children = make(map[string]float64, len(childIDs))
				}
				p.Children[id] = metric.Select(u)
			}
		}
		if p.Parent == nil && len(p.Children) == 0 {
			continue
		}
		series = append(series, p)
	}
	return series
}

// Aggregate applies the area-weighted rule to the given unit set for one
// year. The second return is false when no unit contributes (sum of
// contributing areas is zero), in which case the year must be absent from
// the merged series.
func Aggregate(units map[string]model.UnitMetrics, ids []string, metric Metric) (float64, bool) {
	var sumArea, sumProduction, weighted float64
	for _, id := range ids {
		u, ok := units[id]
		if !ok || u.Area <= 0 {
			continue
		}
		sumArea += u.Area
		sumProduction += u.Production
		weighted += u.Yield * u.Area
	}
	if sumArea == 0 {
		return 0, false
	}
	switch metric {
	case Area:
		return sumArea, true
	case Production:
		return sumProduction, true
	default:
		return weighted / sumArea, true
	}
}
