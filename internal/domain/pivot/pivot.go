// Package pivot restructures flat metric rows into a time-indexed table.
//
// The transform is pure and deterministic: no I/O, no partial failure.
// Rows whose variable name carries an unknown suffix are ignored rather
// than rejected, so a mixed panel never aborts a request.
package pivot

import (
	"strings"

	"github.com/agrolens/agrolens/internal/domain/model"
)

// Table pivots rows into year -> unit -> {area, production, yield}.
// A (year, unit) bucket is created the first time any of its variables
// appears; the remaining slots default to zero.
func Table(rows []model.MetricObservation) model.YearTable {
	t := make(model.YearTable)
	for _, row := range rows {
		suffix := variableSuffix(row.Variable)
		if suffix == "" {
			continue
		}
		units, ok := t[row.Year]
		if !ok {
			units = make(map[string]model.UnitMetrics)
			t[row.Year] = units
		}
		m := units[row.UnitID]
		switch suffix {
		case model.SuffixArea:
			m.Area = row.Value
		case model.SuffixProduction:
			m.Production = row.Value
		case model.SuffixYield:
			m.Yield = row.Value
		}
		units[row.UnitID] = m
	}
	return t
}

// variableSuffix extracts the metric suffix from a composite variable
// name like "wheat_yield". Returns "" when the suffix is not one of the
// three known metrics.
func variableSuffix(variable string) string {
	i := strings.LastIndex(variable, "_")
	if i < 0 {
		return ""
	}
	switch s := variable[i+1:]; s {
	case model.SuffixArea, model.SuffixProduction, model.SuffixYield:
		return s
	default:
		return ""
	}
}
