package reconcile

import (
	"fmt"
	"strings"

	"github.com/agrolens/agrolens/internal/domain/model"
)

// Metric selects which scalar a series point carries. A tagged enum keeps
// the aggregation rule exhaustive instead of branching on raw strings.
type Metric int

// Metric variants.
const (
	Area Metric = iota
	Production
	Yield
)

// ParseMetric maps a request string to a Metric. Input is case-normalized.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case model.SuffixArea:
		return Area, nil
	case model.SuffixProduction:
		return Production, nil
	case "", model.SuffixYield:
		return Yield, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
}

// String returns the wire name of the metric.
func (m Metric) String() string {
	switch m {
	case Area:
		return model.SuffixArea
	case Production:
		return model.SuffixProduction
	case Yield:
		return model.SuffixYield
	default:
		return "unknown"
	}
}

// Select returns the metric's value from a unit record.
func (m Metric) Select(u model.UnitMetrics) float64 {
	switch m {
	case Area:
		return u.Area
	case Production:
		return u.Production
	case Yield:
		return u.Yield
	default:
		return 0
	}
}

// Mode selects the output shape of a reconciliation.
type Mode int

// Mode variants.
const (
	// BeforeAfter merges parent history and child aggregates into one
	// continuous series spanning the split.
	BeforeAfter Mode = iota
	// ParentChild keeps the parent and each child as separate series.
	ParentChild
)

// ParseMode maps a request string to a Mode. Both the canonical names and
// the "merged"/"parallel" aliases are accepted.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "before_after", "merged":
		return BeforeAfter, nil
	case "parent_child", "entity_comparison", "parallel":
		return ParentChild, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// String returns the wire name of the mode.
func (m Mode) String() string {
	if m == ParentChild {
		return "parent_child"
	}
	return "before_after"
}
