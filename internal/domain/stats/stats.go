// Package stats computes window-based descriptive and trend statistics
// over a reconciled series.
//
// Every computation degenerates to zero-valued results on empty or
// undersized windows instead of failing. Sparse historical coverage near
// the edges of the panel is normal, and the analysis must still run on
// whatever data exists; callers decide below which sample size the
// numbers stop being meaningful.
package stats

import (
	"math"

	"github.com/agrolens/agrolens/internal/domain/reconcile"
)

// WindowStats summarizes an ordered list of values on one side of a split.
type WindowStats struct {
	Mean float64 `json:"mean"`
	// CV is the coefficient of variation: standard deviation as a
	// percentage of the mean. Zero when the mean is not positive.
	CV float64 `json:"coefficient_of_variation"`
	// CAGR is the compound annual growth rate implied by the first and
	// last observed values, annualized over the count of observations.
	CAGR float64 `json:"compound_annual_growth_rate"`
}

// Impact captures the change between pre and post window means.
type Impact struct {
	AbsChange float64 `json:"abs_change"`
	PctChange float64 `json:"pct_change"`
}

// Summary is the full impact assessment for one reconciled series.
type Summary struct {
	Pre        WindowStats `json:"pre"`
	Post       WindowStats `json:"post"`
	Impact     Impact      `json:"impact"`
	Assessment string      `json:"assessment"`
}

// Summarize partitions a merged series at splitYear and derives window
// and impact statistics. Chronological order of the input is preserved
// within each window. Defined only for merged-mode series.
func Summarize(series []reconcile.MergedPoint, splitYear int, c Classifier) Summary {
	var pre, post []float64
	for _, p := range series {
		if p.Year < splitYear {
			pre = append(pre, p.Value)
		} else {
			post = append(post, p.Value)
		}
	}

	s := Summary{
		Pre:  Window(pre),
		Post: Window(post),
	}
	s.Impact.AbsChange = s.Post.Mean - s.Pre.Mean
	if s.Pre.Mean > 0 {
		s.Impact.PctChange = 100 * s.Impact.AbsChange / s.Pre.Mean
	}
	s.Assessment = c.Classify(s.Impact.PctChange)
	return s
}

// Window computes mean, CV and CAGR over an ordered value list. An empty
// window yields all zeros.
func Window(values []float64) WindowStats {
	n := len(values)
	if n == 0 {
		return WindowStats{}
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	// Population variance, matching the source panel's convention.
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n)

	var cv float64
	if mean > 0 {
		cv = 100 * math.Sqrt(variance) / mean
	}

	return WindowStats{
		Mean: mean,
		CV:   cv,
		CAGR: cagr(values),
	}
}

// cagr annualizes growth between the first and last observed values. The
// exponent denominator is the count of observations, not the calendar
// span; windows with gaps therefore understate the annualization period.
func cagr(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	start, end := values[0], values[n-1]
	if start <= 0 {
		return 0
	}
	return (math.Pow(end/start, 1/float64(n-1)) - 1) * 100
}
