package stats

// Assessment labels produced by the classifier.
const (
	AssessmentPositive = "positive"
	AssessmentNeutral  = "neutral"
	AssessmentNegative = "negative"
)

// Default classification thresholds, in percent change.
const (
	defaultPositivePct = 5.0
	defaultNegativePct = -5.0
)

// Classifier turns a percent change into a coarse impact label. The
// thresholds are a presentation policy, not a statistical claim, and are
// configurable per deployment.
type Classifier struct {
	positivePct float64
	negativePct float64
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithThresholds sets the positive and negative cut-offs in percent.
// Ignored unless positive > negative.
func WithThresholds(positive, negative float64) Option {
	return func(c *Classifier) {
		if positive > negative {
			c.positivePct = positive
			c.negativePct = negative
		}
	}
}

// NewClassifier creates a Classifier with default thresholds.
func NewClassifier(opts ...Option) Classifier {
	c := Classifier{
		positivePct: defaultPositivePct,
		negativePct: defaultNegativePct,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Classify maps a percent change to an assessment label.
func (c Classifier) Classify(pctChange float64) string {
	switch {
	case pctChange >= c.positivePct:
		return AssessmentPositive
	case pctChange <= c.negativePct:
		return AssessmentNegative
	default:
		return AssessmentNeutral
	}
}
