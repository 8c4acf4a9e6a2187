package stats_test

import (
	"testing"

	"github.com/agrolens/agrolens/internal/domain/reconcile"
	stats "github.com/agrolens/agrolens/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWindow(t *testing.T) {
	Convey("Given an ordered value window", t, func() {
		Convey("When the window has several values", func() {
			w := stats.Window([]float64{2, 4, 6, 8})

			Convey("Then the mean should be the arithmetic mean", func() {
				So(w.Mean, ShouldEqual, 5)
			})

			Convey("And CV should use the population standard deviation", func() {
				// variance = (9+1+1+9)/4 = 5; cv = 100*sqrt(5)/5
				So(w.CV, ShouldAlmostEqual, 44.721359549995796, 1e-9)
			})

			Convey("And CAGR should annualize over the observation count", func() {
				// (8/2)^(1/3) - 1
				So(w.CAGR, ShouldAlmostEqual, 58.74010519681994, 1e-9)
			})
		})

		Convey("When the window is empty", func() {
			w := stats.Window(nil)

			Convey("Then all statistics should degenerate to zero", func() {
				So(w, ShouldResemble, stats.WindowStats{})
			})
		})

		Convey("When the window has one value", func() {
			w := stats.Window([]float64{7})

			Convey("Then CAGR should be zero", func() {
				So(w.Mean, ShouldEqual, 7)
				So(w.CV, ShouldEqual, 0)
				So(w.CAGR, ShouldEqual, 0)
			})
		})

		Convey("When the window starts at zero", func() {
			w := stats.Window([]float64{0, 10})

			Convey("Then CAGR should be suppressed rather than infinite", func() {
				So(w.CAGR, ShouldEqual, 0)
			})
		})

		Convey("When the mean is not positive", func() {
			w := stats.Window([]float64{-2, 2})

			Convey("Then CV should be suppressed", func() {
				So(w.Mean, ShouldEqual, 0)
				So(w.CV, ShouldEqual, 0)
			})
		})
	})
}

func TestSummarize(t *testing.T) {
	classifier := stats.NewClassifier()

	Convey("Given a merged series spanning a 2015 split", t, func() {
		series := []reconcile.MergedPoint{
			{Year: 2012, Value: 2.0},
			{Year: 2013, Value: 2.5},
			{Year: 2014, Value: 3.0},
			{Year: 2015, Value: 3.0},
			{Year: 2016, Value: 3.5},
		}

		Convey("When summarizing", func() {
			s := stats.Summarize(series, 2015, classifier)

			Convey("Then the windows should partition strictly at the split year", func() {
				So(s.Pre.Mean, ShouldAlmostEqual, 2.5, 1e-9)
				So(s.Post.Mean, ShouldAlmostEqual, 3.25, 1e-9)
			})

			Convey("And the impact should compare window means", func() {
				So(s.Impact.AbsChange, ShouldAlmostEqual, 0.75, 1e-9)
				So(s.Impact.PctChange, ShouldAlmostEqual, 30, 1e-9)
				So(s.Assessment, ShouldEqual, stats.AssessmentPositive)
			})
		})
	})

	Convey("Given a series with sparse, zero-heavy history", t, func() {
		series := []reconcile.MergedPoint{
			{Year: 2010, Value: 100},
			{Year: 2011, Value: 0},
			{Year: 2012, Value: 100},
		}

		Convey("When the post window is empty", func() {
			s := stats.Summarize(series, 2015, classifier)

			Convey("Then the impact should be the full loss of the pre mean", func() {
				So(s.Pre.Mean, ShouldAlmostEqual, 100.0/1.5, 1e-9)
				So(s.Post, ShouldResemble, stats.WindowStats{})
				So(s.Impact.AbsChange, ShouldAlmostEqual, -100.0/1.5, 1e-9)
				So(s.Impact.PctChange, ShouldAlmostEqual, -100, 1e-9)
				So(s.Assessment, ShouldEqual, stats.AssessmentNegative)
			})
		})
	})

	Convey("Given an empty series", t, func() {
		Convey("When summarizing", func() {
			s := stats.Summarize(nil, 2015, classifier)

			Convey("Then everything should degenerate to zero and neutral", func() {
				So(s.Pre, ShouldResemble, stats.WindowStats{})
				So(s.Post, ShouldResemble, stats.WindowStats{})
				So(s.Impact, ShouldResemble, stats.Impact{})
				So(s.Assessment, ShouldEqual, stats.AssessmentNeutral)
			})
		})
	})

	Convey("Given a pre window with non-positive mean", t, func() {
		series := []reconcile.MergedPoint{
			{Year: 2014, Value: 0},
			{Year: 2015, Value: 4},
		}

		Convey("When summarizing", func() {
			s := stats.Summarize(series, 2015, classifier)

			Convey("Then percent change should be suppressed", func() {
				So(s.Impact.AbsChange, ShouldEqual, 4)
				So(s.Impact.PctChange, ShouldEqual, 0)
			})
		})
	})
}

func TestClassifier(t *testing.T) {
	Convey("Given the default classifier", t, func() {
		c := stats.NewClassifier()

		Convey("Then the cut-offs should be inclusive at +/-5", func() {
			So(c.Classify(5), ShouldEqual, stats.AssessmentPositive)
			So(c.Classify(4.99), ShouldEqual, stats.AssessmentNeutral)
			So(c.Classify(-4.99), ShouldEqual, stats.AssessmentNeutral)
			So(c.Classify(-5), ShouldEqual, stats.AssessmentNegative)
		})
	})

	Convey("Given custom thresholds", t, func() {
		c := stats.NewClassifier(stats.WithThresholds(10, -2))

		Convey("Then the custom cut-offs should apply", func() {
			So(c.Classify(9), ShouldEqual, stats.AssessmentNeutral)
			So(c.Classify(10), ShouldEqual, stats.AssessmentPositive)
			So(c.Classify(-2), ShouldEqual, stats.AssessmentNegative)
		})
	})

	Convey("Given inverted thresholds", t, func() {
		c := stats.NewClassifier(stats.WithThresholds(-5, 5))

		Convey("Then the option should be ignored and defaults kept", func() {
			So(c.Classify(6), ShouldEqual, stats.AssessmentPositive)
			So(c.Classify(0), ShouldEqual, stats.AssessmentNeutral)
		})
	})
}
