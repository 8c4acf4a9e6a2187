package comparison_test

import (
	"testing"

	comparison "github.com/agrolens/agrolens/internal/domain/comparison"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTabulate(t *testing.T) {
	Convey("Given per-entity series around a 2015 split", t, func() {
		series := map[string][]comparison.YearValue{
			"old": {
				{Year: 2009, Value: 9}, // outside a 5-year window
				{Year: 2010, Value: 2},
				{Year: 2011, Value: 2},
				{Year: 2012, Value: 2},
				{Year: 2013, Value: 3},
				{Year: 2014, Value: 3},
			},
			"north": {
				{Year: 2015, Value: 4},
				{Year: 2016, Value: 4},
				{Year: 2017, Value: 4},
			},
			"south": {
				{Year: 2015, Value: 2},
				{Year: 2016, Value: 3},
			},
		}

		Convey("When tabulating with the default window", func() {
			rows := comparison.Tabulate(series, 2015, 0)

			Convey("Then rows should come back in entity-id order", func() {
				So(rows, ShouldHaveLength, 3)
				So(rows[0].EntityID, ShouldEqual, "north")
				So(rows[1].EntityID, ShouldEqual, "old")
				So(rows[2].EntityID, ShouldEqual, "south")
			})

			Convey("And window bounds should exclude years outside the half-width", func() {
				old := rows[1]
				// 2009 is outside [2010, 2015); pre = {2,2,2,3,3}
				So(old.PreMean, ShouldAlmostEqual, 2.4, 1e-9)
				So(old.PostMean, ShouldEqual, 0)
			})

			Convey("And confidence should require three observations per window", func() {
				So(rows[0].Confidence, ShouldEqual, comparison.ConfidenceLowData) // no pre data
				So(rows[1].Confidence, ShouldEqual, comparison.ConfidenceLowData) // no post data
				So(rows[2].Confidence, ShouldEqual, comparison.ConfidenceLowData)
			})

			Convey("And percent change should be suppressed without a positive pre mean", func() {
				So(rows[0].PctChange, ShouldEqual, 0)
			})
		})

		Convey("When an entity has both windows populated", func() {
			series["merged"] = []comparison.YearValue{
				{Year: 2012, Value: 2},
				{Year: 2013, Value: 2},
				{Year: 2014, Value: 2},
				{Year: 2015, Value: 3},
				{Year: 2016, Value: 3},
				{Year: 2017, Value: 3},
			}
			rows := comparison.Tabulate(series, 2015, 5)

			var merged comparison.RowStats
			for _, r := range rows {
				if r.EntityID == "merged" {
					merged = r
				}
			}

			Convey("Then it should earn high confidence and a percent change", func() {
				So(merged.Confidence, ShouldEqual, comparison.ConfidenceHigh)
				So(merged.PreMean, ShouldEqual, 2)
				So(merged.PostMean, ShouldEqual, 3)
				So(merged.PctChange, ShouldAlmostEqual, 50, 1e-9)
				So(merged.PreStdDev, ShouldEqual, 0)
				So(merged.PreCV, ShouldEqual, 0)
			})
		})

		Convey("When tabulating an empty input", func() {
			rows := comparison.Tabulate(nil, 2015, 5)

			Convey("Then the table should be empty, not nil-prone", func() {
				So(rows, ShouldHaveLength, 0)
			})
		})
	})
}

func TestTabulateWindowArithmetic(t *testing.T) {
	Convey("Given a narrow two-year window", t, func() {
		series := map[string][]comparison.YearValue{
			"u": {
				{Year: 2012, Value: 1}, // outside
				{Year: 2013, Value: 2},
				{Year: 2014, Value: 4},
				{Year: 2015, Value: 6},
				{Year: 2017, Value: 8},
				{Year: 2018, Value: 9}, // outside
			},
		}

		Convey("When tabulating with window=2", func() {
			rows := comparison.Tabulate(series, 2015, 2)

			Convey("Then pre is [split-2, split) and post is [split, split+2]", func() {
				So(rows[0].PreMean, ShouldAlmostEqual, 3, 1e-9)  // {2,4}
				So(rows[0].PostMean, ShouldAlmostEqual, 7, 1e-9) // {6,8}
			})
		})
	})
}
