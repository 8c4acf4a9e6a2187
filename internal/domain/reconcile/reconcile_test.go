package reconcile_test

import (
	"testing"

	"github.com/agrolens/agrolens/internal/domain/model"
	"github.com/agrolens/agrolens/internal/domain/reconcile"
	. "github.com/smartystreets/goconvey/convey"
)

// splitTable models a parent "old" that splits into "north" and "south"
// in 2015. The source system backfills child rows before the split and
// keeps reporting the parent afterwards.
func splitTable() model.YearTable {
	return model.YearTable{
		2013: {
			"old":   {Area: 100, Production: 300, Yield: 3.0},
			"north": {Area: 60, Production: 150, Yield: 2.5}, // backfilled artifact
		},
		2014: {
			"old": {Area: 100, Production: 320, Yield: 3.2},
		},
		2015: {
			"old":   {Area: 100, Production: 310, Yield: 3.1},
			"north": {Area: 60, Production: 240, Yield: 4.0},
			"south": {Area: 40, Production: 80, Yield: 2.0},
		},
		2016: {
			"north": {Area: 50, Production: 150, Yield: 3.0},
			"south": {Area: 0, Production: 0, Yield: 0}, // fallow year, no area
		},
		2017: {
			"north": {Area: 0},
			"south": {Area: 0},
		},
	}
}

func TestMerged(t *testing.T) {
	Convey("Given a parent split into two children in 2015", t, func() {
		table := splitTable()
		children := []string{"north", "south"}

		Convey("When building the merged yield series", func() {
			series := reconcile.Merged(table, "old", children, 2015, reconcile.Yield)

			Convey("Then pre-split years should carry the parent's raw value", func() {
				So(series[0], ShouldResemble, reconcile.MergedPoint{Year: 2013, Value: 3.0})
				So(series[1], ShouldResemble, reconcile.MergedPoint{Year: 2014, Value: 3.2})
			})

			Convey("And post-split years should carry the area-weighted child aggregate", func() {
				// (4.0*60 + 2.0*40) / 100 = 3.2
				So(series[2].Year, ShouldEqual, 2015)
				So(series[2].Value, ShouldAlmostEqual, 3.2, 1e-9)
			})

			Convey("And a child with zero area should not contribute", func() {
				// 2016: south has no area, so the aggregate is north alone.
				So(series[3].Year, ShouldEqual, 2016)
				So(series[3].Value, ShouldAlmostEqual, 3.0, 1e-9)
			})

			Convey("And years with no contributing area should be skipped, not zero-filled", func() {
				for _, p := range series {
					So(p.Year, ShouldNotEqual, 2017)
				}
				So(series, ShouldHaveLength, 4)
			})
		})

		Convey("When building the merged area series", func() {
			series := reconcile.Merged(table, "old", children, 2015, reconcile.Area)

			Convey("Then post-split area should be the contributing sum", func() {
				So(series[2], ShouldResemble, reconcile.MergedPoint{Year: 2015, Value: 100})
				So(series[3], ShouldResemble, reconcile.MergedPoint{Year: 2016, Value: 50})
			})
		})

		Convey("When the parent has no record in a pre-split year", func() {
			delete(table[2014], "old")
			series := reconcile.Merged(table, "old", children, 2015, reconcile.Yield)

			Convey("Then that year should be absent from the series", func() {
				So(series, ShouldHaveLength, 3)
				So(series[1].Year, ShouldEqual, 2015)
			})
		})

		Convey("When no children are known for the split", func() {
			series := reconcile.Merged(table, "old", nil, 2015, reconcile.Yield)

			Convey("Then only pre-split parent points should remain", func() {
				// 2015 onward depends on the child aggregate, which no
				// longer exists; the parent's own 2015 row must not leak
				// through as a substitute.
				So(series, ShouldHaveLength, 2)
				So(series[0], ShouldResemble, reconcile.MergedPoint{Year: 2013, Value: 3.0})
				So(series[1], ShouldResemble, reconcile.MergedPoint{Year: 2014, Value: 3.2})
				for _, p := range series {
					So(p.Year, ShouldBeLessThan, 2015)
				}
			})
		})

		Convey("When the series is rebuilt from the same table", func() {
			first := reconcile.Merged(table, "old", children, 2015, reconcile.Yield)
			second := reconcile.Merged(table, "old", children, 2015, reconcile.Yield)

			Convey("Then the output should be deterministic", func() {
				So(second, ShouldResemble, first)
			})
		})
	})
}

func TestParallel(t *testing.T) {
	Convey("Given a parent split into two children in 2015", t, func() {
		table := splitTable()
		children := []string{"north", "south"}

		Convey("When building the parallel yield series", func() {
			series := reconcile.Parallel(table, "old", children, 2015, reconcile.Yield)

			Convey("Then backfilled child rows before the split should be suppressed", func() {
				So(series[0].Year, ShouldEqual, 2013)
				So(series[0].Children, ShouldBeEmpty)
				So(*series[0].Parent, ShouldEqual, 3.0)
			})

			Convey("And the parent should keep reporting after the split", func() {
				So(series[2].Year, ShouldEqual, 2015)
				So(*series[2].Parent, ShouldEqual, 3.1)
				So(series[2].Children, ShouldResemble, map[string]float64{"north": 4.0, "south": 2.0})
			})

			Convey("And years with neither parent nor child data should be dropped", func() {
				// 2016 keeps raw child values even at zero area; 2017 has
				// no parent record and zero-valued children still emit.
				So(series[3].Year, ShouldEqual, 2016)
				So(series[3].Parent, ShouldBeNil)
				So(series[3].Children["north"], ShouldEqual, 3.0)
			})
		})

		Convey("When the parent never reports", func() {
			for _, units := range table {
				delete(units, "old")
			}
			series := reconcile.Parallel(table, "old", children, 2015, reconcile.Yield)

			Convey("Then only post-split child points should remain", func() {
				for _, p := range series {
					So(p.Parent, ShouldBeNil)
					So(p.Year, ShouldBeGreaterThanOrEqualTo, 2015)
				}
			})
		})
	})
}

func TestAggregate(t *testing.T) {
	Convey("Given a year's unit records", t, func() {
		units := map[string]model.UnitMetrics{
			"a": {Area: 10, Production: 40, Yield: 4.0},
			"b": {Area: 30, Production: 60, Yield: 2.0},
			"c": {Area: 0, Production: 99, Yield: 9.9},
		}

		Convey("When aggregating yield", func() {
			v, ok := reconcile.Aggregate(units, []string{"a", "b", "c"}, reconcile.Yield)

			Convey("Then it should be the area-weighted mean of contributing units", func() {
				So(ok, ShouldBeTrue)
				// (4*10 + 2*30) / 40 = 2.5; "c" is excluded by zero area.
				So(v, ShouldAlmostEqual, 2.5, 1e-9)
			})
		})

		Convey("When aggregating production", func() {
			v, ok := reconcile.Aggregate(units, []string{"a", "b", "c"}, reconcile.Production)

			Convey("Then zero-area units should be excluded from the sum", func() {
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 100)
			})
		})

		Convey("When no unit contributes area", func() {
			v, ok := reconcile.Aggregate(units, []string{"c", "missing"}, reconcile.Yield)

			Convey("Then the aggregate should report absence", func() {
				So(ok, ShouldBeFalse)
				So(v, ShouldEqual, 0)
			})
		})
	})
}

func TestParseMetric(t *testing.T) {
	Convey("Given metric request strings", t, func() {
		Convey("Then known names should parse case-insensitively", func() {
			m, err := reconcile.ParseMetric(" Yield ")
			So(err, ShouldBeNil)
			So(m, ShouldEqual, reconcile.Yield)

			m, err = reconcile.ParseMetric("area")
			So(err, ShouldBeNil)
			So(m, ShouldEqual, reconcile.Area)

			m, err = reconcile.ParseMetric("production")
			So(err, ShouldBeNil)
			So(m, ShouldEqual, reconcile.Production)
		})

		Convey("And the empty string should default to yield", func() {
			m, err := reconcile.ParseMetric("")
			So(err, ShouldBeNil)
			So(m, ShouldEqual, reconcile.Yield)
		})

		Convey("And unknown names should fail with the sentinel", func() {
			_, err := reconcile.ParseMetric("moisture")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown metric")
		})
	})
}

func TestParseMode(t *testing.T) {
	Convey("Given mode request strings", t, func() {
		Convey("Then canonical names and aliases should parse", func() {
			for _, s := range []string{"", "before_after", "merged"} {
				m, err := reconcile.ParseMode(s)
				So(err, ShouldBeNil)
				So(m, ShouldEqual, reconcile.BeforeAfter)
			}
			for _, s := range []string{"parent_child", "entity_comparison", "parallel"} {
				m, err := reconcile.ParseMode(s)
				So(err, ShouldBeNil)
				So(m, ShouldEqual, reconcile.ParentChild)
			}
		})

		Convey("And unknown modes should fail with the sentinel", func() {
			_, err := reconcile.ParseMode("sideways")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown mode")
		})
	})
}
