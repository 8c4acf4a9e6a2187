package pivot_test

import (
	"testing"

	"github.com/agrolens/agrolens/internal/domain/model"
	pivot "github.com/agrolens/agrolens/internal/domain/pivot"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTable(t *testing.T) {
	Convey("Given a flat metric panel", t, func() {
		rows := []model.MetricObservation{
			{UnitID: "dist-a", Year: 2010, Variable: "wheat_area", Value: 120},
			{UnitID: "dist-a", Year: 2010, Variable: "wheat_production", Value: 360},
			{UnitID: "dist-a", Year: 2010, Variable: "wheat_yield", Value: 3},
			{UnitID: "dist-b", Year: 2010, Variable: "wheat_yield", Value: 2.5},
			{UnitID: "dist-a", Year: 2011, Variable: "wheat_area", Value: 130},
		}

		Convey("When pivoting the rows", func() {
			table := pivot.Table(rows)

			Convey("Then it should group by year then unit", func() {
				So(table, ShouldHaveLength, 2)
				So(table[2010], ShouldHaveLength, 2)
				So(table[2010]["dist-a"].Area, ShouldEqual, 120)
				So(table[2010]["dist-a"].Production, ShouldEqual, 360)
				So(table[2010]["dist-a"].Yield, ShouldEqual, 3)
			})

			Convey("And unset slots should stay at zero", func() {
				So(table[2010]["dist-b"].Area, ShouldEqual, 0)
				So(table[2010]["dist-b"].Production, ShouldEqual, 0)
				So(table[2010]["dist-b"].Yield, ShouldEqual, 2.5)
				So(table[2011]["dist-a"].Yield, ShouldEqual, 0)
			})

			Convey("And Years should come back sorted ascending", func() {
				So(table.Years(), ShouldResemble, []int{2010, 2011})
			})
		})
	})
}

func TestTableUnknownVariables(t *testing.T) {
	Convey("Given rows with unknown variable suffixes", t, func() {
		rows := []model.MetricObservation{
			{UnitID: "dist-a", Year: 2010, Variable: "wheat_yield", Value: 3},
			{UnitID: "dist-a", Year: 2010, Variable: "wheat_moisture", Value: 14},
			{UnitID: "dist-a", Year: 2010, Variable: "nosuffix", Value: 1},
		}

		Convey("When pivoting the rows", func() {
			table := pivot.Table(rows)

			Convey("Then unknown variables should be ignored, not rejected", func() {
				So(table, ShouldHaveLength, 1)
				So(table[2010]["dist-a"].Yield, ShouldEqual, 3)
				So(table[2010]["dist-a"].Area, ShouldEqual, 0)
			})
		})
	})
}

func TestTableEmpty(t *testing.T) {
	Convey("Given no rows", t, func() {
		Convey("When pivoting", func() {
			table := pivot.Table(nil)

			Convey("Then the table should be empty but usable", func() {
				So(table, ShouldHaveLength, 0)
				So(table.Years(), ShouldHaveLength, 0)
			})
		})
	})
}

func TestTableLastWriteWins(t *testing.T) {
	Convey("Given duplicate rows for the same slot", t, func() {
		rows := []model.MetricObservation{
			{UnitID: "dist-a", Year: 2010, Variable: "wheat_yield", Value: 3},
			{UnitID: "dist-a", Year: 2010, Variable: "wheat_yield", Value: 4},
		}

		Convey("When pivoting the rows", func() {
			table := pivot.Table(rows)

			Convey("Then the later row should win", func() {
				So(table[2010]["dist-a"].Yield, ShouldEqual, 4)
			})
		})
	})
}
