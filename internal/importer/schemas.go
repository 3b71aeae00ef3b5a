package importer

import (
	"github.com/EmpoweredVote/refdata/internal/geo"
	"github.com/EmpoweredVote/refdata/internal/rows"
)

// Positional layouts of the source files.
var (
	stateGeocodesSchema = rows.NewSchema("state_geocodes",
		rows.Column{Name: "region", Index: 0},
		rows.Column{Name: "division", Index: 1},
		rows.Column{Name: "state", Index: 2},
		rows.Column{Name: "name", Index: 3},
	)

	allGeocodesSchema = rows.NewSchema("all_geocodes",
		rows.Column{Name: "summary", Index: 0},
		rows.Column{Name: "state", Index: 1},
		rows.Column{Name: "county", Index: 2},
		rows.Column{Name: "subdivision", Index: 3},
		rows.Column{Name: "place", Index: 4},
		rows.Column{Name: "city", Index: 5},
		rows.Column{Name: "name", Index: 6},
	)

	tractPumaSchema = rows.NewSchema("tract_puma",
		rows.Column{Name: "state", Index: 0},
		rows.Column{Name: "county", Index: 1},
		rows.Column{Name: "tract", Index: 2},
		rows.Column{Name: "puma", Index: 3},
	)

	schoolsSchema = rows.NewSchema("schools", schoolColumns()...)
)

// gradeFlagColumns name the has-grade flags in the schools file, in
// geo.GradeColumns order.
var gradeFlagColumns = [geo.GradeCount]string{
	"has_prek", "has_kindergarten",
	"has_1", "has_2", "has_3", "has_4", "has_5", "has_6",
	"has_7", "has_8", "has_9", "has_10", "has_11", "has_12", "has_13",
}

const firstGradeFlag = 21

func schoolColumns() []rows.Column {
	cols := []rows.Column{
		{Name: "state_name", Index: 1},
		{Name: "name", Index: 3},
		{Name: "county_name", Index: 4},
		{Name: "county_fips", Index: 5},
		{Name: "nces_id", Index: 6},
		{Name: "state_fips", Index: 7},
		{Name: "address", Index: 8},
		{Name: "city", Index: 11},
		{Name: "zip", Index: 12},
		{Name: "level", Index: 18},
		{Name: "lowest_grade", Index: 19},
		{Name: "highest_grade", Index: 20},
		{Name: "school_type", Index: 36},
		{Name: "is_charter", Index: 37},
		{Name: "is_magnet", Index: 38},
		{Name: "latitude", Index: 39},
		{Name: "longitude", Index: 40},
	}
	for i, name := range gradeFlagColumns {
		cols = append(cols, rows.Column{Name: name, Index: firstGradeFlag + i})
	}
	return cols
}
