package importer

import (
	"fmt"

	"github.com/EmpoweredVote/refdata/internal/geo"
	"github.com/EmpoweredVote/refdata/internal/refdata"
	"github.com/EmpoweredVote/refdata/internal/rows"
)

// schoolRow is a parsed schools line whose foreign keys are still labels.
type schoolRow struct {
	school geo.School

	stateName  string
	countyName string
	countyFips string
	stateFips  string

	level   string
	lowest  string
	highest string
}

func parseSchool(rec rows.Record) (schoolRow, error) {
	var (
		row schoolRow
		err error
	)
	text := func(col string, dst *string) {
		if err != nil {
			return
		}
		*dst, err = rec.Text(col)
	}
	flag := func(col string, dst *bool) {
		if err != nil {
			return
		}
		var v string
		v, err = rec.Text(col)
		*dst = geo.HasFlag(v)
	}

	s := &row.school
	text("name", &s.Name)
	text("state_name", &row.stateName)
	text("county_name", &row.countyName)
	text("county_fips", &row.countyFips)
	text("nces_id", &s.NcesID)
	text("state_fips", &row.stateFips)
	text("address", &s.Address)
	text("city", &s.City)
	text("zip", &s.Zip)
	text("level", &row.level)
	text("lowest_grade", &row.lowest)
	text("highest_grade", &row.highest)
	for i, col := range gradeFlagColumns {
		flag(col, &s.Grades[i])
	}
	var schoolType string
	text("school_type", &schoolType)
	s.SchoolType = geo.SchoolType(schoolType)
	flag("is_charter", &s.IsCharter)
	flag("is_magnet", &s.IsMagnet)
	if err != nil {
		return schoolRow{}, err
	}

	if s.Latitude, err = rec.Float("latitude"); err != nil {
		return schoolRow{}, err
	}
	if s.Longitude, err = rec.Float("longitude"); err != nil {
		return schoolRow{}, err
	}

	stateID, _, ferr := geo.SplitCountyFips(row.countyFips)
	if ferr != nil {
		return schoolRow{}, &rows.FieldError{Line: rec.Line(), Column: "county_fips", Value: row.countyFips, Err: ferr}
	}
	s.StateID = stateID
	return row, nil
}

// resolve fills the foreign keys. The returned error, if any, names the
// first lookup that missed; Dataset and Line are left for the caller.
func (row schoolRow) resolve(l *refdata.Lookups) (geo.School, *UnresolvedError) {
	s := row.school
	_, suffix, _ := geo.SplitCountyFips(row.countyFips)

	county, ok := l.County(s.StateID, suffix)
	if !ok {
		return geo.School{}, &UnresolvedError{Ref: "county", Key: fmt.Sprintf("fips %s (%s, %s)", row.countyFips, row.countyName, row.stateName)}
	}
	s.CountyID = county.ID

	if s.Level, ok = l.Level(row.level); !ok {
		return geo.School{}, &UnresolvedError{Ref: "level", Key: fmt.Sprintf("%q", row.level)}
	}
	if s.LowestGrade, ok = l.Grade(row.lowest); !ok {
		return geo.School{}, &UnresolvedError{Ref: "grade", Key: fmt.Sprintf("%q", row.lowest)}
	}
	if s.HighestGrade, ok = l.Grade(row.highest); !ok {
		return geo.School{}, &UnresolvedError{Ref: "grade", Key: fmt.Sprintf("%q", row.highest)}
	}
	return s, nil
}
