// Package geo holds the Census geography and school records the importer
// writes, and the rules that decide what a source row represents.
package geo

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is what a state_geocodes row describes.
type Kind int

const (
	KindRegion Kind = iota + 1
	KindDivision
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindRegion:
		return "region"
	case KindDivision:
		return "division"
	case KindState:
		return "state"
	}
	return "unknown"
}

// Geocode is a classified state_geocodes row. Exactly one of Region,
// Division and State is set, matching Kind.
type Geocode struct {
	Kind     Kind
	Region   *Region
	Division *Division
	State    *State
}

// ClassifyGeocode decides from the zero-ness of division and state whether a
// row is a region, a division or a state.
func ClassifyGeocode(regionID, divisionID, stateID int, name string) Geocode {
	switch {
	case divisionID == 0 && stateID == 0:
		return Geocode{Kind: KindRegion, Region: &Region{ID: regionID, Name: name}}
	case stateID == 0:
		return Geocode{Kind: KindDivision, Division: &Division{ID: divisionID, Name: name, RegionID: regionID}}
	default:
		return Geocode{Kind: KindState, State: &State{ID: stateID, Name: name, RegionID: regionID, DivisionID: divisionID}}
	}
}

// Sentinels used by all_geocodes for "the whole area".
const (
	WholeCounty = "000"
	WholeArea   = "00000"
)

// CountyKind is the granularity of an all_geocodes row.
type CountyKind int

const (
	// CountyRowDetail covers subdivisions, places and consolidated cities.
	CountyRowDetail CountyKind = iota
	CountyRowState
	CountyRowCounty
)

func (k CountyKind) String() string {
	switch k {
	case CountyRowState:
		return "state"
	case CountyRowCounty:
		return "county"
	}
	return "detail"
}

// ClassifyCountyRow reports the granularity of an all_geocodes row. Only
// CountyRowCounty rows are imported.
func ClassifyCountyRow(countyFips, subdivision, place, city string) CountyKind {
	switch {
	case countyFips == WholeCounty && subdivision == WholeArea && place == WholeArea && city == WholeArea:
		return CountyRowState
	case countyFips != WholeCounty && subdivision == WholeArea:
		return CountyRowCounty
	default:
		return CountyRowDetail
	}
}

// SplitCountyFips splits a combined 5-digit county FIPS into the state id
// and the 3-digit county code.
func SplitCountyFips(combined string) (int, string, error) {
	if len(combined) != 5 {
		return 0, "", fmt.Errorf("county fips %q: want 5 digits", combined)
	}
	stateID, err := strconv.Atoi(combined[:2])
	if err != nil {
		return 0, "", fmt.Errorf("county fips %q: state prefix: %w", combined, err)
	}
	return stateID, combined[2:], nil
}

// HasFlag reads the source's textual yes/no flags: anything starting with
// '1' is true.
func HasFlag(v string) bool {
	return strings.HasPrefix(v, "1")
}

// SchoolType keeps the code before the first '-' ("1-Regular" -> "1").
func SchoolType(v string) string {
	code, _, _ := strings.Cut(v, "-")
	return code
}
