package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/EmpoweredVote/refdata/internal/geo"
	"github.com/EmpoweredVote/refdata/internal/lines"
	"github.com/EmpoweredVote/refdata/internal/refdata"
	"github.com/EmpoweredVote/refdata/internal/rows"
)

// Step names one dataset import.
type Step string

const (
	StepStates   Step = "states"
	StepCounties Step = "counties"
	StepTracts   Step = "tracts"
	StepSchools  Step = "schools"
)

// Steps is the order ImportAll runs in. Counties must be committed before
// tracts and schools, which resolve county ids against them.
var Steps = []Step{StepStates, StepCounties, StepTracts, StepSchools}

type lookupNeed int

const (
	needNothing lookupNeed = iota
	needCounties
	needAll
)

type stepDef struct {
	lookups lookupNeed
	run     func(ctx context.Context, r *run, lr *lines.Reader) error
}

var steps = map[Step]stepDef{
	StepStates:   {lookups: needNothing, run: importStates},
	StepCounties: {lookups: needNothing, run: importCounties},
	StepTracts:   {lookups: needCounties, run: importTracts},
	StepSchools:  {lookups: needAll, run: importSchools},
}

func ParseStep(s string) (Step, error) {
	if _, ok := steps[Step(s)]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStep, s)
	}
	return Step(s), nil
}

// run is the state one step works with. Lookups are read-only.
type run struct {
	dataset string
	exec    Executor
	lookups *refdata.Lookups
	policy  Policy
	log     *slog.Logger
	stats   *Stats
}

func (r *run) emit(ctx context.Context, line int, stmt Statement) error {
	if err := r.exec.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("%s line %d: %w", r.dataset, line, err)
	}
	r.stats.Emitted++
	r.stats.PerTable[stmt.Table]++
	return nil
}

func (r *run) skip(line int, reason string) {
	r.stats.Skipped++
	r.log.Debug("skipping row", "line", line, "reason", reason)
}

// unresolved applies the policy to a failed lookup. A nil return means the
// row is dropped and the import continues.
func (r *run) unresolved(e *UnresolvedError) error {
	r.stats.Unresolved++
	if r.policy == PolicyAbort {
		return e
	}
	r.log.Warn("skipping row with unresolved reference", "line", e.Line, "ref", e.Ref, "key", e.Key)
	return nil
}

func bind(s *rows.Schema, lr *lines.Reader, d rows.Delimiter) (rows.Record, error) {
	return s.Bind(rows.Split(lr.Line(), d), lr.LineNumber())
}

func importStates(ctx context.Context, r *run, lr *lines.Reader) error {
	for lr.Next() {
		r.stats.Read++
		rec, err := bind(stateGeocodesSchema, lr, rows.Tab)
		if err != nil {
			return err
		}
		g, err := parseGeocode(rec)
		if err != nil {
			return err
		}
		if err := r.emit(ctx, rec.Line(), GeocodeStatement(g)); err != nil {
			return err
		}
	}
	return lr.Err()
}

func parseGeocode(rec rows.Record) (geo.Geocode, error) {
	region, err := rec.Int("region")
	if err != nil {
		return geo.Geocode{}, err
	}
	division, err := rec.Int("division")
	if err != nil {
		return geo.Geocode{}, err
	}
	state, err := rec.Int("state")
	if err != nil {
		return geo.Geocode{}, err
	}
	name, err := rec.Text("name")
	if err != nil {
		return geo.Geocode{}, err
	}
	return geo.ClassifyGeocode(region, division, state, name), nil
}

func importCounties(ctx context.Context, r *run, lr *lines.Reader) error {
	for lr.Next() {
		r.stats.Read++
		rec, err := bind(allGeocodesSchema, lr, rows.Tab)
		if err != nil {
			return err
		}
		county, kind, err := parseCountyRow(rec)
		if err != nil {
			return err
		}
		if kind != geo.CountyRowCounty {
			r.skip(rec.Line(), kind.String())
			continue
		}
		if err := r.emit(ctx, rec.Line(), CountyStatement(county)); err != nil {
			return err
		}
	}
	return lr.Err()
}

func parseCountyRow(rec rows.Record) (geo.County, geo.CountyKind, error) {
	stateID, err := rec.Int("state")
	if err != nil {
		return geo.County{}, 0, err
	}
	var f [5]string
	for i, col := range []string{"county", "subdivision", "place", "city", "name"} {
		if f[i], err = rec.Text(col); err != nil {
			return geo.County{}, 0, err
		}
	}
	kind := geo.ClassifyCountyRow(f[0], f[1], f[2], f[3])
	return geo.County{Name: f[4], StateID: stateID, Fips: f[0]}, kind, nil
}

func importTracts(ctx context.Context, r *run, lr *lines.Reader) error {
	for lr.Next() {
		r.stats.Read++
		rec, err := bind(tractPumaSchema, lr, rows.Comma)
		if err != nil {
			return err
		}
		tract, fips, err := parseTract(rec)
		if err != nil {
			return err
		}
		county, ok := r.lookups.County(tract.StateID, fips)
		if !ok {
			if err := r.unresolved(&UnresolvedError{
				Dataset: r.dataset, Line: rec.Line(), Ref: "county",
				Key: fmt.Sprintf("state %d fips %s", tract.StateID, fips),
			}); err != nil {
				return err
			}
			continue
		}
		tract.CountyID = county.ID
		if err := r.emit(ctx, rec.Line(), TractStatement(tract)); err != nil {
			return err
		}
	}
	return lr.Err()
}

func parseTract(rec rows.Record) (geo.CensusTract, string, error) {
	stateID, err := rec.Int("state")
	if err != nil {
		return geo.CensusTract{}, "", err
	}
	var f [3]string
	for i, col := range []string{"county", "tract", "puma"} {
		if f[i], err = rec.Text(col); err != nil {
			return geo.CensusTract{}, "", err
		}
	}
	return geo.CensusTract{Tract: f[1], StateID: stateID, PumaCode: f[2]}, f[0], nil
}

func importSchools(ctx context.Context, r *run, lr *lines.Reader) error {
	for lr.Next() {
		r.stats.Read++
		rec, err := bind(schoolsSchema, lr, rows.Comma)
		if err != nil {
			return err
		}
		row, err := parseSchool(rec)
		if err != nil {
			return err
		}
		school, miss := row.resolve(r.lookups)
		if miss != nil {
			miss.Dataset, miss.Line = r.dataset, rec.Line()
			if err := r.unresolved(miss); err != nil {
				return err
			}
			continue
		}
		if err := r.emit(ctx, rec.Line(), SchoolStatement(school)); err != nil {
			return err
		}
	}
	return lr.Err()
}
