// Package refdata materializes the lookup tables later imports resolve
// foreign keys against.
package refdata

import (
	"context"
	"fmt"

	"github.com/EmpoweredVote/refdata/internal/geo"
	"gorm.io/gorm"
)

// Lookups is built once per import run and never modified.
type Lookups struct {
	counties map[int][]geo.County
	levels   map[string]int
	grades   map[string]int
	total    int
}

// New copies its inputs. Counties keep their slice order within a state.
func New(counties []geo.County, levels, grades map[string]int) *Lookups {
	l := &Lookups{
		counties: make(map[int][]geo.County),
		levels:   make(map[string]int, len(levels)),
		grades:   make(map[string]int, len(grades)),
		total:    len(counties),
	}
	for _, c := range counties {
		l.counties[c.StateID] = append(l.counties[c.StateID], c)
	}
	for k, v := range levels {
		l.levels[k] = v
	}
	for k, v := range grades {
		l.grades[k] = v
	}
	return l
}

// County finds the county with the given 3-digit FIPS inside a state.
func (l *Lookups) County(stateID int, fips string) (geo.County, bool) {
	for _, c := range l.counties[stateID] {
		if c.Fips == fips {
			return c, true
		}
	}
	return geo.County{}, false
}

func (l *Lookups) HasState(stateID int) bool {
	_, ok := l.counties[stateID]
	return ok
}

func (l *Lookups) Level(label string) (int, bool) {
	id, ok := l.levels[label]
	return id, ok
}

func (l *Lookups) Grade(label string) (int, bool) {
	id, ok := l.grades[label]
	return id, ok
}

func (l *Lookups) CountyCount() int { return l.total }
func (l *Lookups) LevelCount() int  { return len(l.levels) }
func (l *Lookups) GradeCount() int  { return len(l.grades) }

// Load reads Counties, SchoolLevels and SchoolGrades.
func Load(ctx context.Context, db *gorm.DB) (*Lookups, error) {
	counties, err := readCounties(ctx, db)
	if err != nil {
		return nil, err
	}
	levels, err := readLabels(ctx, db, `SELECT Id, Level FROM SchoolLevels`)
	if err != nil {
		return nil, fmt.Errorf("read school levels: %w", err)
	}
	grades, err := readLabels(ctx, db, `SELECT Id, Grade FROM SchoolGrades`)
	if err != nil {
		return nil, fmt.Errorf("read school grades: %w", err)
	}
	return New(counties, levels, grades), nil
}

// LoadCounties reads only the Counties table; level and grade lookups are
// empty.
func LoadCounties(ctx context.Context, db *gorm.DB) (*Lookups, error) {
	counties, err := readCounties(ctx, db)
	if err != nil {
		return nil, err
	}
	return New(counties, nil, nil), nil
}

func readCounties(ctx context.Context, db *gorm.DB) ([]geo.County, error) {
	rows, err := db.WithContext(ctx).Raw(`SELECT Id, Name, StateId, Fips FROM Counties ORDER BY StateId, Id`).Rows()
	if err != nil {
		return nil, fmt.Errorf("read counties: %w", err)
	}
	defer rows.Close()

	var out []geo.County
	for rows.Next() {
		var c geo.County
		if err := rows.Scan(&c.ID, &c.Name, &c.StateID, &c.Fips); err != nil {
			return nil, fmt.Errorf("scan county: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read counties: %w", err)
	}
	return out, nil
}

func readLabels(ctx context.Context, db *gorm.DB, query string) (map[string]int, error) {
	rows, err := db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			id    int
			label string
		)
		if err := rows.Scan(&id, &label); err != nil {
			return nil, err
		}
		out[label] = id
	}
	return out, rows.Err()
}
