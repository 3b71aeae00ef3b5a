package importer

import (
	"context"
	"fmt"
	"sort"

	"github.com/EmpoweredVote/refdata/internal/lines"
	"github.com/EmpoweredVote/refdata/internal/rows"
	"github.com/EmpoweredVote/refdata/internal/source"
)

// LabelCount is how often a label occurs in the schools file.
type LabelCount struct {
	Label string
	Count int
}

// Survey lists the distinct labels the schools file uses for the lookup
// tables, so SchoolLevels and SchoolGrades can be populated before import.
type Survey struct {
	Rows        int
	Levels      []LabelCount
	Grades      []LabelCount
	SchoolTypes []LabelCount
}

// SurveySchools scans a schools file without touching the store.
func SurveySchools(ctx context.Context, opener *source.Opener, location string) (Survey, error) {
	if opener == nil {
		opener = &source.Opener{}
	}
	rc, err := opener.Open(ctx, location)
	if err != nil {
		return Survey{}, fmt.Errorf("open %s: %w", location, err)
	}
	defer rc.Close()

	levels, grades, types := map[string]int{}, map[string]int{}, map[string]int{}
	var n int
	lr := lines.NewReader(rc)
	for lr.Next() {
		n++
		rec, err := bind(schoolsSchema, lr, rows.Comma)
		if err != nil {
			return Survey{}, fmt.Errorf("%s: %w", location, err)
		}
		row, err := parseSchool(rec)
		if err != nil {
			return Survey{}, fmt.Errorf("%s: %w", location, err)
		}
		levels[row.level]++
		grades[row.lowest]++
		grades[row.highest]++
		types[row.school.SchoolType]++
	}
	if err := lr.Err(); err != nil {
		return Survey{}, fmt.Errorf("%s: %w", location, err)
	}
	return Survey{
		Rows:        n,
		Levels:      sortedCounts(levels),
		Grades:      sortedCounts(grades),
		SchoolTypes: sortedCounts(types),
	}, nil
}

func sortedCounts(m map[string]int) []LabelCount {
	out := make([]LabelCount, 0, len(m))
	for k, v := range m {
		out = append(out, LabelCount{Label: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
