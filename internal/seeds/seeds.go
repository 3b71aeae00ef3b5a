// Package seeds fills the SchoolLevels and SchoolGrades lookup tables from
// the labels a schools file actually uses.
package seeds

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/EmpoweredVote/refdata/internal/importer"
	"gorm.io/gorm"
)

// Table is a label lookup table: Id plus one text column.
type Table struct {
	Name   string
	Column string
}

var (
	Levels = Table{Name: "SchoolLevels", Column: "Level"}
	Grades = Table{Name: "SchoolGrades", Column: "Grade"}
)

// Result reports what seeding one table did, or would do in a dry run.
type Result struct {
	Table    string
	Added    []string
	Existing int
}

// Seed adds every label missing from t, numbering new rows after the
// current maximum Id. Existing rows are never changed. Nothing is written
// unless commit is set.
func Seed(ctx context.Context, db *gorm.DB, t Table, labels []string, commit bool) (Result, error) {
	res := Result{Table: t.Name}

	known, err := readLabels(ctx, db, t)
	if err != nil {
		return res, err
	}
	var maxID int
	if err := db.WithContext(ctx).Raw(`SELECT COALESCE(MAX(Id), 0) FROM ` + t.Name).Scan(&maxID).Error; err != nil {
		return res, fmt.Errorf("read max id of %s: %w", t.Name, err)
	}

	insert := fmt.Sprintf(`INSERT INTO %s (Id, %s) VALUES (@Id, @Label)`, t.Name, t.Column)
	added := map[string]bool{}
	for _, label := range labels {
		if added[label] {
			continue
		}
		if known[label] {
			res.Existing++
			continue
		}
		added[label] = true
		maxID++
		res.Added = append(res.Added, label)
		if !commit {
			continue
		}
		if err := db.WithContext(ctx).Exec(insert, map[string]any{"Id": maxID, "Label": label}).Error; err != nil {
			return res, fmt.Errorf("insert %q into %s: %w", label, t.Name, err)
		}
	}
	return res, nil
}

// SeedAll seeds levels and grades from a survey of the schools file inside
// one transaction.
func SeedAll(ctx context.Context, db *gorm.DB, survey importer.Survey, commit bool, log *slog.Logger) ([]Result, error) {
	var out []Result
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		levels, err := Seed(ctx, tx, Levels, labels(survey.Levels), commit)
		if err != nil {
			return err
		}
		grades, err := Seed(ctx, tx, Grades, SortGrades(labels(survey.Grades)), commit)
		if err != nil {
			return err
		}
		out = []Result{levels, grades}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, r := range out {
		log.Info("seeded lookup table", "table", r.Table, "added", len(r.Added), "existing", r.Existing, "committed", commit)
	}
	return out, nil
}

func labels(counts []importer.LabelCount) []string {
	out := make([]string, 0, len(counts))
	for _, c := range counts {
		if c.Label == "" {
			continue
		}
		out = append(out, c.Label)
	}
	return out
}

// SortGrades orders grade labels PK, KG, then numerically, then anything
// else alphabetically.
func SortGrades(grades []string) []string {
	out := append([]string(nil), grades...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := gradeRank(out[i]), gradeRank(out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i] < out[j]
	})
	return out
}

func gradeRank(g string) int {
	switch g {
	case "PK":
		return -1
	case "KG":
		return 0
	}
	if n, err := strconv.Atoi(g); err == nil && n >= 0 {
		return n
	}
	return 100
}

func readLabels(ctx context.Context, db *gorm.DB, t Table) (map[string]bool, error) {
	rows, err := db.WithContext(ctx).Raw(fmt.Sprintf(`SELECT %s FROM %s`, t.Column, t.Name)).Rows()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.Name, err)
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("read %s: %w", t.Name, err)
		}
		out[label] = true
	}
	return out, rows.Err()
}
