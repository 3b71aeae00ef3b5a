package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/EmpoweredVote/refdata/internal/geo"
	"gorm.io/gorm"
)

// Statement is one parameterized insert. SQL uses @name placeholders bound
// from Args.
type Statement struct {
	Table string
	SQL   string
	Args  map[string]any
}

// Executor runs statements in file order.
type Executor interface {
	Exec(ctx context.Context, stmt Statement) error
}

// GormExecutor executes statements on a gorm handle, normally the per-file
// transaction.
type GormExecutor struct {
	DB *gorm.DB
}

func (e *GormExecutor) Exec(ctx context.Context, stmt Statement) error {
	if err := e.DB.WithContext(ctx).Exec(stmt.SQL, stmt.Args).Error; err != nil {
		return fmt.Errorf("insert into %s: %w", stmt.Table, err)
	}
	return nil
}

// Plan records statements instead of running them.
type Plan struct {
	log    *slog.Logger
	counts map[string]int
	first  map[string]Statement
	order  []string
}

func NewPlan(log *slog.Logger) *Plan {
	return &Plan{log: log, counts: map[string]int{}, first: map[string]Statement{}}
}

func (p *Plan) Exec(_ context.Context, stmt Statement) error {
	if _, seen := p.counts[stmt.Table]; !seen {
		p.order = append(p.order, stmt.Table)
		p.first[stmt.Table] = stmt
	}
	p.counts[stmt.Table]++
	p.log.Debug("dry run", "table", stmt.Table, "args", stmt.Args)
	return nil
}

// PlannedTable summarizes what a dry run would have written to one table.
type PlannedTable struct {
	Table      string
	Statements int
	Example    Statement
}

// Tables returns per-table totals in first-seen order.
func (p *Plan) Tables() []PlannedTable {
	out := make([]PlannedTable, 0, len(p.order))
	for _, t := range p.order {
		out = append(out, PlannedTable{Table: t, Statements: p.counts[t], Example: p.first[t]})
	}
	return out
}

func insert(table string, cols []string, args map[string]any) Statement {
	params := make([]string, len(cols))
	for i, c := range cols {
		params[i] = "@" + c
	}
	return Statement{
		Table: table,
		SQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(cols, ", "), strings.Join(params, ", ")),
		Args: args,
	}
}

func RegionStatement(r geo.Region) Statement {
	return insert(r.TableName(), []string{"Id", "Name"}, map[string]any{
		"Id":   r.ID,
		"Name": r.Name,
	})
}

func DivisionStatement(d geo.Division) Statement {
	return insert(d.TableName(), []string{"Id", "Name", "RegionId"}, map[string]any{
		"Id":       d.ID,
		"Name":     d.Name,
		"RegionId": d.RegionID,
	})
}

func StateStatement(s geo.State) Statement {
	return insert(s.TableName(), []string{"Id", "Name", "RegionId", "DivisionId"}, map[string]any{
		"Id":         s.ID,
		"Name":       s.Name,
		"RegionId":   s.RegionID,
		"DivisionId": s.DivisionID,
	})
}

// GeocodeStatement builds the insert for whichever record g holds.
func GeocodeStatement(g geo.Geocode) Statement {
	switch g.Kind {
	case geo.KindRegion:
		return RegionStatement(*g.Region)
	case geo.KindDivision:
		return DivisionStatement(*g.Division)
	default:
		return StateStatement(*g.State)
	}
}

// CountyStatement leaves Id to the store.
func CountyStatement(c geo.County) Statement {
	return insert(c.TableName(), []string{"Name", "StateId", "Fips"}, map[string]any{
		"Name":    c.Name,
		"StateId": c.StateID,
		"Fips":    c.Fips,
	})
}

func TractStatement(t geo.CensusTract) Statement {
	return insert(t.TableName(), []string{"Tract", "StateId", "CountyId", "PumaCode"}, map[string]any{
		"Tract":    t.Tract,
		"StateId":  t.StateID,
		"CountyId": t.CountyID,
		"PumaCode": t.PumaCode,
	})
}

func SchoolStatement(s geo.School) Statement {
	cols := []string{"Name", "StateId", "CountyId", "Address", "City", "Zip", "NcesId",
		"Level", "LowestGrade", "HighestGrade"}
	args := map[string]any{
		"Name":         s.Name,
		"StateId":      s.StateID,
		"CountyId":     s.CountyID,
		"Address":      s.Address,
		"City":         s.City,
		"Zip":          s.Zip,
		"NcesId":       s.NcesID,
		"Level":        s.Level,
		"LowestGrade":  s.LowestGrade,
		"HighestGrade": s.HighestGrade,
		"SchoolType":   s.SchoolType,
		"IsCharter":    s.IsCharter,
		"IsMagnet":     s.IsMagnet,
		"Latitude":     s.Latitude,
		"Longitude":    s.Longitude,
	}
	for i, c := range geo.GradeColumns {
		cols = append(cols, c)
		args[c] = s.Grades[i]
	}
	cols = append(cols, "SchoolType", "IsCharter", "IsMagnet", "Latitude", "Longitude")
	return insert(s.TableName(), cols, args)
}
