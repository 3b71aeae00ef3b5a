// Package importer loads the Census geography and public-schools reference
// files into the target store, one file per step.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/EmpoweredVote/refdata/internal/lines"
	"github.com/EmpoweredVote/refdata/internal/logging"
	"github.com/EmpoweredVote/refdata/internal/metrics"
	"github.com/EmpoweredVote/refdata/internal/refdata"
	"github.com/EmpoweredVote/refdata/internal/source"
	"gorm.io/gorm"
)

// Stats describes one file's import.
type Stats struct {
	Dataset  string
	Location string
	// Read counts data lines; Emitted counts statements built (dry run) or
	// executed (commit).
	Read       int
	Emitted    int
	Skipped    int
	Unresolved int
	PerTable   map[string]int
	Duration   time.Duration
	Committed  bool
	// Plan is set for dry runs.
	Plan []PlannedTable
}

type Importer struct {
	DB      *gorm.DB
	Opener  *source.Opener
	Log     *slog.Logger
	Metrics *metrics.Recorder

	// Commit runs each file inside one transaction. When false statements
	// are only recorded.
	Commit bool
	// Policies per step; steps without an entry use PolicySkip.
	Policies map[Step]Policy
	// Locations per step, used by ImportAll.
	Locations map[Step]string
}

func (im *Importer) policy(step Step) Policy {
	if p, ok := im.Policies[step]; ok {
		return p
	}
	return PolicySkip
}

func (im *Importer) logger() *slog.Logger {
	if im.Log == nil {
		return logging.Discard()
	}
	return im.Log
}

// Import runs one step against the file at location.
func (im *Importer) Import(ctx context.Context, step Step, location string) (Stats, error) {
	def, ok := steps[step]
	if !ok {
		return Stats{}, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	log := im.logger().With("dataset", string(step), "location", location)
	start := time.Now()
	stats := Stats{Dataset: string(step), Location: location, PerTable: map[string]int{}}

	err := im.importFile(ctx, step, def, location, log, &stats)
	stats.Duration = time.Since(start)
	im.record(stats, err == nil)
	if err != nil {
		log.Error("import failed", "error", err, "read", stats.Read, logging.Since(start))
		return stats, err
	}

	log.Info("import finished",
		"committed", stats.Committed,
		"read", stats.Read,
		"emitted", stats.Emitted,
		"skipped", stats.Skipped,
		"unresolved", stats.Unresolved,
		logging.Since(start),
	)
	return stats, nil
}

func (im *Importer) importFile(ctx context.Context, step Step, def stepDef, location string, log *slog.Logger, stats *Stats) error {
	opener := im.Opener
	if opener == nil {
		opener = &source.Opener{}
	}
	rc, err := opener.Open(ctx, location)
	if err != nil {
		return fmt.Errorf("open %s: %w", location, err)
	}
	defer rc.Close()

	lookups, err := im.loadLookups(ctx, def.lookups)
	if err != nil {
		return err
	}

	r := &run{
		dataset: string(step),
		lookups: lookups,
		policy:  im.policy(step),
		log:     log,
		stats:   stats,
	}
	lr := lines.NewReader(rc)
	runWith := func(exec Executor) error {
		r.exec = exec
		if err := def.run(ctx, r, lr); err != nil {
			return fmt.Errorf("%s: %w", location, err)
		}
		return nil
	}

	if !im.Commit {
		plan := NewPlan(log)
		if err := runWith(plan); err != nil {
			return err
		}
		stats.Plan = plan.Tables()
		return nil
	}

	if err := im.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return runWith(&GormExecutor{DB: tx})
	}); err != nil {
		return err
	}
	stats.Committed = true
	return nil
}

func (im *Importer) loadLookups(ctx context.Context, need lookupNeed) (*refdata.Lookups, error) {
	switch need {
	case needCounties:
		return refdata.LoadCounties(ctx, im.DB)
	case needAll:
		return refdata.Load(ctx, im.DB)
	}
	return refdata.New(nil, nil, nil), nil
}

func (im *Importer) record(stats Stats, ok bool) {
	if im.Metrics == nil {
		return
	}
	im.Metrics.AddRows(stats.Dataset, metrics.OutcomeRead, stats.Read)
	im.Metrics.AddRows(stats.Dataset, metrics.OutcomeEmitted, stats.Emitted)
	im.Metrics.AddRows(stats.Dataset, metrics.OutcomeSkipped, stats.Skipped)
	im.Metrics.AddRows(stats.Dataset, metrics.OutcomeUnresolved, stats.Unresolved)
	im.Metrics.ObserveRun(stats.Dataset, stats.Duration, ok)
}

// ImportAll runs every step in Steps order from Locations, stopping at the
// first failure. Stats for the steps that ran are returned either way.
func (im *Importer) ImportAll(ctx context.Context) ([]Stats, error) {
	var out []Stats
	for _, step := range Steps {
		location, ok := im.Locations[step]
		if !ok || location == "" {
			return out, fmt.Errorf("no location configured for %s", step)
		}
		stats, err := im.Import(ctx, step, location)
		out = append(out, stats)
		if err != nil {
			return out, fmt.Errorf("%s: %w", step, err)
		}
	}
	return out, nil
}
