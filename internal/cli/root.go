package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/EmpoweredVote/refdata/internal/config"
	"github.com/EmpoweredVote/refdata/internal/db"
	"github.com/EmpoweredVote/refdata/internal/importer"
	"github.com/EmpoweredVote/refdata/internal/logging"
	"github.com/EmpoweredVote/refdata/internal/metrics"
	"github.com/EmpoweredVote/refdata/internal/source"
	"github.com/spf13/cobra"
)

const rootLong = `refdata-import loads the Census geography files (regions, divisions,
states, counties, census tracts) and the US public schools directory into a
SQLite file or a Postgres database.

Imports are dry runs unless --commit is given. With --commit each file is
loaded inside one transaction: a failure leaves earlier files in place and
rolls back the current one.

Run the steps in order (states, counties, tracts, schools) or use "all".
Tracts and schools resolve county ids against committed counties.

Exit Codes:
  0  - Success
  1  - Import failed
  2  - CLI usage error (invalid arguments or flags)
  10 - Invalid configuration`

// rootOptions are the persistent flags. Only flags the user set override
// the configuration file and environment.
type rootOptions struct {
	configPath       string
	database         string
	dataDir          string
	commit           bool
	verbose          bool
	metricsFile      string
	onMissing        string
	tractsOnMissing  string
	schoolsOnMissing string
}

// Execute runs the command line against os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// NewRootCmd builds the command tree. Tables go to out, logs to errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	o := &rootOptions{}
	root := &cobra.Command{
		Use:          "refdata-import",
		Short:        "Load Census geography and public schools reference data",
		Long:         rootLong,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&o.database, "db", "", "SQLite file path or postgres:// URL (env REFDATA_DB)")
	pf.StringVar(&o.dataDir, "data-dir", "", "directory or s3://bucket/prefix holding the input files (env REFDATA_DATA_DIR)")
	pf.BoolVar(&o.commit, "commit", false, "execute inserts; without it the import is a dry run")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging, including every statement")
	pf.StringVar(&o.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile when done")
	pf.StringVar(&o.onMissing, "on-missing", "", "skip or abort on unresolved references, for every step")
	pf.StringVar(&o.tractsOnMissing, "tracts-on-missing", "", "skip or abort on unresolved counties while importing tracts")
	pf.StringVar(&o.schoolsOnMissing, "schools-on-missing", "", "skip or abort on unresolved references while importing schools")

	root.AddCommand(
		newImportCmd(o, importer.StepStates, "Import regions, divisions and states from state geocodes"),
		newImportCmd(o, importer.StepCounties, "Import counties from all geocodes"),
		newImportCmd(o, importer.StepTracts, "Import census tracts from the tract to PUMA file"),
		newImportCmd(o, importer.StepSchools, "Import public schools"),
		newAllCmd(o),
		newSchemaCmd(o),
		newSurveyCmd(o),
		newSeedLookupsCmd(o),
		newVersionCmd(),
	)
	return root
}

// noArgs is cobra.NoArgs reported as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError(err)
	}
	return nil
}

// resolveConfig layers the command-line flags the user set over the file
// and environment configuration.
func resolveConfig(cmd *cobra.Command, o *rootOptions) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, configError(err)
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database = o.database
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = o.dataDir
	}
	if flags.Changed("commit") {
		cfg.Commit = o.commit
	}
	if flags.Changed("verbose") {
		cfg.Verbose = o.verbose
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = o.metricsFile
	}
	if flags.Changed("on-missing") {
		cfg.OnMissing.Tracts = o.onMissing
		cfg.OnMissing.Schools = o.onMissing
	}
	if flags.Changed("tracts-on-missing") {
		cfg.OnMissing.Tracts = o.tractsOnMissing
	}
	if flags.Changed("schools-on-missing") {
		cfg.OnMissing.Schools = o.schoolsOnMissing
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// session is everything one command needs. Close releases the store.
type session struct {
	cfg     config.Config
	log     *slog.Logger
	store   *db.Store
	metrics *metrics.Recorder
	opener  *source.Opener
}

func openSession(cmd *cobra.Command, o *rootOptions) (*session, error) {
	cfg, err := resolveConfig(cmd, o)
	if err != nil {
		return nil, err
	}
	log, _ := logging.WithRun(logging.New(cmd.ErrOrStderr(), cfg.Verbose))
	log.Debug("starting", "command", cmd.Name(), "commit", cfg.Commit)

	store, err := db.Open(cmd.Context(), cfg.Database, db.Options{Verbose: cfg.Verbose, Logger: log})
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:     cfg,
		log:     log,
		store:   store,
		metrics: metrics.New(),
		opener:  &source.Opener{},
	}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// newImporter builds an importer from the session's configuration. A non-empty
// file overrides the configured location of the given step.
func (s *session) newImporter(step importer.Step, file string) (*importer.Importer, error) {
	policies := map[importer.Step]importer.Policy{}
	for st, name := range map[importer.Step]string{
		importer.StepTracts:  s.cfg.OnMissing.Tracts,
		importer.StepSchools: s.cfg.OnMissing.Schools,
	} {
		p, err := importer.ParsePolicy(name)
		if err != nil {
			return nil, configError(err)
		}
		policies[st] = p
	}

	locations := map[importer.Step]string{
		importer.StepStates:   source.Resolve(s.cfg.DataDir, s.cfg.Files.StateGeocodes),
		importer.StepCounties: source.Resolve(s.cfg.DataDir, s.cfg.Files.AllGeocodes),
		importer.StepTracts:   source.Resolve(s.cfg.DataDir, s.cfg.Files.TractPuma),
		importer.StepSchools:  source.Resolve(s.cfg.DataDir, s.cfg.Files.Schools),
	}
	if file != "" {
		locations[step] = source.Resolve(s.cfg.DataDir, file)
	}

	return &importer.Importer{
		DB:        s.store.DB,
		Opener:    s.opener,
		Log:       s.log,
		Metrics:   s.metrics,
		Commit:    s.cfg.Commit,
		Policies:  policies,
		Locations: locations,
	}, nil
}

// writeMetrics writes the textfile if one is configured. Failures are only
// logged.
func (s *session) writeMetrics() {
	if s.cfg.MetricsFile == "" {
		return
	}
	if err := s.metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
		s.log.Error("failed to write metrics", "path", s.cfg.MetricsFile, "error", err)
		return
	}
	s.log.Debug("metrics written", "path", s.cfg.MetricsFile)
}

func fprintf(w io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(w, format, a...)
}
