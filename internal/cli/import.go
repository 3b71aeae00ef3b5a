package cli

import (
	"errors"

	"github.com/EmpoweredVote/refdata/internal/db"
	"github.com/EmpoweredVote/refdata/internal/importer"
	"github.com/spf13/cobra"
)

func newImportCmd(o *rootOptions, step importer.Step, short string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   string(step),
		Short: short,
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, o, []importer.Step{step}, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "input file, relative to --data-dir unless absolute or s3://")
	return cmd
}

func newAllCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run states, counties, tracts and schools in order",
		Long: `Run every import step in dependency order, stopping at the first failure.

In a dry run nothing is written, so tracts and schools resolve against
whatever counties are already committed.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, o, importer.Steps, "")
		},
	}
}

func runImport(cmd *cobra.Command, o *rootOptions, steps []importer.Step, file string) (err error) {
	s, err := openSession(cmd, o)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	defer s.writeMetrics()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	im, err := s.newImporter(steps[0], file)
	if err != nil {
		return err
	}

	var before []db.TableCount
	if s.cfg.Commit {
		if before, err = s.store.Counts(ctx); err != nil {
			return err
		}
	} else {
		s.log.Info("dry run: nothing will be written, pass --commit to execute")
	}

	var all []importer.Stats
	if len(steps) == 1 {
		var stats importer.Stats
		stats, err = im.Import(ctx, steps[0], im.Locations[steps[0]])
		all = append(all, stats)
	} else {
		all, err = im.ImportAll(ctx)
	}

	printStats(out, all)
	if !s.cfg.Commit {
		printPlan(out, all)
		return err
	}

	after, cerr := s.store.Counts(ctx)
	if cerr != nil {
		return errors.Join(err, cerr)
	}
	printCounts(out, before, after)
	return err
}
