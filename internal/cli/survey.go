package cli

import (
	"time"

	"github.com/EmpoweredVote/refdata/internal/importer"
	"github.com/EmpoweredVote/refdata/internal/logging"
	"github.com/EmpoweredVote/refdata/internal/source"
	"github.com/spf13/cobra"
)

func newSurveyCmd(o *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "survey",
		Short: "List the level, grade and school type labels in the schools file",
		Long: `Scan the schools file without touching the store and print every distinct
level, grade and school type label with its count. Use it to populate
SchoolLevels and SchoolGrades before running "schools".`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, o)
			if err != nil {
				return err
			}
			log, _ := logging.WithRun(logging.New(cmd.ErrOrStderr(), cfg.Verbose))

			name := cfg.Files.Schools
			if file != "" {
				name = file
			}
			location := source.Resolve(cfg.DataDir, name)
			start := time.Now()

			survey, err := importer.SurveySchools(cmd.Context(), &source.Opener{}, location)
			if err != nil {
				return err
			}
			log.Info("survey finished", "location", location, "rows", survey.Rows, logging.Since(start))

			out := cmd.OutOrStdout()
			printLabelCounts(out, "Levels", survey.Levels)
			printLabelCounts(out, "Grades", survey.Grades)
			printLabelCounts(out, "School types", survey.SchoolTypes)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "schools file, relative to --data-dir unless absolute or s3://")
	return cmd
}
