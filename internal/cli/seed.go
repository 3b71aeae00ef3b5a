package cli

import (
	"errors"
	"strconv"
	"strings"

	"github.com/EmpoweredVote/refdata/internal/importer"
	"github.com/EmpoweredVote/refdata/internal/seeds"
	"github.com/EmpoweredVote/refdata/internal/source"
	"github.com/spf13/cobra"
)

func newSeedLookupsCmd(o *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-lookups",
		Short: "Add the level and grade labels used by the schools file to SchoolLevels and SchoolGrades",
		Long: `Survey the schools file and insert every level and grade label that is not
yet in SchoolLevels or SchoolGrades. New rows are numbered after the current
maximum id; existing rows are left alone. Dry run unless --commit is given.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(cmd, o)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.Close(); cerr != nil {
					err = errors.Join(err, cerr)
				}
			}()

			name := s.cfg.Files.Schools
			if file != "" {
				name = file
			}
			location := source.Resolve(s.cfg.DataDir, name)
			ctx := cmd.Context()

			survey, err := importer.SurveySchools(ctx, s.opener, location)
			if err != nil {
				return err
			}
			results, err := seeds.SeedAll(ctx, s.store.DB, survey, s.cfg.Commit, s.log)
			if err != nil {
				return err
			}

			table := newTable(cmd.OutOrStdout(), "Table", "Existing", "Added", "Labels")
			for _, r := range results {
				table.Append([]string{r.Table, strconv.Itoa(r.Existing), strconv.Itoa(len(r.Added)), strings.Join(r.Added, " ")})
			}
			table.Render()
			if !s.cfg.Commit {
				fprintf(cmd.OutOrStdout(), "Dry run complete. No changes made.\n")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "schools file, relative to --data-dir unless absolute or s3://")
	return cmd
}
