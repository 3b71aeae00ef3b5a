package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newSchemaCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create any missing target tables",
		Long: `Create the Regions, Divisions, States, Counties, CensusTracts, SchoolLevels,
SchoolGrades and Schools tables if they do not exist, then print row counts.

SchoolLevels and SchoolGrades are created empty. Populate them before
importing schools; "survey" lists the labels the schools file uses.`,
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

			ctx := cmd.Context()
			if err := s.store.CreateSchema(ctx); err != nil {
				return err
			}
			counts, err := s.store.Counts(ctx)
			if err != nil {
				return err
			}
			s.log.Info("schema ready", "dialect", s.store.Dialect())
			printCounts(cmd.OutOrStdout(), counts, counts)
			return nil
		},
	}
}
