package commands

import (
	"fmt"

	"chcrawler/internal/report"

	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	var (
		db    string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List the runs saved to a database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if db == "" {
				return fmt.Errorf("--db is required")
			}
			conn, err := report.ParseDatabase(db).OpenDB()
			if err != nil {
				return err
			}
			defer conn.Close()

			store, err := report.NewStore(cmd.Context(), conn)
			if err != nil {
				return err
			}
			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			report.PrintRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "sqlite file or libsql url runs were saved to")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of most recent runs to show")
	return cmd
}
