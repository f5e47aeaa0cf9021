package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newMigrateCmd applies pending embedded migrations for the configured backend.
// Each migration and its record insert run in a single transaction.
func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ran, err := a.db.Migrate(cmd.Context())
			out := cmd.OutOrStdout()
			for _, name := range ran {
				fmt.Fprintf(out, "  applied: %s\n", name)
			}
			if err != nil {
				return err
			}
			if len(ran) == 0 {
				fmt.Fprintln(out, "No pending migrations.")
			} else {
				fmt.Fprintf(out, "\n%d migration(s) applied.\n", len(ran))
			}
			return nil
		},
	}
}
