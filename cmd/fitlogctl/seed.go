package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lyleguay/fitlog/internal/diet"
)

func newSeedFoodsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-foods",
		Short: "Insert the shared food catalog (existing names are skipped)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := diet.NewFoodService(a.db, a.log).SeedCatalog(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d catalog food(s) added.\n", n)
			return nil
		},
	}
}
