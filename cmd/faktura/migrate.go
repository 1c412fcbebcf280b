package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Prepare the configured store",
	Long: `Opens the configured store and applies its migrations. Stores without
a schema only have their connection checked.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck // process exits right after

		if err := a.engine.Store().Ping(cmd.Context()); err != nil {
			return fmt.Errorf("ping %s store: %w", cfg.Driver, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s store is up to date\n", cfg.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
