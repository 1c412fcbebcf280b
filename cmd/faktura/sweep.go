package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/xraph/faktura"
	"github.com/xraph/faktura/cmd/faktura/internal/logger"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep-overdue",
	Short: "Mark invoices past their due date as overdue",
	Long: `Runs the overdue sweep for each tenant: every draft or sent invoice
whose due date lies before today becomes overdue. Paid invoices are never
touched and running the sweep twice is harmless.`,
	Example: `  faktura sweep-overdue --tenant acme --tenant globex`,
	RunE:    runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringSlice("tenant", nil, "tenant to sweep (repeatable)")
	_ = sweepCmd.MarkFlagRequired("tenant")
}

func runSweep(cmd *cobra.Command, _ []string) error {
	tenants, _ := cmd.Flags().GetStringSlice("tenant")
	if !cfg.Persistent() {
		return errors.New("sweep-overdue needs a persistent store, set FAKTURA_DRIVER")
	}

	a, err := newApp(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // process exits right after

	moved, err := sweepTenants(cmd.Context(), a.engine, tenants, logger.WithComponent("sweep"))
	fmt.Fprintf(cmd.OutOrStdout(), "%d invoice(s) marked overdue\n", moved)
	return err
}

// sweepTenants runs the overdue sweep for every tenant and returns how many
// invoices moved. A failing tenant does not stop the others.
func sweepTenants(ctx context.Context, e *faktura.Engine, tenants []string, log zerolog.Logger) (int, error) {
	var (
		moved int
		errs  faktura.MultiError
	)
	for _, tenant := range tenants {
		res, err := e.RefreshOverdueStatuses(faktura.WithTenant(ctx, tenant))
		if res != nil {
			moved += len(res.Transitioned)
			log.Info().
				Str("tenant_id", tenant).
				Int("checked", res.Checked).
				Int("transitioned", len(res.Transitioned)).
				Int("skipped", res.Skipped).
				Msg("tenant swept")
		}
		if err != nil {
			log.Warn().Err(err).Str("tenant_id", tenant).Msg("overdue sweep failed")
			errs.Add(fmt.Errorf("tenant %s: %w", tenant, err))
		}
	}
	return moved, errs.ErrOrNil()
}
