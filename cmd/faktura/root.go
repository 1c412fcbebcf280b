package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xraph/faktura/cmd/faktura/internal/config"
	"github.com/xraph/faktura/cmd/faktura/internal/logger"
)

var version = "0.1.0"

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "faktura",
	Short: "Offers, orders, invoices and ledger exports for trade businesses",
	Long: `faktura manages the offer -> order -> invoice lifecycle of a trade
business: it numbers and prices documents, tracks payments, marks invoices
overdue and exports finalized invoices as a DATEV-style ledger batch.

Configuration is read from the environment (and a .env file):
  FAKTURA_DRIVER             memory (default), sqlite, postgres, mongo or firestore
  FAKTURA_DSN                connection string of the sqlite, postgres or mongo store
  FAKTURA_FIRESTORE_PROJECT  Google Cloud project of the firestore store
  FAKTURA_REDIS_ADDR         use Redis for document numbering
  FAKTURA_HTTP_ADDR          listen address of "serve" (default :8080)
  FAKTURA_S3_BUCKET          bucket for "export --s3"
  LOG_LEVEL, LOG_FORMAT      zerolog level and json|console output`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		if driver, _ := cmd.Flags().GetString("driver"); driver != "" {
			cfg.Driver = driver
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		return logger.Setup(cfg.GetLoggerConfig())
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("driver", "", "store driver, overrides FAKTURA_DRIVER")
}
