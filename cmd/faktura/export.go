package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xraph/faktura"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/ledgerexport"
	"github.com/xraph/faktura/ledgerexport/s3sink"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export finalized invoices as a ledger batch",
	Long: `Renders the given invoices of one tenant as a DATEV-style EXTF
Buchungsstapel. Draft and unknown invoices are skipped.

Without --dir or --s3 the batch is written to --out, or to stdout.`,
	Example: `  faktura export --tenant acme --ids inv_01h...,inv_01j... --out batch.csv
  faktura export --tenant acme --ids inv_01h... --include-payments --s3`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	f := exportCmd.Flags()
	f.String("tenant", "", "tenant owning the invoices")
	f.StringSlice("ids", nil, "invoice ids to export")
	f.String("out", "-", "output file, - for stdout")
	f.String("dir", "", "write into this directory under the default file name")
	f.Bool("s3", false, "upload to FAKTURA_S3_BUCKET")
	f.Bool("include-payments", false, "add one record per payment")
	f.Bool("column-header", false, "write a field-name record after the batch header")
	f.String("contra-account", "", "revenue account (default 8400)")
	f.String("debtor-account", "", "debtor account (default 10000)")
	f.String("bank-account", "", "bank account for payment records (default 1200)")
	f.StringToString("account", nil, "revenue account per tax key, e.g. V7=8300")
	_ = exportCmd.MarkFlagRequired("tenant")
	_ = exportCmd.MarkFlagRequired("ids")
}

func runExport(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	tenant, _ := f.GetString("tenant")
	rawIDs, _ := f.GetStringSlice("ids")
	out, _ := f.GetString("out")
	dir, _ := f.GetString("dir")
	toS3, _ := f.GetBool("s3")

	if !cfg.Persistent() {
		return errors.New("export needs a persistent store, set FAKTURA_DRIVER")
	}

	ids := make([]id.InvoiceID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		invID, err := id.ParseInvoiceID(raw)
		if err != nil {
			return err
		}
		ids = append(ids, invID)
	}

	var opts ledgerexport.Options
	opts.ContraAccount, _ = f.GetString("contra-account")
	opts.DebtorAccount, _ = f.GetString("debtor-account")
	opts.BankAccount, _ = f.GetString("bank-account")
	opts.AccountMapping, _ = f.GetStringToString("account")
	opts.IncludePayments, _ = f.GetBool("include-payments")
	opts.ColumnHeader, _ = f.GetBool("column-header")

	ctx := faktura.WithTenant(cmd.Context(), tenant)
	a, err := newApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // process exits right after

	var sink ledgerexport.Sink
	switch {
	case toS3:
		if sink, err = s3sink.New(ctx, s3sink.Config{
			Bucket: cfg.S3Bucket,
			Prefix: cfg.S3Prefix,
			Region: cfg.S3Region,
		}); err != nil {
			return err
		}
	case dir != "":
		sink = ledgerexport.DirSink{Dir: dir}
	}

	if sink != nil {
		loc, err := a.engine.ExportTo(ctx, ids, opts, sink)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), loc)
		return nil
	}

	data, err := a.engine.ExportInvoicesToLedgerCSV(ctx, ids, opts)
	if err != nil {
		return err
	}
	if out == "-" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(out, data, 0o600)
}
