package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/xraph/faktura"
	"github.com/xraph/faktura/cmd/faktura/internal/config"
	"github.com/xraph/faktura/document"
)

func testConfig() *config.Config {
	return &config.Config{
		Driver:           config.DriverMemory,
		DefaultCurrency:  "eur",
		DefaultLocale:    "de",
		PaymentTermDays:  14,
		OverheadPct:      10,
		SweepConcurrency: 4,
	}
}

func TestSweepTenants(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	a, err := newApp(ctx, testConfig(), reg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close() //nolint:errcheck // test cleanup

	past := time.Now().UTC().AddDate(0, 0, -3)
	for _, tenant := range []string{"acme", "globex"} {
		_, err := a.engine.CreateInvoice(faktura.WithTenant(ctx, tenant), faktura.InvoiceInput{
			DocumentInput: faktura.DocumentInput{
				Client:    faktura.Client{Name: "Kunde"},
				IssueDate: past.AddDate(0, 0, -14),
				LineItems: []faktura.LineItem{{
					Type:      document.ItemService,
					Quantity:  decimal.NewFromInt(1),
					UnitPrice: decimal.NewFromInt(50),
				}},
			},
			DueDate: past,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	moved, err := sweepTenants(ctx, a.engine, []string{"acme", "globex", "empty"}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if moved != 2 {
		t.Errorf("moved %d, want 2", moved)
	}
	if got := overdueCount(t, reg); got != 2 {
		t.Errorf("overdue metric: got %v, want 2", got)
	}

	moved, _ = sweepTenants(ctx, a.engine, []string{"acme"}, zerolog.Nop())
	if moved != 0 {
		t.Errorf("second sweep moved %d, want 0", moved)
	}
}

func TestSQLiteDriverPersists(t *testing.T) {
	ctx := faktura.WithTenant(context.Background(), "acme")
	c := testConfig()
	c.Driver = config.DriverSQLite
	c.DSN = "file:" + filepath.Join(t.TempDir(), "faktura.db")

	a, err := newApp(ctx, c, nil)
	if err != nil {
		t.Fatal(err)
	}
	inv, err := a.engine.CreateInvoice(ctx, faktura.InvoiceInput{DocumentInput: faktura.DocumentInput{
		Client: faktura.Client{Name: "Kunde"},
		LineItems: []faktura.LineItem{{
			Type:      document.ItemService,
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: decimal.NewFromInt(50),
		}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := newApp(ctx, c, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close() //nolint:errcheck // test cleanup

	got, err := reopened.engine.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Number != inv.Number || got.Totals.GrandTotalGross != inv.Totals.GrandTotalGross {
		t.Errorf("got %s %s, want %s %s", got.Number, got.Totals.GrandTotalGross, inv.Number, inv.Totals.GrandTotalGross)
	}
}

func TestSweepTenantsMissingTenant(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close() //nolint:errcheck // test cleanup

	if _, err := sweepTenants(context.Background(), a.engine, []string{""}, zerolog.Nop()); err == nil {
		t.Error("want error for empty tenant")
	}
}

func overdueCount(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() == "faktura_invoice_overdue" {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}
