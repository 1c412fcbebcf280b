package faktura_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/faktura"
	"github.com/xraph/faktura/ledgerexport"
	"github.com/xraph/faktura/store/memory"
	"github.com/xraph/faktura/types"
)

// TestDocumentationExamples walks the package documentation end to end.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		store := memory.New()

		engine := faktura.New(store,
			faktura.WithLogger(slog.Default()),
			faktura.WithPaymentTermDays(14),
		)

		ctx := context.Background()
		if err := engine.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer engine.Stop()

		ctx = faktura.WithTenant(ctx, "acme")
		ctx = faktura.WithActor(ctx, "user_42")

		o, err := engine.CreateOffer(ctx, faktura.OfferInput{
			DocumentInput: faktura.DocumentInput{
				Client: faktura.Client{Name: "Müller Bau GmbH"},
				LineItems: []faktura.LineItem{{
					Description: "Fliesen verlegen",
					Quantity:    decimal.NewFromInt(2),
					UnitPrice:   decimal.NewFromInt(100),
					DiscountPct: faktura.Dec(decimal.NewFromInt(10)),
					TaxKey:      "V19",
				}},
				TaxKeys: []faktura.TaxKey{{Key: "V19", RatePct: decimal.NewFromInt(19)}},
			},
		})
		if err != nil {
			t.Fatal(err)
		}
		if o.Totals.GrandTotalGross != types.EUR(21420) {
			t.Fatalf("gross: got %s", o.Totals.GrandTotalGross)
		}

		if _, err = engine.SendOffer(ctx, o.ID); err != nil {
			t.Fatal(err)
		}
		if _, err = engine.AcceptOffer(ctx, o.ID); err != nil {
			t.Fatal(err)
		}

		ord, err := engine.ConvertOfferToOrder(ctx, o.ID)
		if err != nil {
			t.Fatal(err)
		}
		inv, err := engine.ConvertOrderToInvoice(ctx, ord.ID, time.Time{})
		if err != nil {
			t.Fatal(err)
		}
		if _, err = engine.SendInvoice(ctx, inv.ID); err != nil {
			t.Fatal(err)
		}

		_, inv, err = engine.RegisterPayment(ctx, inv.ID, faktura.PaymentInput{Amount: decimal.RequireFromString("214.20")})
		if err != nil {
			t.Fatal(err)
		}
		if inv.State != "paid" {
			t.Errorf("state: got %s, want paid", inv.State)
		}

		csv, err := engine.ExportInvoicesToLedgerCSV(ctx, []faktura.ID{inv.ID}, ledgerexport.Options{})
		if err != nil {
			t.Fatal(err)
		}
		t.Logf("%s", csv)
	})

	t.Run("MoneyExamples", func(t *testing.T) {
		m1 := types.EUR(100)
		m2 := types.EUR(200)
		if got := m1.Add(m2); got != types.EUR(300) {
			t.Errorf("Add: got %s", got)
		}
		if !m1.LessThan(m2) {
			t.Error("LessThan")
		}
		if got := types.FromDecimal(decimal.RequireFromString("214.195"), "EUR"); got != types.EUR(21420) {
			t.Errorf("FromDecimal: got %s", got)
		}
		if got := m1.FormatMajor(); got != "1.00" {
			t.Errorf("FormatMajor: got %q", got)
		}
	})
}
