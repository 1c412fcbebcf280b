package observability_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/observability"
	"github.com/xraph/faktura/payment"
	"github.com/xraph/faktura/plugin"
	"github.com/xraph/faktura/types"
)

func TestMetricsExtension(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))
	ctx := context.Background()

	inv := &invoice.Invoice{}
	_ = m.OnInvoiceOverdue(ctx, inv)
	_ = m.OnInvoiceOverdue(ctx, inv)
	_ = m.OnPaymentRegistered(ctx, inv, &payment.Payment{Amount: types.EUR(21420)})
	_ = m.OnLedgerExported(ctx, plugin.Export{Invoices: 3, Skipped: 1, Bytes: 400})

	counters := []struct {
		name string
		c    observability.Counter
		want float64
	}{
		{"overdue", m.InvoiceOverdue, 2},
		{"payments", m.PaymentsRegistered, 1},
		{"exported", m.ExportedInvoices, 3},
		{"skipped", m.ExportSkipped, 1},
	}
	for _, tt := range counters {
		got := testutil.ToFloat64(tt.c.(prometheus.Counter))
		if got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}

	if n, err := testutil.GatherAndCount(reg, "faktura_invoice_overdue"); err != nil || n != 1 {
		t.Errorf("gather: n=%d err=%v", n, err)
	}
}

func TestPrometheusFactoryReuses(t *testing.T) {
	reg := prometheus.NewRegistry()
	f1 := observability.NewPrometheusFactory(reg)
	f2 := observability.NewPrometheusFactory(reg)

	a := f1.Counter("faktura.offer.created")
	b := f2.Counter("faktura.offer.created")
	a.Inc()
	b.Inc()

	if got := testutil.ToFloat64(a.(prometheus.Counter)); got != 2 {
		t.Errorf("got %v, want 2 on the shared collector", got)
	}
}
