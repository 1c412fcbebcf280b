// Package observability provides a metrics plugin for faktura that counts
// document lifecycle events through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/offer"
	"github.com/xraph/faktura/order"
	"github.com/xraph/faktura/payment"
	"github.com/xraph/faktura/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnOfferCreated      = (*MetricsExtension)(nil)
	_ plugin.OnOrderCreated      = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceCreated    = (*MetricsExtension)(nil)
	_ plugin.OnDocumentConverted = (*MetricsExtension)(nil)
	_ plugin.OnStateChanged      = (*MetricsExtension)(nil)
	_ plugin.OnSnapshotLocked    = (*MetricsExtension)(nil)
	_ plugin.OnPaymentRegistered = (*MetricsExtension)(nil)
	_ plugin.OnInvoicePaid       = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceOverdue    = (*MetricsExtension)(nil)
	_ plugin.OnLedgerExported    = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records document lifecycle metrics.
// Register it as a faktura plugin.
type MetricsExtension struct {
	factory MetricFactory

	// Document metrics
	OfferCreated       Counter
	OrderCreated       Counter
	InvoiceCreated     Counter
	DocumentsConverted Counter
	StateChanges       Counter
	SnapshotsLocked    Counter
	MissingRates       Counter
	OfferGross         Histogram

	// Payment metrics
	PaymentsRegistered Counter
	PaymentAmount      Histogram
	InvoicePaid        Counter
	InvoiceOverdue     Counter

	// Export metrics
	ExportedInvoices Counter
	ExportSkipped    Counter
	ExportBytes      Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		OfferCreated:       factory.Counter("faktura.offer.created"),
		OrderCreated:       factory.Counter("faktura.order.created"),
		InvoiceCreated:     factory.Counter("faktura.invoice.created"),
		DocumentsConverted: factory.Counter("faktura.document.converted"),
		StateChanges:       factory.Counter("faktura.document.state_changes"),
		SnapshotsLocked:    factory.Counter("faktura.offer.snapshot_locked"),
		MissingRates:       factory.Counter("faktura.offer.missing_rates"),
		OfferGross:         factory.Histogram("faktura.offer.gross_amount"),

		PaymentsRegistered: factory.Counter("faktura.payment.registered"),
		PaymentAmount:      factory.Histogram("faktura.payment.amount"),
		InvoicePaid:        factory.Counter("faktura.invoice.paid"),
		InvoiceOverdue:     factory.Counter("faktura.invoice.overdue"),

		ExportedInvoices: factory.Counter("faktura.export.invoices"),
		ExportSkipped:    factory.Counter("faktura.export.skipped"),
		ExportBytes:      factory.Histogram("faktura.export.bytes"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Document hooks
// ──────────────────────────────────────────────────

// OnOfferCreated implements plugin.OnOfferCreated.
func (m *MetricsExtension) OnOfferCreated(_ context.Context, o *offer.Offer) error {
	m.OfferCreated.Inc()
	m.OfferGross.Observe(o.Totals.GrandTotalGross.Decimal().InexactFloat64())
	if o.CalcSummary != nil && len(o.CalcSummary.MissingRates) > 0 {
		m.MissingRates.Add(float64(len(o.CalcSummary.MissingRates)))
	}
	return nil
}

// OnOrderCreated implements plugin.OnOrderCreated.
func (m *MetricsExtension) OnOrderCreated(_ context.Context, _ *order.Order) error {
	m.OrderCreated.Inc()
	return nil
}

// OnInvoiceCreated implements plugin.OnInvoiceCreated.
func (m *MetricsExtension) OnInvoiceCreated(_ context.Context, _ *invoice.Invoice) error {
	m.InvoiceCreated.Inc()
	return nil
}

// OnDocumentConverted implements plugin.OnDocumentConverted.
func (m *MetricsExtension) OnDocumentConverted(_ context.Context, _ plugin.Conversion) error {
	m.DocumentsConverted.Inc()
	return nil
}

// OnStateChanged implements plugin.OnStateChanged.
func (m *MetricsExtension) OnStateChanged(_ context.Context, _ plugin.StateChange) error {
	m.StateChanges.Inc()
	return nil
}

// OnSnapshotLocked implements plugin.OnSnapshotLocked.
func (m *MetricsExtension) OnSnapshotLocked(_ context.Context, _ *offer.Offer) error {
	m.SnapshotsLocked.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentRegistered implements plugin.OnPaymentRegistered.
func (m *MetricsExtension) OnPaymentRegistered(_ context.Context, _ *invoice.Invoice, p *payment.Payment) error {
	m.PaymentsRegistered.Inc()
	m.PaymentAmount.Observe(p.Amount.Decimal().InexactFloat64())
	return nil
}

// OnInvoicePaid implements plugin.OnInvoicePaid.
func (m *MetricsExtension) OnInvoicePaid(_ context.Context, _ *invoice.Invoice) error {
	m.InvoicePaid.Inc()
	return nil
}

// OnInvoiceOverdue implements plugin.OnInvoiceOverdue.
func (m *MetricsExtension) OnInvoiceOverdue(_ context.Context, _ *invoice.Invoice) error {
	m.InvoiceOverdue.Inc()
	return nil
}

// OnLedgerExported implements plugin.OnLedgerExported.
func (m *MetricsExtension) OnLedgerExported(_ context.Context, e plugin.Export) error {
	m.ExportedInvoices.Add(float64(e.Invoices))
	m.ExportSkipped.Add(float64(e.Skipped))
	m.ExportBytes.Observe(float64(e.Bytes))
	return nil
}
