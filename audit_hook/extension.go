// Package audithook turns faktura document events into audit trail entries.
//
// It defines a local Recorder interface so the package does not depend on
// any audit backend. Callers inject a RecorderFunc adapter at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/offer"
	"github.com/xraph/faktura/order"
	"github.com/xraph/faktura/payment"
	"github.com/xraph/faktura/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnOfferCreated      = (*Extension)(nil)
	_ plugin.OnOrderCreated      = (*Extension)(nil)
	_ plugin.OnInvoiceCreated    = (*Extension)(nil)
	_ plugin.OnDocumentConverted = (*Extension)(nil)
	_ plugin.OnStateChanged      = (*Extension)(nil)
	_ plugin.OnSnapshotLocked    = (*Extension)(nil)
	_ plugin.OnSnapshotUnlocked  = (*Extension)(nil)
	_ plugin.OnPaymentRegistered = (*Extension)(nil)
	_ plugin.OnInvoicePaid       = (*Extension)(nil)
	_ plugin.OnInvoiceOverdue    = (*Extension)(nil)
	_ plugin.OnLedgerExported    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one audit trail entry.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	TenantID   string         `json:"tenant_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension records faktura events through a Recorder.
type Extension struct {
	recorder   Recorder
	enabled    map[string]bool // nil = all actions
	categories map[string]bool // nil = all categories
	logger     *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Document hooks
// ──────────────────────────────────────────────────

// OnOfferCreated implements plugin.OnOfferCreated.
func (e *Extension) OnOfferCreated(ctx context.Context, o *offer.Offer) error {
	return e.record(ctx, ActionOfferCreated, SeverityInfo, OutcomeSuccess,
		ResourceOffer, o.ID.String(), o.TenantID, CategoryDocument, nil,
		"number", o.Number,
		"gross", o.Totals.GrandTotalGross.String(),
		"created_by", o.CreatedBy,
	)
}

// OnOrderCreated implements plugin.OnOrderCreated.
func (e *Extension) OnOrderCreated(ctx context.Context, o *order.Order) error {
	return e.record(ctx, ActionOrderCreated, SeverityInfo, OutcomeSuccess,
		ResourceOrder, o.ID.String(), o.TenantID, CategoryDocument, nil,
		"number", o.Number,
		"related_offer_id", o.RelatedOfferID.String(),
	)
}

// OnInvoiceCreated implements plugin.OnInvoiceCreated.
func (e *Extension) OnInvoiceCreated(ctx context.Context, inv *invoice.Invoice) error {
	return e.record(ctx, ActionInvoiceCreated, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, inv.ID.String(), inv.TenantID, CategoryDocument, nil,
		"number", inv.Number,
		"gross", inv.Totals.GrandTotalGross.String(),
		"due_date", inv.DueDate,
	)
}

// OnDocumentConverted implements plugin.OnDocumentConverted.
func (e *Extension) OnDocumentConverted(ctx context.Context, c plugin.Conversion) error {
	return e.record(ctx, ActionDocumentConverted, SeverityInfo, OutcomeSuccess,
		resourceFor(c.To), c.ToID.String(), c.TenantID, CategoryDocument, nil,
		"from", string(c.From),
		"from_id", c.FromID.String(),
		"number", c.Number,
	)
}

// OnStateChanged implements plugin.OnStateChanged.
func (e *Extension) OnStateChanged(ctx context.Context, c plugin.StateChange) error {
	return e.record(ctx, ActionStateChanged, SeverityInfo, OutcomeSuccess,
		resourceFor(c.DocType), c.DocID.String(), c.TenantID, CategoryDocument, nil,
		"number", c.Number,
		"from", string(c.From),
		"to", string(c.To),
	)
}

// ──────────────────────────────────────────────────
// Costing hooks
// ──────────────────────────────────────────────────

// OnSnapshotLocked implements plugin.OnSnapshotLocked.
func (e *Extension) OnSnapshotLocked(ctx context.Context, o *offer.Offer) error {
	return e.record(ctx, ActionSnapshotLocked, SeverityInfo, OutcomeSuccess,
		ResourceOffer, o.ID.String(), o.TenantID, CategoryCosting, nil,
		"number", o.Number,
		"cost_total", o.CalcSummary.CostTotal.String(),
		"margin_pct", o.CalcSummary.MarginPct.String(),
	)
}

// OnSnapshotUnlocked implements plugin.OnSnapshotUnlocked. Unlocking lets
// rate drift back into the offer, so it is recorded as a warning.
func (e *Extension) OnSnapshotUnlocked(ctx context.Context, o *offer.Offer) error {
	return e.record(ctx, ActionSnapshotUnlocked, SeverityWarning, OutcomeSuccess,
		ResourceOffer, o.ID.String(), o.TenantID, CategoryCosting, nil,
		"number", o.Number,
	)
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentRegistered implements plugin.OnPaymentRegistered.
func (e *Extension) OnPaymentRegistered(ctx context.Context, inv *invoice.Invoice, p *payment.Payment) error {
	return e.record(ctx, ActionPaymentRegistered, SeverityInfo, OutcomeSuccess,
		ResourcePayment, p.ID.String(), p.TenantID, CategoryPayment, nil,
		"invoice_id", inv.ID.String(),
		"amount", p.Amount.String(),
		"method", string(p.Method),
		"open_amount", inv.OpenAmount.String(),
	)
}

// OnInvoicePaid implements plugin.OnInvoicePaid.
func (e *Extension) OnInvoicePaid(ctx context.Context, inv *invoice.Invoice) error {
	return e.record(ctx, ActionInvoicePaid, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, inv.ID.String(), inv.TenantID, CategoryPayment, nil,
		"number", inv.Number,
		"payments_total", inv.PaymentsTotal.String(),
	)
}

// OnInvoiceOverdue implements plugin.OnInvoiceOverdue.
func (e *Extension) OnInvoiceOverdue(ctx context.Context, inv *invoice.Invoice) error {
	return e.record(ctx, ActionInvoiceOverdue, SeverityWarning, OutcomeSuccess,
		ResourceInvoice, inv.ID.String(), inv.TenantID, CategoryPayment, nil,
		"number", inv.Number,
		"open_amount", inv.OpenAmount.String(),
		"due_date", inv.DueDate,
	)
}

// OnLedgerExported implements plugin.OnLedgerExported.
func (e *Extension) OnLedgerExported(ctx context.Context, x plugin.Export) error {
	outcome := OutcomeSuccess
	if x.Skipped > 0 {
		outcome = OutcomePartial
	}
	return e.record(ctx, ActionLedgerExported, SeverityInfo, outcome,
		ResourceExport, "", x.TenantID, CategoryAccounting, nil,
		"invoices", x.Invoices,
		"skipped", x.Skipped,
		"bytes", x.Bytes,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func resourceFor(t document.Type) string {
	switch t {
	case document.TypeOffer:
		return ResourceOffer
	case document.TypeOrder:
		return ResourceOrder
	default:
		return ResourceInvoice
	}
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, tenantID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}
	if e.categories != nil && !e.categories[category] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		TenantID:   tenantID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
