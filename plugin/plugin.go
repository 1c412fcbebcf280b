// Package plugin lets extensions observe the document lifecycle.
//
// A plugin implements Plugin plus any subset of the hook interfaces below.
// The Registry discovers the hooks once at registration time. Hooks run
// after the change is persisted; their errors are logged and never undo or
// fail the operation that triggered them.
package plugin

import (
	"context"

	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/offer"
	"github.com/xraph/faktura/order"
	"github.com/xraph/faktura/payment"
	"github.com/xraph/faktura/transition"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Event payloads
// ──────────────────────────────────────────────────

// Conversion describes a document created from a predecessor.
type Conversion struct {
	TenantID string
	From     document.Type
	FromID   id.ID
	To       document.Type
	ToID     id.ID
	Number   string
}

// StateChange describes an explicit state transition.
type StateChange struct {
	TenantID string
	DocType  document.Type
	DocID    id.ID
	Number   string
	From     transition.State
	To       transition.State
}

// Export describes a produced ledger export.
type Export struct {
	TenantID string
	Invoices int
	Skipped  int
	Bytes    int
}

// ──────────────────────────────────────────────────
// Engine lifecycle
// ──────────────────────────────────────────────────

type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Document hooks
// ──────────────────────────────────────────────────

type OnOfferCreated interface {
	Plugin
	OnOfferCreated(ctx context.Context, o *offer.Offer) error
}

type OnOrderCreated interface {
	Plugin
	OnOrderCreated(ctx context.Context, o *order.Order) error
}

type OnInvoiceCreated interface {
	Plugin
	OnInvoiceCreated(ctx context.Context, inv *invoice.Invoice) error
}

// OnDocumentConverted fires after an offer→order or order→invoice
// conversion, in addition to the target's created hook.
type OnDocumentConverted interface {
	Plugin
	OnDocumentConverted(ctx context.Context, c Conversion) error
}

type OnStateChanged interface {
	Plugin
	OnStateChanged(ctx context.Context, c StateChange) error
}

type OnSnapshotLocked interface {
	Plugin
	OnSnapshotLocked(ctx context.Context, o *offer.Offer) error
}

type OnSnapshotUnlocked interface {
	Plugin
	OnSnapshotUnlocked(ctx context.Context, o *offer.Offer) error
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

type OnPaymentRegistered interface {
	Plugin
	OnPaymentRegistered(ctx context.Context, inv *invoice.Invoice, p *payment.Payment) error
}

// OnInvoicePaid fires once, when payment reconciliation settles an invoice.
type OnInvoicePaid interface {
	Plugin
	OnInvoicePaid(ctx context.Context, inv *invoice.Invoice) error
}

// OnInvoiceOverdue fires for each invoice the overdue sweep transitions.
type OnInvoiceOverdue interface {
	Plugin
	OnInvoiceOverdue(ctx context.Context, inv *invoice.Invoice) error
}

// ──────────────────────────────────────────────────
// Export hooks
// ──────────────────────────────────────────────────

type OnLedgerExported interface {
	Plugin
	OnLedgerExported(ctx context.Context, e Export) error
}
