package faktura

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/transition"
)

// InvoiceInput creates an invoice. A zero DueDate defaults to the issue
// date plus the engine's payment term.
type InvoiceInput struct {
	DocumentInput
	DueDate time.Time
}

// InvoicePatch updates an invoice.
type InvoicePatch struct {
	DocumentPatch
	DueDate *time.Time
}

// CreateInvoice creates a draft invoice without a predecessor.
func (e *Engine) CreateInvoice(ctx context.Context, in InvoiceInput) (*invoice.Invoice, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	inv := &invoice.Invoice{
		Header:  e.newHeader(tenantID, ActorFrom(ctx), in.DocumentInput),
		ID:      id.NewInvoiceID(),
		State:   initialState(document.TypeInvoice),
		DueDate: in.DueDate,
	}
	if err := validate(&inv.Header); err != nil {
		return nil, err
	}
	recompute(&inv.Header)
	e.initPaymentState(inv)

	return inv, e.insertInvoice(ctx, inv)
}

// ConvertOrderToInvoice copies an order into a new draft invoice. The
// offer lineage of the order is carried forward. dueDate may be zero.
func (e *Engine) ConvertOrderToInvoice(ctx context.Context, orderID id.OrderID, dueDate time.Time) (*invoice.Invoice, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	src, err := e.store.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	inv := &invoice.Invoice{
		Header:         e.derivedHeader(ctx, src.Header),
		ID:             id.NewInvoiceID(),
		State:          initialState(document.TypeInvoice),
		DueDate:        dueDate,
		RelatedOrderID: src.ID,
		RelatedOfferID: src.RelatedOfferID,
	}
	e.initPaymentState(inv)

	if err := e.insertInvoice(ctx, inv); err != nil {
		return nil, err
	}
	e.converted(ctx, tenantID, document.TypeOrder, src.ID, document.TypeInvoice, inv.ID, inv.Number)
	return inv, nil
}

func (e *Engine) initPaymentState(inv *invoice.Invoice) {
	if inv.DueDate.IsZero() {
		inv.DueDate = inv.IssueDate.AddDate(0, 0, e.paymentTermDays)
	}
	inv.PaymentsTotal = Zero(inv.Currency)
	inv.OpenAmount = openAmount(inv.Totals.GrandTotalGross, inv.PaymentsTotal)
}

func (e *Engine) insertInvoice(ctx context.Context, inv *invoice.Invoice) error {
	var err error
	if inv.Number, err = e.nextNumber(ctx, inv.TenantID, document.TypeInvoice, inv.IssueDate); err != nil {
		return err
	}
	if err := e.store.CreateInvoice(ctx, inv); err != nil {
		return fmt.Errorf("faktura: create invoice: %w", err)
	}

	e.plugins.EmitInvoiceCreated(ctx, inv)
	e.logger.Info("invoice created",
		"tenant_id", inv.TenantID,
		"invoice_id", inv.ID.String(),
		"number", inv.Number,
		"gross", inv.Totals.GrandTotalGross.String(),
		"due_date", inv.DueDate.Format(time.DateOnly),
	)
	return nil
}

// GetInvoice returns one invoice of the context tenant.
func (e *Engine) GetInvoice(ctx context.Context, invoiceID id.InvoiceID) (*invoice.Invoice, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	return e.store.GetInvoice(ctx, tenantID, invoiceID)
}

// ListInvoices lists invoices of the context tenant, newest first.
func (e *Engine) ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	return e.store.ListInvoices(ctx, tenantID, opts)
}

// UpdateInvoice applies p, recomputes totals and then the payment state so
// openAmount follows the new gross.
func (e *Engine) UpdateInvoice(ctx context.Context, invoiceID id.InvoiceID, p InvoicePatch) (*invoice.Invoice, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	inv, err := e.store.GetInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	applyPatch(&inv.Header, p.DocumentPatch)
	if p.DueDate != nil {
		inv.DueDate = *p.DueDate
	}
	if err := validate(&inv.Header); err != nil {
		return nil, err
	}
	recompute(&inv.Header)
	inv.OpenAmount = openAmount(inv.Totals.GrandTotalGross, inv.PaymentsTotal)
	inv.Touch(e.now())

	if err := e.store.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	return e.RefreshInvoicePaymentState(ctx, inv.ID)
}

// SetInvoiceState moves an invoice along its transition table. Paid is
// terminal.
func (e *Engine) SetInvoiceState(ctx context.Context, invoiceID id.InvoiceID, to transition.State) (*invoice.Invoice, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	inv, err := e.store.GetInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(ctx, document.TypeInvoice, inv.State, to); err != nil {
		return nil, err
	}
	if inv.State == to {
		return inv, nil
	}

	from := inv.State
	e.applyInvoiceState(inv, to)
	if err := e.store.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}

	e.invoiceStateChanged(ctx, inv, from)
	return inv, nil
}

// SendInvoice marks a draft invoice as sent.
func (e *Engine) SendInvoice(ctx context.Context, invoiceID id.InvoiceID) (*invoice.Invoice, error) {
	return e.SetInvoiceState(ctx, invoiceID, invoice.StateSent)
}

func (e *Engine) applyInvoiceState(inv *invoice.Invoice, to transition.State) {
	now := e.now()
	inv.State = to
	switch to {
	case invoice.StateSent:
		inv.SentAt = &now
	case invoice.StatePaid:
		inv.PaidAt = &now
	}
	inv.Touch(now)
}

func (e *Engine) invoiceStateChanged(ctx context.Context, inv *invoice.Invoice, from transition.State) {
	e.stateChanged(ctx, inv.TenantID, document.TypeInvoice, inv.ID, inv.Number, from, inv.State)
	switch inv.State {
	case invoice.StatePaid:
		e.plugins.EmitInvoicePaid(ctx, inv)
	case invoice.StateOverdue:
		e.plugins.EmitInvoiceOverdue(ctx, inv)
	}
}
