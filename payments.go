package faktura

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/payment"
	"github.com/xraph/faktura/types"
)

// PaymentInput registers a payment. Amount is in major units of the
// invoice currency. A zero Date means today; an empty Method means bank.
type PaymentInput struct {
	Amount decimal.Decimal
	Date   time.Time
	Method payment.Method
	Note   string
}

// RegisterPayment appends a payment to an invoice and refreshes its payment
// state. Paying more than the open amount is allowed; the open amount never
// drops below zero.
func (e *Engine) RegisterPayment(ctx context.Context, invoiceID id.InvoiceID, in PaymentInput) (*payment.Payment, *invoice.Invoice, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, nil, err
	}

	if !in.Amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	}
	if in.Method == "" {
		in.Method = payment.MethodBank
	}
	if !in.Method.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown method %q", ErrInvalidPayment, in.Method)
	}

	inv, err := e.store.GetInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, nil, err
	}

	now := e.now()
	p := &payment.Payment{
		ID:        id.NewPaymentID(),
		TenantID:  tenantID,
		InvoiceID: inv.ID,
		Amount:    types.FromDecimal(in.Amount, inv.Currency),
		Date:      in.Date,
		Method:    in.Method,
		Note:      in.Note,
		CreatedBy: ActorFrom(ctx),
		CreatedAt: now.UTC(),
	}
	if p.Date.IsZero() {
		p.Date = now.UTC()
	}

	if err := e.store.CreatePayment(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("faktura: create payment: %w", err)
	}

	e.logger.Info("payment registered",
		"tenant_id", tenantID,
		"invoice_id", inv.ID.String(),
		"payment_id", p.ID.String(),
		"amount", p.Amount.String(),
		"method", string(p.Method),
	)

	inv, err = e.RefreshInvoicePaymentState(ctx, inv.ID)
	if err != nil {
		return p, nil, err
	}
	e.plugins.EmitPaymentRegistered(ctx, inv, p)
	return p, inv, nil
}

// ListPayments returns the payments of one invoice.
func (e *Engine) ListPayments(ctx context.Context, invoiceID id.InvoiceID) ([]*payment.Payment, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	return e.store.ListPayments(ctx, tenantID, invoiceID)
}

// RefreshInvoicePaymentState recomputes paymentsTotal and openAmount from
// the stored payments. An invoice whose payments cover its gross becomes
// paid; otherwise the state is left alone, so a paid invoice never regresses.
//
// Concurrent refreshes of one invoice converge: a lost update is reloaded
// and recomputed from the full payment list.
func (e *Engine) RefreshInvoicePaymentState(ctx context.Context, invoiceID id.InvoiceID) (*invoice.Invoice, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		inv, err := e.refreshPaymentState(ctx, tenantID, invoiceID)
		if err == nil {
			return inv, nil
		}
		if !errors.Is(err, ErrConflict) || attempt >= e.refreshAttempts {
			return nil, err
		}
		e.logger.Debug("payment refresh conflict, retrying",
			"tenant_id", tenantID,
			"invoice_id", invoiceID.String(),
			"attempt", attempt,
		)
	}
}

func (e *Engine) refreshPaymentState(ctx context.Context, tenantID string, invoiceID id.InvoiceID) (*invoice.Invoice, error) {
	inv, err := e.store.GetInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	payments, err := e.store.ListPayments(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("faktura: list payments: %w", err)
	}

	paid := Zero(inv.Currency)
	for _, p := range payments {
		if p.Amount.Currency != paid.Currency {
			return nil, fmt.Errorf("%w: payment %s is %s, invoice is %s",
				ErrCurrencyMismatch, p.ID, p.Amount.Currency, paid.Currency)
		}
		paid = paid.Add(p.Amount)
	}

	open := openAmount(inv.Totals.GrandTotalGross, paid)
	from := inv.State
	settle := open.IsZero() && inv.State != invoice.StatePaid

	if paid.Equal(inv.PaymentsTotal) && open.Equal(inv.OpenAmount) && !settle {
		return inv, nil
	}

	inv.PaymentsTotal = paid
	inv.OpenAmount = open
	if settle {
		e.applyInvoiceState(inv, invoice.StatePaid)
	} else {
		inv.Touch(e.now())
	}

	if err := e.store.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	if settle {
		e.invoiceStateChanged(ctx, inv, from)
	}
	return inv, nil
}

// openAmount is max(0, gross - paid).
func openAmount(gross, paid types.Money) types.Money {
	return gross.Subtract(paid).ClampZero()
}

// ──────────────────────────────────────────────────
// Overdue sweep
// ──────────────────────────────────────────────────

// SweepResult reports one overdue sweep.
type SweepResult struct {
	Checked      int
	Transitioned []id.InvoiceID
	Skipped      int
}

// RefreshOverdueStatuses marks every draft or sent invoice of the context
// tenant whose due date lies before today as overdue. Paid and already
// overdue invoices are never touched. Each invoice is updated on its own;
// failures are collected and do not stop the sweep. Running it twice is
// harmless.
func (e *Engine) RefreshOverdueStatuses(ctx context.Context) (*SweepResult, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	now := e.now()
	candidates, err := e.store.ListInvoices(ctx, tenantID, invoice.ListOpts{
		States:    []State{invoice.StateDraft, invoice.StateSent},
		DueBefore: invoice.StartOfDay(now),
	})
	if err != nil {
		return nil, fmt.Errorf("faktura: list overdue candidates: %w", err)
	}

	var (
		mu     sync.Mutex
		result = &SweepResult{Checked: len(candidates)}
		errs   MultiError
	)

	var g errgroup.Group
	g.SetLimit(e.sweepConcurrency)
	for _, inv := range candidates {
		g.Go(func() error {
			moved, err := e.markOverdue(ctx, inv, now)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				errs.Add(fmt.Errorf("invoice %s: %w", inv.Number, err))
			case moved:
				result.Transitioned = append(result.Transitioned, inv.ID)
			default:
				result.Skipped++
			}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers report through errs

	e.logger.Info("overdue sweep finished",
		"tenant_id", tenantID,
		"checked", result.Checked,
		"transitioned", len(result.Transitioned),
		"skipped", result.Skipped,
		"errors", len(errs.Errors),
	)
	return result, errs.ErrOrNil()
}

// markOverdue moves one invoice to overdue. A concurrent change is reloaded
// and re-checked once; an invoice that got paid meanwhile is skipped.
func (e *Engine) markOverdue(ctx context.Context, inv *invoice.Invoice, now time.Time) (bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			fresh, err := e.store.GetInvoice(ctx, inv.TenantID, inv.ID)
			if err != nil {
				return false, err
			}
			inv = fresh
		}
		if !inv.IsOverdueAt(now) {
			return false, nil
		}
		if err := checkTransition(ctx, document.TypeInvoice, inv.State, invoice.StateOverdue); err != nil {
			return false, err
		}

		from := inv.State
		e.applyInvoiceState(inv, invoice.StateOverdue)
		err := e.store.UpdateInvoice(ctx, inv)
		if err == nil {
			e.invoiceStateChanged(ctx, inv, from)
			return true, nil
		}
		if !errors.Is(err, ErrConflict) {
			return false, err
		}
	}
	return false, ErrConflict
}
