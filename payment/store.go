package payment

import (
	"context"

	"github.com/xraph/faktura/id"
)

// Store appends and lists payments. Payments are never updated.
type Store interface {
	CreatePayment(ctx context.Context, p *Payment) error
	ListPayments(ctx context.Context, tenantID string, invoiceID id.InvoiceID) ([]*Payment, error)
}
