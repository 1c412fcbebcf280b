package invoice

import (
	"context"
	"time"

	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/transition"
)

type Store interface {
	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, tenantID string, invID id.InvoiceID) (*Invoice, error)
	UpdateInvoice(ctx context.Context, inv *Invoice) error
	ListInvoices(ctx context.Context, tenantID string, opts ListOpts) ([]*Invoice, error)
}

// ListOpts filters a tenant's invoices. Zero values do not filter.
type ListOpts struct {
	States    []transition.State
	DueBefore time.Time
	Limit     int
	Offset    int
}

// Matches reports whether inv passes the filter, ignoring paging.
func (o ListOpts) Matches(inv *Invoice) bool {
	if len(o.States) > 0 {
		found := false
		for _, s := range o.States {
			if inv.State == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !o.DueBefore.IsZero() && !inv.DueDate.Before(o.DueBefore) {
		return false
	}
	return true
}
