package invoice

import (
	"time"

	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/transition"
	"github.com/xraph/faktura/types"
)

const (
	StateDraft   = transition.InvoiceDraft
	StateSent    = transition.InvoiceSent
	StatePaid    = transition.InvoicePaid
	StateOverdue = transition.InvoiceOverdue
)

type Invoice struct {
	document.Header
	ID             id.InvoiceID     `json:"id"`
	State          transition.State `json:"state"`
	DueDate        time.Time        `json:"due_date"`
	RelatedOrderID id.OrderID       `json:"related_order_id"`
	RelatedOfferID id.OfferID       `json:"related_offer_id"`

	PaymentsTotal types.Money `json:"payments_total"`
	OpenAmount    types.Money `json:"open_amount"`

	SentAt *time.Time `json:"sent_at,omitempty"`
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

// Finalized reports whether the invoice has left draft and may be exported.
func (inv *Invoice) Finalized() bool { return inv.State != StateDraft }

// IsOverdueAt reports whether the invoice is unpaid, not yet marked overdue
// and due strictly before the start of the day containing now.
func (inv *Invoice) IsOverdueAt(now time.Time) bool {
	if inv.State == StatePaid || inv.State == StateOverdue || inv.DueDate.IsZero() {
		return false
	}
	return inv.DueDate.Before(StartOfDay(now))
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (inv *Invoice) Clone() *Invoice {
	c := *inv
	c.Header = document.CloneHeader(inv.Header)
	if inv.SentAt != nil {
		at := *inv.SentAt
		c.SentAt = &at
	}
	if inv.PaidAt != nil {
		at := *inv.PaidAt
		c.PaidAt = &at
	}
	return &c
}
