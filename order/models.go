package order

import (
	"time"

	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/transition"
)

const (
	StateOpen       = transition.OrderOpen
	StateInProgress = transition.OrderInProgress
	StateDone       = transition.OrderDone
)

type Order struct {
	document.Header
	ID             id.OrderID       `json:"id"`
	State          transition.State `json:"state"`
	RelatedOfferID id.OfferID       `json:"related_offer_id"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}

func (o *Order) Clone() *Order {
	c := *o
	c.Header = document.CloneHeader(o.Header)
	if o.CompletedAt != nil {
		at := *o.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}
