package offer

import (
	"time"

	"github.com/xraph/faktura/costing"
	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/transition"
)

const (
	StateDraft    = transition.OfferDraft
	StateSent     = transition.OfferSent
	StateAccepted = transition.OfferAccepted
)

type Offer struct {
	document.Header
	ID          id.OfferID       `json:"id"`
	State       transition.State `json:"state"`
	ValidUntil  *time.Time       `json:"valid_until,omitempty"`
	SentAt      *time.Time       `json:"sent_at,omitempty"`
	AcceptedAt  *time.Time       `json:"accepted_at,omitempty"`
	CalcSummary *costing.Summary `json:"calc_summary,omitempty"`
}

// Clone returns a deep copy so stores never hand out shared pointers.
func (o *Offer) Clone() *Offer {
	c := *o
	c.Header = document.CloneHeader(o.Header)
	c.ValidUntil = cloneTime(o.ValidUntil)
	c.SentAt = cloneTime(o.SentAt)
	c.AcceptedAt = cloneTime(o.AcceptedAt)
	c.CalcSummary = o.CalcSummary.Clone()
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
