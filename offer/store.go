package offer

import (
	"context"

	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/transition"
)

// Store persists offers. UpdateOffer is conditional on o.Version and
// increments it on success.
type Store interface {
	CreateOffer(ctx context.Context, o *Offer) error
	GetOffer(ctx context.Context, tenantID string, offerID id.OfferID) (*Offer, error)
	UpdateOffer(ctx context.Context, o *Offer) error
	ListOffers(ctx context.Context, tenantID string, opts ListOpts) ([]*Offer, error)
}

type ListOpts struct {
	State  transition.State
	Limit  int
	Offset int
}
