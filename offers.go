package faktura

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/offer"
	"github.com/xraph/faktura/plugin"
	"github.com/xraph/faktura/transition"
)

// OfferInput creates an offer.
type OfferInput struct {
	DocumentInput
	ValidUntil *time.Time
}

// OfferPatch updates an offer.
type OfferPatch struct {
	DocumentPatch
	ValidUntil *time.Time
}

// CreateOffer creates a draft offer, enriching line items from the tenant's
// rates and taking a fresh costing snapshot.
func (e *Engine) CreateOffer(ctx context.Context, in OfferInput) (*offer.Offer, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	o := &offer.Offer{
		Header:     e.newHeader(tenantID, ActorFrom(ctx), in.DocumentInput),
		ID:         id.NewOfferID(),
		State:      initialState(document.TypeOffer),
		ValidUntil: in.ValidUntil,
	}
	if err := validate(&o.Header); err != nil {
		return nil, err
	}

	o.LineItems, o.CalcSummary, err = e.costing.Recalculate(ctx, tenantID, o.LineItems, nil, o.Currency)
	if err != nil {
		return nil, fmt.Errorf("faktura: costing offer: %w", err)
	}
	recompute(&o.Header)

	if o.Number, err = e.nextNumber(ctx, tenantID, document.TypeOffer, o.IssueDate); err != nil {
		return nil, err
	}

	if err := e.store.CreateOffer(ctx, o); err != nil {
		return nil, fmt.Errorf("faktura: create offer: %w", err)
	}

	e.plugins.EmitOfferCreated(ctx, o)
	e.logger.Info("offer created",
		"tenant_id", tenantID,
		"offer_id", o.ID.String(),
		"number", o.Number,
		"gross", o.Totals.GrandTotalGross.String(),
	)
	return o, nil
}

// GetOffer returns one offer of the context tenant.
func (e *Engine) GetOffer(ctx context.Context, offerID id.OfferID) (*offer.Offer, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	return e.store.GetOffer(ctx, tenantID, offerID)
}

// ListOffers lists offers of the context tenant, newest first.
func (e *Engine) ListOffers(ctx context.Context, opts offer.ListOpts) ([]*offer.Offer, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	return e.store.ListOffers(ctx, tenantID, opts)
}

// UpdateOffer applies p. When p changes a totals input while the costing
// snapshot is locked the update is refused with ErrSnapshotLocked; otherwise
// costing and totals are recomputed before the conditional write.
func (e *Engine) UpdateOffer(ctx context.Context, offerID id.OfferID, p OfferPatch) (*offer.Offer, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	o, err := e.store.GetOffer(ctx, tenantID, offerID)
	if err != nil {
		return nil, err
	}

	before := document.CloneHeader(o.Header)
	applyPatch(&o.Header, p.DocumentPatch)
	if p.ValidUntil != nil {
		o.ValidUntil = p.ValidUntil
	}
	if err := validate(&o.Header); err != nil {
		return nil, err
	}

	if p.financial() && totalsChanged(&before, &o.Header) {
		if o.CalcSummary.Locked() {
			return nil, fmt.Errorf("%w: offer %s", ErrSnapshotLocked, o.Number)
		}
		o.LineItems, o.CalcSummary, err = e.costing.Recalculate(ctx, tenantID, o.LineItems, o.CalcSummary, o.Currency)
		if err != nil {
			return nil, fmt.Errorf("faktura: costing offer: %w", err)
		}
		recompute(&o.Header)
	}

	o.Touch(e.now())
	if err := e.store.UpdateOffer(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// SetOfferState moves an offer along draft -> sent -> accepted (or back to
// draft from sent). Setting the current state is a no-op.
func (e *Engine) SetOfferState(ctx context.Context, offerID id.OfferID, to transition.State) (*offer.Offer, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	o, err := e.store.GetOffer(ctx, tenantID, offerID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(ctx, document.TypeOffer, o.State, to); err != nil {
		return nil, err
	}
	if o.State == to {
		return o, nil
	}

	from := o.State
	now := e.now()
	o.State = to
	switch to {
	case offer.StateSent:
		o.SentAt = &now
	case offer.StateAccepted:
		o.AcceptedAt = &now
	}
	o.Touch(now)

	if err := e.store.UpdateOffer(ctx, o); err != nil {
		return nil, err
	}

	e.stateChanged(ctx, tenantID, document.TypeOffer, o.ID, o.Number, from, to)
	return o, nil
}

// SendOffer marks a draft offer as sent.
func (e *Engine) SendOffer(ctx context.Context, offerID id.OfferID) (*offer.Offer, error) {
	return e.SetOfferState(ctx, offerID, offer.StateSent)
}

// AcceptOffer marks a sent offer as accepted.
func (e *Engine) AcceptOffer(ctx context.Context, offerID id.OfferID) (*offer.Offer, error) {
	return e.SetOfferState(ctx, offerID, offer.StateAccepted)
}

// ──────────────────────────────────────────────────
// Costing snapshot
// ──────────────────────────────────────────────────

// RecalculateOfferCosting re-reads rates and replaces the snapshot. It
// fails with ErrSnapshotLocked while the snapshot is locked.
func (e *Engine) RecalculateOfferCosting(ctx context.Context, offerID id.OfferID) (*offer.Offer, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	o, err := e.store.GetOffer(ctx, tenantID, offerID)
	if err != nil {
		return nil, err
	}

	o.LineItems, o.CalcSummary, err = e.costing.Recalculate(ctx, tenantID, o.LineItems, o.CalcSummary, o.Currency)
	if err != nil {
		return nil, err
	}
	recompute(&o.Header)
	o.Touch(e.now())

	if err := e.store.UpdateOffer(ctx, o); err != nil {
		return nil, err
	}

	if len(o.CalcSummary.MissingRates) > 0 {
		e.logger.Warn("offer costing has missing rates",
			"tenant_id", tenantID,
			"offer_id", o.ID.String(),
			"positions", o.CalcSummary.MissingRates,
		)
	}
	return o, nil
}

// LockOfferSnapshot freezes the costing snapshot. Later edits that would
// change totals are refused until it is unlocked.
func (e *Engine) LockOfferSnapshot(ctx context.Context, offerID id.OfferID) (*offer.Offer, error) {
	return e.setSnapshotLock(ctx, offerID, true)
}

// UnlockOfferSnapshot clears the lock. The snapshot itself is kept until the
// next recalculation.
func (e *Engine) UnlockOfferSnapshot(ctx context.Context, offerID id.OfferID) (*offer.Offer, error) {
	return e.setSnapshotLock(ctx, offerID, false)
}

func (e *Engine) setSnapshotLock(ctx context.Context, offerID id.OfferID, lock bool) (*offer.Offer, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	o, err := e.store.GetOffer(ctx, tenantID, offerID)
	if err != nil {
		return nil, err
	}
	if o.CalcSummary == nil {
		return nil, fmt.Errorf("%w: offer %s", ErrNoSnapshot, o.Number)
	}
	if o.CalcSummary.Locked() == lock {
		return o, nil
	}

	now := e.now()
	if lock {
		o.CalcSummary.Lock(now)
	} else {
		o.CalcSummary.Unlock()
	}
	o.Touch(now)

	if err := e.store.UpdateOffer(ctx, o); err != nil {
		return nil, err
	}

	if lock {
		e.plugins.EmitSnapshotLocked(ctx, o)
	} else {
		e.plugins.EmitSnapshotUnlocked(ctx, o)
	}
	e.logger.Info("offer snapshot lock changed",
		"tenant_id", tenantID,
		"offer_id", o.ID.String(),
		"locked", lock,
	)
	return o, nil
}

func (e *Engine) stateChanged(ctx context.Context, tenantID string, docType document.Type, docID id.ID, number string, from, to transition.State) {
	e.plugins.EmitStateChanged(ctx, plugin.StateChange{
		TenantID: tenantID,
		DocType:  docType,
		DocID:    docID,
		Number:   number,
		From:     from,
		To:       to,
	})
	e.logger.Info("document state changed",
		"tenant_id", tenantID,
		"type", string(docType),
		"id", docID.String(),
		"from", string(from),
		"to", string(to),
	)
}
