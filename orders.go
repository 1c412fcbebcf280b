package faktura

import (
	"context"
	"fmt"

	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/order"
	"github.com/xraph/faktura/plugin"
	"github.com/xraph/faktura/transition"
)

// CreateOrder creates an open order without a predecessor.
func (e *Engine) CreateOrder(ctx context.Context, in DocumentInput) (*order.Order, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		Header: e.newHeader(tenantID, ActorFrom(ctx), in),
		ID:     id.NewOrderID(),
		State:  initialState(document.TypeOrder),
	}
	if err := validate(&o.Header); err != nil {
		return nil, err
	}
	recompute(&o.Header)

	if o.Number, err = e.nextNumber(ctx, tenantID, document.TypeOrder, o.IssueDate); err != nil {
		return nil, err
	}
	if err := e.store.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("faktura: create order: %w", err)
	}

	e.plugins.EmitOrderCreated(ctx, o)
	e.logger.Info("order created", "tenant_id", tenantID, "order_id", o.ID.String(), "number", o.Number)
	return o, nil
}

// ConvertOfferToOrder copies an offer into a new open order. Client, line
// items, tax keys, discounts and totals are carried over unchanged; the
// order gets its own number and today's issue date. The offer is not
// modified.
func (e *Engine) ConvertOfferToOrder(ctx context.Context, offerID id.OfferID) (*order.Order, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	src, err := e.store.GetOffer(ctx, tenantID, offerID)
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		Header:         e.derivedHeader(ctx, src.Header),
		ID:             id.NewOrderID(),
		State:          initialState(document.TypeOrder),
		RelatedOfferID: src.ID,
	}
	if o.Number, err = e.nextNumber(ctx, tenantID, document.TypeOrder, o.IssueDate); err != nil {
		return nil, err
	}
	if err := e.store.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("faktura: create order: %w", err)
	}

	e.plugins.EmitOrderCreated(ctx, o)
	e.converted(ctx, tenantID, document.TypeOffer, src.ID, document.TypeOrder, o.ID, o.Number)
	return o, nil
}

// GetOrder returns one order of the context tenant.
func (e *Engine) GetOrder(ctx context.Context, orderID id.OrderID) (*order.Order, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	return e.store.GetOrder(ctx, tenantID, orderID)
}

// ListOrders lists orders of the context tenant, newest first.
func (e *Engine) ListOrders(ctx context.Context, opts order.ListOpts) ([]*order.Order, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	return e.store.ListOrders(ctx, tenantID, opts)
}

// UpdateOrder applies p and recomputes totals.
func (e *Engine) UpdateOrder(ctx context.Context, orderID id.OrderID, p DocumentPatch) (*order.Order, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	o, err := e.store.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	applyPatch(&o.Header, p)
	if err := validate(&o.Header); err != nil {
		return nil, err
	}
	if p.financial() {
		recompute(&o.Header)
	}
	o.Touch(e.now())

	if err := e.store.UpdateOrder(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// SetOrderState moves an order between open, in_progress and done.
func (e *Engine) SetOrderState(ctx context.Context, orderID id.OrderID, to transition.State) (*order.Order, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	o, err := e.store.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(ctx, document.TypeOrder, o.State, to); err != nil {
		return nil, err
	}
	if o.State == to {
		return o, nil
	}

	from := o.State
	now := e.now()
	o.State = to
	if to == order.StateDone {
		o.CompletedAt = &now
	} else {
		o.CompletedAt = nil
	}
	o.Touch(now)

	if err := e.store.UpdateOrder(ctx, o); err != nil {
		return nil, err
	}

	e.stateChanged(ctx, tenantID, document.TypeOrder, o.ID, o.Number, from, to)
	return o, nil
}

// derivedHeader copies src into the header of a successor document created
// now by the context actor. The issue date, and with it the numbering year,
// stays that of the source document.
func (e *Engine) derivedHeader(ctx context.Context, src document.Header) document.Header {
	now := e.now()
	h := document.CloneHeader(src)
	h.Entity = NewEntity(now, ActorFrom(ctx))
	h.Number = ""
	return h
}

func (e *Engine) converted(ctx context.Context, tenantID string, from document.Type, fromID id.ID, to document.Type, toID id.ID, number string) {
	e.plugins.EmitDocumentConverted(ctx, plugin.Conversion{
		TenantID: tenantID,
		From:     from,
		FromID:   fromID,
		To:       to,
		ToID:     toID,
		Number:   number,
	})
	e.logger.Info("document converted",
		"tenant_id", tenantID,
		"from", string(from),
		"from_id", fromID.String(),
		"to", string(to),
		"to_id", toID.String(),
		"number", number,
	)
}
