// Package transition holds the legal state transitions of each document
// type and validates requested state changes against them.
package transition

import (
	"context"
	"errors"
	"fmt"

	"github.com/qmuntal/stateless"

	"github.com/xraph/faktura/document"
)

// ErrIllegal is returned for a transition the table does not permit.
var ErrIllegal = errors.New("faktura: illegal state transition")

// State is a document state value. Offer, order and invoice states share
// this type so one table engine serves all three.
type State string

// Offer states.
const (
	OfferDraft    State = "draft"
	OfferSent     State = "sent"
	OfferAccepted State = "accepted"
)

// Order states.
const (
	OrderOpen       State = "open"
	OrderInProgress State = "in_progress"
	OrderDone       State = "done"
)

// Invoice states.
const (
	InvoiceDraft   State = "draft"
	InvoiceSent    State = "sent"
	InvoicePaid    State = "paid"
	InvoiceOverdue State = "overdue"
)

const stayWithinState = "stay"

// edge is one permitted move; its trigger name is "from->to".
type edge struct{ from, to State }

func (e edge) trigger() string { return string(e.from) + "->" + string(e.to) }

// Table lists the states of one document type and the moves between them.
type Table struct {
	docType document.Type
	initial State
	states  []State
	edges   []edge
}

var (
	offerTable = Table{
		docType: document.TypeOffer,
		initial: OfferDraft,
		states:  []State{OfferDraft, OfferSent, OfferAccepted},
		edges: []edge{
			{OfferDraft, OfferSent},
			{OfferSent, OfferDraft},
			{OfferSent, OfferAccepted},
		},
	}

	orderTable = Table{
		docType: document.TypeOrder,
		initial: OrderOpen,
		states:  []State{OrderOpen, OrderInProgress, OrderDone},
		edges: []edge{
			{OrderOpen, OrderInProgress},
			{OrderOpen, OrderDone},
			{OrderInProgress, OrderDone},
			{OrderDone, OrderInProgress},
		},
	}

	invoiceTable = Table{
		docType: document.TypeInvoice,
		initial: InvoiceDraft,
		states:  []State{InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue},
		edges: []edge{
			{InvoiceDraft, InvoiceSent},
			{InvoiceDraft, InvoicePaid},
			{InvoiceDraft, InvoiceOverdue},
			{InvoiceSent, InvoicePaid},
			{InvoiceSent, InvoiceOverdue},
			{InvoiceOverdue, InvoicePaid},
		},
	}
)

// For returns the table of docType.
func For(docType document.Type) (Table, error) {
	switch docType {
	case document.TypeOffer:
		return offerTable, nil
	case document.TypeOrder:
		return orderTable, nil
	case document.TypeInvoice:
		return invoiceTable, nil
	default:
		return Table{}, fmt.Errorf("transition: unknown document type %q", docType)
	}
}

// Initial returns the state new documents start in.
func (t Table) Initial() State { return t.initial }

// Known reports whether s is a state of this table.
func (t Table) Known(s State) bool {
	for _, known := range t.states {
		if known == s {
			return true
		}
	}
	return false
}

// Validate checks that the document may move from -> to. Staying in the
// same state is always permitted.
func (t Table) Validate(ctx context.Context, from, to State) error {
	if !t.Known(to) {
		return fmt.Errorf("%w: %s has no state %q", ErrIllegal, t.docType, to)
	}

	machine := t.machine(from)
	trigger := stayWithinState
	if from != to {
		trigger = edge{from, to}.trigger()
	}

	if err := machine.FireCtx(ctx, trigger); err != nil {
		return fmt.Errorf("%w: %s %s -> %s", ErrIllegal, t.docType, from, to)
	}
	return nil
}

// Targets returns the states reachable from s in one move.
func (t Table) Targets(s State) []State {
	var out []State
	for _, e := range t.edges {
		if e.from == s {
			out = append(out, e.to)
		}
	}
	return out
}

func (t Table) machine(current State) *stateless.StateMachine {
	machine := stateless.NewStateMachine(current)
	for _, s := range t.states {
		cfg := machine.Configure(s).PermitReentry(stayWithinState)
		for _, e := range t.edges {
			if e.from == s {
				cfg.Permit(e.trigger(), e.to)
			}
		}
	}
	return machine
}
