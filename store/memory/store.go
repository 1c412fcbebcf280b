// Package memory is an in-process store.Store for tests and single-node
// development. All data lives in maps guarded by one RWMutex; documents are
// cloned on the way in and out so callers never share state with the store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/faktura"
	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/numbering"
	"github.com/xraph/faktura/offer"
	"github.com/xraph/faktura/order"
	"github.com/xraph/faktura/payment"
	"github.com/xraph/faktura/rate"
	"github.com/xraph/faktura/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	closed bool

	offers    map[string]*offer.Offer
	orders    map[string]*order.Order
	invoices  map[string]*invoice.Invoice
	payments  map[string][]*payment.Payment // by tenant/invoice
	materials map[string]*rate.Material
	personnel map[string]*rate.Personnel
	counters  map[string]int64
}

func New() *Store {
	return &Store{
		offers:    make(map[string]*offer.Offer),
		orders:    make(map[string]*order.Order),
		invoices:  make(map[string]*invoice.Invoice),
		payments:  make(map[string][]*payment.Payment),
		materials: make(map[string]*rate.Material),
		personnel: make(map[string]*rate.Personnel),
		counters:  make(map[string]int64),
	}
}

func key(tenantID string, i id.ID) string { return tenantID + "/" + i.String() }

// ──────────────────────────────────────────────────
// Offers
// ──────────────────────────────────────────────────

func (s *Store) CreateOffer(_ context.Context, o *offer.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(o.TenantID, o.ID)
	if _, exists := s.offers[k]; exists {
		return faktura.ErrAlreadyExists
	}
	s.offers[k] = o.Clone()
	return nil
}

func (s *Store) GetOffer(_ context.Context, tenantID string, offerID id.OfferID) (*offer.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if o, ok := s.offers[key(tenantID, offerID)]; ok {
		return o.Clone(), nil
	}
	return nil, faktura.ErrOfferNotFound
}

func (s *Store) UpdateOffer(_ context.Context, o *offer.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(o.TenantID, o.ID)
	cur, ok := s.offers[k]
	if !ok {
		return faktura.ErrOfferNotFound
	}
	if cur.Version != o.Version {
		return faktura.ErrConflict
	}
	o.Version++
	s.offers[k] = o.Clone()
	return nil
}

func (s *Store) ListOffers(_ context.Context, tenantID string, opts offer.ListOpts) ([]*offer.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*offer.Offer
	for _, o := range s.offers {
		if o.TenantID != tenantID || (opts.State != "" && o.State != opts.State) {
			continue
		}
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, opts.Offset, opts.Limit), nil
}

// ──────────────────────────────────────────────────
// Orders
// ──────────────────────────────────────────────────

func (s *Store) CreateOrder(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(o.TenantID, o.ID)
	if _, exists := s.orders[k]; exists {
		return faktura.ErrAlreadyExists
	}
	s.orders[k] = o.Clone()
	return nil
}

func (s *Store) GetOrder(_ context.Context, tenantID string, orderID id.OrderID) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if o, ok := s.orders[key(tenantID, orderID)]; ok {
		return o.Clone(), nil
	}
	return nil, faktura.ErrOrderNotFound
}

func (s *Store) UpdateOrder(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(o.TenantID, o.ID)
	cur, ok := s.orders[k]
	if !ok {
		return faktura.ErrOrderNotFound
	}
	if cur.Version != o.Version {
		return faktura.ErrConflict
	}
	o.Version++
	s.orders[k] = o.Clone()
	return nil
}

func (s *Store) ListOrders(_ context.Context, tenantID string, opts order.ListOpts) ([]*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*order.Order
	for _, o := range s.orders {
		if o.TenantID != tenantID || (opts.State != "" && o.State != opts.State) {
			continue
		}
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, opts.Offset, opts.Limit), nil
}

// ──────────────────────────────────────────────────
// Invoices
// ──────────────────────────────────────────────────

func (s *Store) CreateInvoice(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(inv.TenantID, inv.ID)
	if _, exists := s.invoices[k]; exists {
		return faktura.ErrAlreadyExists
	}
	s.invoices[k] = inv.Clone()
	return nil
}

func (s *Store) GetInvoice(_ context.Context, tenantID string, invID id.InvoiceID) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inv, ok := s.invoices[key(tenantID, invID)]; ok {
		return inv.Clone(), nil
	}
	return nil, faktura.ErrInvoiceNotFound
}

func (s *Store) UpdateInvoice(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(inv.TenantID, inv.ID)
	cur, ok := s.invoices[k]
	if !ok {
		return faktura.ErrInvoiceNotFound
	}
	if cur.Version != inv.Version {
		return faktura.ErrConflict
	}
	inv.Version++
	s.invoices[k] = inv.Clone()
	return nil
}

func (s *Store) ListInvoices(_ context.Context, tenantID string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*invoice.Invoice
	for _, inv := range s.invoices {
		if inv.TenantID != tenantID || !opts.Matches(inv) {
			continue
		}
		out = append(out, inv.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, opts.Offset, opts.Limit), nil
}

// ──────────────────────────────────────────────────
// Payments
// ──────────────────────────────────────────────────

func (s *Store) CreatePayment(_ context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(p.TenantID, p.InvoiceID)
	for _, existing := range s.payments[k] {
		if existing.ID.String() == p.ID.String() {
			return faktura.ErrAlreadyExists
		}
	}
	cp := *p
	s.payments[k] = append(s.payments[k], &cp)
	return nil
}

func (s *Store) ListPayments(_ context.Context, tenantID string, invoiceID id.InvoiceID) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.payments[key(tenantID, invoiceID)]
	out := make([]*payment.Payment, len(stored))
	for i, p := range stored {
		cp := *p
		out[i] = &cp
	}
	return out, nil
}

// ──────────────────────────────────────────────────
// Rates
// ──────────────────────────────────────────────────

func (s *Store) GetMaterial(_ context.Context, tenantID string, materialID id.ID) (*rate.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.materials[key(tenantID, materialID)]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, faktura.ErrRateNotFound
}

func (s *Store) GetPersonnel(_ context.Context, tenantID string, personnelID id.ID) (*rate.Personnel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.personnel[key(tenantID, personnelID)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, faktura.ErrRateNotFound
}

func (s *Store) SaveMaterial(_ context.Context, m *rate.Material) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *m
	s.materials[key(m.TenantID, m.ID)] = &cp
	return nil
}

func (s *Store) SavePersonnel(_ context.Context, p *rate.Personnel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.personnel[key(p.TenantID, p.ID)] = &cp
	return nil
}

// ──────────────────────────────────────────────────
// Numbering
// ──────────────────────────────────────────────────

// Next implements numbering.Counter under the store's write lock.
func (s *Store) Next(_ context.Context, tenantID string, docType document.Type, year int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := numbering.Key(tenantID, docType, year)
	s.counters[k]++
	return s.counters[k], nil
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return faktura.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
