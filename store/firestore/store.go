// Package firestore implements store.Store on Google Cloud Firestore.
//
// Every tenant owns a document under "faktura_tenants"; offers, orders,
// invoices, payments, rates and counters are subcollections of it, so a
// query can never cross tenants. Versioned updates and number allocation
// run inside Firestore transactions.
package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

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

const (
	colTenants   = "faktura_tenants"
	colOffers    = "offers"
	colOrders    = "orders"
	colInvoices  = "invoices"
	colPayments  = "payments"
	colMaterials = "materials"
	colPersonnel = "personnel"
	colCounters  = "counters"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	client *firestore.Client
}

// New wraps an open client. Close closes it.
func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

// Open creates a client for projectID and wraps it.
func Open(ctx context.Context, projectID string) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("faktura/firestore: new client: %w", err)
	}
	return New(client), nil
}

// Client returns the underlying Firestore client.
func (s *Store) Client() *firestore.Client { return s.client }

// Migrate is a no-op: collections are created on first write and the
// composite indexes are deployed with the project's index configuration.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping reads at most one tenant document.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection(colTenants).Limit(1).Documents(ctx).GetAll()
	return err
}

func (s *Store) Close() error {
	return s.client.Close()
}

// docModel is the stored shape of offers, orders and invoices. Body holds
// the JSON encoding; the other fields back queries and version checks.
type docModel struct {
	Number    string    `firestore:"number"`
	State     string    `firestore:"state"`
	DueDate   time.Time `firestore:"due_date,omitempty"`
	Body      string    `firestore:"body"`
	Version   int64     `firestore:"version"`
	CreatedAt time.Time `firestore:"created_at"`
}

type counterModel struct {
	Value int64 `firestore:"value"`
}

func (s *Store) coll(tenantID, name string) *firestore.CollectionRef {
	return s.client.Collection(colTenants).Doc(tenantID).Collection(name)
}

// ──────────────────────────────────────────────────
// Offers
// ──────────────────────────────────────────────────

func (s *Store) CreateOffer(ctx context.Context, o *offer.Offer) error {
	m, err := newDocModel(o, o.Number, string(o.State), time.Time{}, o.Version, o.CreatedAt)
	if err != nil {
		return err
	}
	return s.create(ctx, s.coll(o.TenantID, colOffers).Doc(o.ID.String()), m)
}

func (s *Store) GetOffer(ctx context.Context, tenantID string, offerID id.OfferID) (*offer.Offer, error) {
	var o offer.Offer
	if err := s.get(ctx, s.coll(tenantID, colOffers).Doc(offerID.String()), &o, &o.Version, faktura.ErrOfferNotFound); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) UpdateOffer(ctx context.Context, o *offer.Offer) error {
	m, err := newDocModel(o, o.Number, string(o.State), time.Time{}, o.Version, o.CreatedAt)
	if err != nil {
		return err
	}
	if err := s.update(ctx, s.coll(o.TenantID, colOffers).Doc(o.ID.String()), m, faktura.ErrOfferNotFound); err != nil {
		return err
	}
	o.Version++
	return nil
}

func (s *Store) ListOffers(ctx context.Context, tenantID string, opts offer.ListOpts) ([]*offer.Offer, error) {
	q := s.coll(tenantID, colOffers).Query
	if opts.State != "" {
		q = q.Where("state", "==", string(opts.State))
	}
	return list[offer.Offer](ctx, q, opts.Offset, opts.Limit, func(o *offer.Offer, v int64) { o.Version = v })
}

// ──────────────────────────────────────────────────
// Orders
// ──────────────────────────────────────────────────

func (s *Store) CreateOrder(ctx context.Context, o *order.Order) error {
	m, err := newDocModel(o, o.Number, string(o.State), time.Time{}, o.Version, o.CreatedAt)
	if err != nil {
		return err
	}
	return s.create(ctx, s.coll(o.TenantID, colOrders).Doc(o.ID.String()), m)
}

func (s *Store) GetOrder(ctx context.Context, tenantID string, orderID id.OrderID) (*order.Order, error) {
	var o order.Order
	if err := s.get(ctx, s.coll(tenantID, colOrders).Doc(orderID.String()), &o, &o.Version, faktura.ErrOrderNotFound); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) UpdateOrder(ctx context.Context, o *order.Order) error {
	m, err := newDocModel(o, o.Number, string(o.State), time.Time{}, o.Version, o.CreatedAt)
	if err != nil {
		return err
	}
	if err := s.update(ctx, s.coll(o.TenantID, colOrders).Doc(o.ID.String()), m, faktura.ErrOrderNotFound); err != nil {
		return err
	}
	o.Version++
	return nil
}

func (s *Store) ListOrders(ctx context.Context, tenantID string, opts order.ListOpts) ([]*order.Order, error) {
	q := s.coll(tenantID, colOrders).Query
	if opts.State != "" {
		q = q.Where("state", "==", string(opts.State))
	}
	return list[order.Order](ctx, q, opts.Offset, opts.Limit, func(o *order.Order, v int64) { o.Version = v })
}

// ──────────────────────────────────────────────────
// Invoices
// ──────────────────────────────────────────────────

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	m, err := newDocModel(inv, inv.Number, string(inv.State), inv.DueDate, inv.Version, inv.CreatedAt)
	if err != nil {
		return err
	}
	return s.create(ctx, s.coll(inv.TenantID, colInvoices).Doc(inv.ID.String()), m)
}

func (s *Store) GetInvoice(ctx context.Context, tenantID string, invID id.InvoiceID) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	if err := s.get(ctx, s.coll(tenantID, colInvoices).Doc(invID.String()), &inv, &inv.Version, faktura.ErrInvoiceNotFound); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	m, err := newDocModel(inv, inv.Number, string(inv.State), inv.DueDate, inv.Version, inv.CreatedAt)
	if err != nil {
		return err
	}
	if err := s.update(ctx, s.coll(inv.TenantID, colInvoices).Doc(inv.ID.String()), m, faktura.ErrInvoiceNotFound); err != nil {
		return err
	}
	inv.Version++
	return nil
}

func (s *Store) ListInvoices(ctx context.Context, tenantID string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	q := s.coll(tenantID, colInvoices).Query
	if len(opts.States) > 0 {
		states := make([]string, len(opts.States))
		for i, st := range opts.States {
			states[i] = string(st)
		}
		q = q.Where("state", "in", states)
	}
	if !opts.DueBefore.IsZero() {
		q = q.Where("due_date", "<", opts.DueBefore)
	}
	return list[invoice.Invoice](ctx, q, opts.Offset, opts.Limit, func(inv *invoice.Invoice, v int64) { inv.Version = v })
}

// ──────────────────────────────────────────────────
// Payments
// ──────────────────────────────────────────────────

type paymentModel struct {
	InvoiceID string    `firestore:"invoice_id"`
	PaidOn    time.Time `firestore:"paid_on"`
	Body      string    `firestore:"body"`
	CreatedAt time.Time `firestore:"created_at"`
}

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("faktura/firestore: encode payment: %w", err)
	}
	_, err = s.coll(p.TenantID, colPayments).Doc(p.ID.String()).Create(ctx, paymentModel{
		InvoiceID: p.InvoiceID.String(),
		PaidOn:    p.Date,
		Body:      string(body),
		CreatedAt: p.CreatedAt,
	})
	if status.Code(err) == codes.AlreadyExists {
		return faktura.ErrAlreadyExists
	}
	return err
}

func (s *Store) ListPayments(ctx context.Context, tenantID string, invoiceID id.InvoiceID) ([]*payment.Payment, error) {
	snaps, err := s.coll(tenantID, colPayments).
		Where("invoice_id", "==", invoiceID.String()).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("faktura/firestore: list payments: %w", err)
	}

	out := make([]*payment.Payment, 0, len(snaps))
	for _, snap := range snaps {
		var m paymentModel
		if err := snap.DataTo(&m); err != nil {
			return nil, err
		}
		var p payment.Payment
		if err := json.Unmarshal([]byte(m.Body), &p); err != nil {
			return nil, fmt.Errorf("faktura/firestore: decode payment %s: %w", snap.Ref.ID, err)
		}
		out = append(out, &p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ──────────────────────────────────────────────────
// Rates
// ──────────────────────────────────────────────────

func (s *Store) GetMaterial(ctx context.Context, tenantID string, materialID id.ID) (*rate.Material, error) {
	var m rate.Material
	if err := s.getRate(ctx, s.coll(tenantID, colMaterials).Doc(materialID.String()), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) GetPersonnel(ctx context.Context, tenantID string, personnelID id.ID) (*rate.Personnel, error) {
	var p rate.Personnel
	if err := s.getRate(ctx, s.coll(tenantID, colPersonnel).Doc(personnelID.String()), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) SaveMaterial(ctx context.Context, m *rate.Material) error {
	return s.saveRate(ctx, s.coll(m.TenantID, colMaterials).Doc(m.ID.String()), m)
}

func (s *Store) SavePersonnel(ctx context.Context, p *rate.Personnel) error {
	return s.saveRate(ctx, s.coll(p.TenantID, colPersonnel).Doc(p.ID.String()), p)
}

func (s *Store) getRate(ctx context.Context, ref *firestore.DocumentRef, dst any) error {
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return faktura.ErrRateNotFound
		}
		return err
	}
	var body struct {
		Body string `firestore:"body"`
	}
	if err := snap.DataTo(&body); err != nil {
		return err
	}
	return json.Unmarshal([]byte(body.Body), dst)
}

func (s *Store) saveRate(ctx context.Context, ref *firestore.DocumentRef, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("faktura/firestore: encode rate: %w", err)
	}
	_, err = ref.Set(ctx, map[string]any{"body": string(body)})
	return err
}

// ──────────────────────────────────────────────────
// Numbering
// ──────────────────────────────────────────────────

// Next implements numbering.Counter in a transaction; Firestore retries it
// when another allocation touched the same counter document.
func (s *Store) Next(ctx context.Context, tenantID string, docType document.Type, year int) (int64, error) {
	ref := s.coll(tenantID, colCounters).Doc(fmt.Sprintf("%s-%d", docType, year))

	var next int64
	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		var c counterModel
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			if err := snap.DataTo(&c); err != nil {
				return err
			}
		}
		next = c.Value + 1
		return tx.Set(ref, counterModel{Value: next})
	})
	if err != nil {
		return 0, fmt.Errorf("faktura/firestore: next number %s: %w", numbering.Key(tenantID, docType, year), err)
	}
	return next, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func newDocModel(v any, number, state string, due time.Time, version int64, createdAt time.Time) (*docModel, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("faktura/firestore: encode: %w", err)
	}
	return &docModel{
		Number:    number,
		State:     state,
		DueDate:   due,
		Body:      string(body),
		Version:   version,
		CreatedAt: createdAt,
	}, nil
}

func (s *Store) create(ctx context.Context, ref *firestore.DocumentRef, m *docModel) error {
	_, err := ref.Create(ctx, m)
	if status.Code(err) == codes.AlreadyExists {
		return faktura.ErrAlreadyExists
	}
	return err
}

func (s *Store) get(ctx context.Context, ref *firestore.DocumentRef, dst any, version *int64, notFound error) error {
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return notFound
		}
		return err
	}
	var m docModel
	if err := snap.DataTo(&m); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(m.Body), dst); err != nil {
		return fmt.Errorf("faktura/firestore: decode %s: %w", ref.ID, err)
	}
	*version = m.Version
	return nil
}

// update replaces the document if its stored version still equals
// m.Version, writing m.Version+1.
func (s *Store) update(ctx context.Context, ref *firestore.DocumentRef, m *docModel, notFound error) error {
	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return notFound
			}
			return err
		}
		var cur docModel
		if err := snap.DataTo(&cur); err != nil {
			return err
		}
		if cur.Version != m.Version {
			return faktura.ErrConflict
		}
		next := *m
		next.Version++
		return tx.Set(ref, &next)
	})
	if errors.Is(err, notFound) || errors.Is(err, faktura.ErrConflict) {
		return err
	}
	if err != nil {
		return fmt.Errorf("faktura/firestore: update %s: %w", ref.ID, err)
	}
	return nil
}

// list runs q and pages the result newest first. Sorting happens here so
// equality and range filters need no composite index on created_at.
func list[T any](ctx context.Context, q firestore.Query, offset, limit int, setVersion func(*T, int64)) ([]*T, error) {
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("faktura/firestore: query: %w", err)
	}

	type row struct {
		v       *T
		created time.Time
	}
	rows := make([]row, 0, len(snaps))
	for _, snap := range snaps {
		var m docModel
		if err := snap.DataTo(&m); err != nil {
			return nil, err
		}
		v := new(T)
		if err := json.Unmarshal([]byte(m.Body), v); err != nil {
			return nil, fmt.Errorf("faktura/firestore: decode %s: %w", snap.Ref.ID, err)
		}
		setVersion(v, m.Version)
		rows = append(rows, row{v: v, created: m.CreatedAt})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].created.After(rows[j].created) })

	if offset > 0 {
		if offset >= len(rows) {
			return nil, nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	out := make([]*T, len(rows))
	for i, r := range rows {
		out[i] = r.v
	}
	return out, nil
}
