// Package mongo implements store.Store on MongoDB through Grove.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

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

// Collection name constants.
const (
	colOffers   = "faktura_offers"
	colOrders   = "faktura_orders"
	colInvoices = "faktura_invoices"
	colPayments = "faktura_payments"
	colRates    = "faktura_rates"
	colCounters = "faktura_counters"
)

const (
	kindMaterial  = "material"
	kindPersonnel = "personnel"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all faktura collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("faktura/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Offer Store ====================

func (s *Store) CreateOffer(ctx context.Context, o *offer.Offer) error {
	m, err := toOfferModel(o)
	if err != nil {
		return err
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("faktura/mongo: create offer: %w", err)
	}
	return nil
}

func (s *Store) GetOffer(ctx context.Context, tenantID string, offerID id.OfferID) (*offer.Offer, error) {
	var m offerModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": offerID.String(), "tenant_id": tenantID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, faktura.ErrOfferNotFound
		}
		return nil, fmt.Errorf("faktura/mongo: get offer: %w", err)
	}
	return fromOfferModel(&m)
}

func (s *Store) UpdateOffer(ctx context.Context, o *offer.Offer) error {
	m, err := toOfferModel(o)
	if err != nil {
		return err
	}
	at := now()
	update := s.mdb.NewUpdate((*offerModel)(nil)).
		Filter(versionFilter(m.ID, m.TenantID, o.Version)).
		Set("number", m.Number).
		Set("state", m.State).
		Set("gross", m.Gross).
		Set("currency", m.Currency).
		Set("body", m.Body).
		Set("version", o.Version+1).
		Set("updated_at", at)
	res, err := update.Exec(ctx)
	if err != nil {
		return fmt.Errorf("faktura/mongo: update %s: %w", colOffers, err)
	}
	if res.MatchedCount() == 0 {
		return s.missed(ctx, colOffers, m.ID, m.TenantID, faktura.ErrOfferNotFound)
	}
	o.Version++
	o.UpdatedAt = at
	return nil
}

func (s *Store) ListOffers(ctx context.Context, tenantID string, opts offer.ListOpts) ([]*offer.Offer, error) {
	var models []offerModel

	filter := bson.M{"tenant_id": tenantID}
	if opts.State != "" {
		filter["state"] = string(opts.State)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("faktura/mongo: list offers: %w", err)
	}

	result := make([]*offer.Offer, len(models))
	for i := range models {
		o, err := fromOfferModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = o
	}
	return result, nil
}

// ==================== Order Store ====================

func (s *Store) CreateOrder(ctx context.Context, o *order.Order) error {
	m, err := toOrderModel(o)
	if err != nil {
		return err
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("faktura/mongo: create order: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, tenantID string, orderID id.OrderID) (*order.Order, error) {
	var m orderModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": orderID.String(), "tenant_id": tenantID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, faktura.ErrOrderNotFound
		}
		return nil, fmt.Errorf("faktura/mongo: get order: %w", err)
	}
	return fromOrderModel(&m)
}

func (s *Store) UpdateOrder(ctx context.Context, o *order.Order) error {
	m, err := toOrderModel(o)
	if err != nil {
		return err
	}
	at := now()
	update := s.mdb.NewUpdate((*orderModel)(nil)).
		Filter(versionFilter(m.ID, m.TenantID, o.Version)).
		Set("number", m.Number).
		Set("state", m.State).
		Set("gross", m.Gross).
		Set("currency", m.Currency).
		Set("body", m.Body).
		Set("version", o.Version+1).
		Set("updated_at", at)
	res, err := update.Exec(ctx)
	if err != nil {
		return fmt.Errorf("faktura/mongo: update %s: %w", colOrders, err)
	}
	if res.MatchedCount() == 0 {
		return s.missed(ctx, colOrders, m.ID, m.TenantID, faktura.ErrOrderNotFound)
	}
	o.Version++
	o.UpdatedAt = at
	return nil
}

func (s *Store) ListOrders(ctx context.Context, tenantID string, opts order.ListOpts) ([]*order.Order, error) {
	var models []orderModel

	filter := bson.M{"tenant_id": tenantID}
	if opts.State != "" {
		filter["state"] = string(opts.State)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("faktura/mongo: list orders: %w", err)
	}

	result := make([]*order.Order, len(models))
	for i := range models {
		o, err := fromOrderModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = o
	}
	return result, nil
}

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	m, err := toInvoiceModel(inv)
	if err != nil {
		return err
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("faktura/mongo: create invoice: %w", err)
	}
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, tenantID string, invID id.InvoiceID) (*invoice.Invoice, error) {
	var m invoiceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": invID.String(), "tenant_id": tenantID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, faktura.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("faktura/mongo: get invoice: %w", err)
	}
	return fromInvoiceModel(&m)
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	m, err := toInvoiceModel(inv)
	if err != nil {
		return err
	}
	at := now()
	update := s.mdb.NewUpdate((*invoiceModel)(nil)).
		Filter(versionFilter(m.ID, m.TenantID, inv.Version)).
		Set("number", m.Number).
		Set("state", m.State).
		Set("gross", m.Gross).
		Set("currency", m.Currency).
		Set("due_date", m.DueDate).
		Set("open_amount", m.OpenAmount).
		Set("body", m.Body).
		Set("version", inv.Version+1).
		Set("updated_at", at)
	res, err := update.Exec(ctx)
	if err != nil {
		return fmt.Errorf("faktura/mongo: update %s: %w", colInvoices, err)
	}
	if res.MatchedCount() == 0 {
		return s.missed(ctx, colInvoices, m.ID, m.TenantID, faktura.ErrInvoiceNotFound)
	}
	inv.Version++
	inv.UpdatedAt = at
	return nil
}

func (s *Store) ListInvoices(ctx context.Context, tenantID string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel

	filter := bson.M{"tenant_id": tenantID}
	if len(opts.States) > 0 {
		states := make([]string, len(opts.States))
		for i, st := range opts.States {
			states[i] = string(st)
		}
		filter["state"] = bson.M{"$in": states}
	}
	if !opts.DueBefore.IsZero() {
		filter["due_date"] = bson.M{"$lt": opts.DueBefore}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("faktura/mongo: list invoices: %w", err)
	}

	result := make([]*invoice.Invoice, len(models))
	for i := range models {
		inv, err := fromInvoiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = inv
	}
	return result, nil
}

// ==================== Payment Store ====================

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	m, err := toPaymentModel(p)
	if err != nil {
		return err
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("faktura/mongo: create payment: %w", err)
	}
	return nil
}

func (s *Store) ListPayments(ctx context.Context, tenantID string, invoiceID id.InvoiceID) ([]*payment.Payment, error) {
	var models []paymentModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"tenant_id": tenantID, "invoice_id": invoiceID.String()}).
		Sort(bson.D{{Key: "paid_on", Value: 1}, {Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("faktura/mongo: list payments: %w", err)
	}

	result := make([]*payment.Payment, len(models))
	for i := range models {
		p, err := fromPaymentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

// ==================== Rate Store ====================

func (s *Store) GetMaterial(ctx context.Context, tenantID string, materialID id.ID) (*rate.Material, error) {
	var out rate.Material
	if err := s.getRate(ctx, tenantID, materialID, kindMaterial, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) GetPersonnel(ctx context.Context, tenantID string, personnelID id.ID) (*rate.Personnel, error) {
	var out rate.Personnel
	if err := s.getRate(ctx, tenantID, personnelID, kindPersonnel, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) SaveMaterial(ctx context.Context, m *rate.Material) error {
	return s.saveRate(ctx, m.ID, m.TenantID, kindMaterial, m)
}

func (s *Store) SavePersonnel(ctx context.Context, p *rate.Personnel) error {
	return s.saveRate(ctx, p.ID, p.TenantID, kindPersonnel, p)
}

func (s *Store) getRate(ctx context.Context, tenantID string, rateID id.ID, kind string, dst any) error {
	var m rateModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": rateID.String(), "tenant_id": tenantID, "kind": kind}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return faktura.ErrRateNotFound
		}
		return fmt.Errorf("faktura/mongo: get %s: %w", kind, err)
	}
	return decode(m.Body, m.ID, dst)
}

func (s *Store) saveRate(ctx context.Context, rateID id.ID, tenantID, kind string, v any) error {
	body, err := encode(v)
	if err != nil {
		return err
	}
	_, err = s.mdb.NewUpdate((*rateModel)(nil)).
		Filter(bson.M{"_id": rateID.String()}).
		SetUpdate(bson.M{"$set": bson.M{
			"tenant_id": tenantID,
			"kind":      kind,
			"body":      body,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("faktura/mongo: save %s: %w", kind, err)
	}
	return nil
}

// ==================== Numbering ====================

// Next implements numbering.Counter with an upserting $inc, which MongoDB
// applies atomically to the single counter document.
func (s *Store) Next(ctx context.Context, tenantID string, docType document.Type, year int) (int64, error) {
	var c counterModel
	err := s.mdb.Collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": numbering.Key(tenantID, docType, year)},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("faktura/mongo: next number: %w", err)
	}
	return c.Value, nil
}

// ==================== Helpers ====================

func versionFilter(docID, tenantID string, version int64) bson.M {
	return bson.M{"_id": docID, "tenant_id": tenantID, "version": version}
}

// missed explains a versioned update that matched nothing: either the
// document is gone or its version moved on.
func (s *Store) missed(ctx context.Context, col, docID, tenantID string, notFound error) error {
	n, err := s.mdb.Collection(col).CountDocuments(ctx, bson.M{"_id": docID, "tenant_id": tenantID})
	if err != nil {
		return fmt.Errorf("faktura/mongo: update %s: %w", col, err)
	}
	if n == 0 {
		return notFound
	}
	return faktura.ErrConflict
}

func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks for the mongo ErrNoDocuments sentinel.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all faktura collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	numberIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "number", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	return map[string][]mongo.IndexModel{
		colOffers: {
			numberIndex,
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "state", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colOrders: {
			numberIndex,
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "state", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "related_offer_id", Value: 1}}},
		},
		colInvoices: {
			numberIndex,
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "state", Value: 1}, {Key: "due_date", Value: 1}}},
		},
		colPayments: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "invoice_id", Value: 1}, {Key: "paid_on", Value: 1}}},
		},
		colRates: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "kind", Value: 1}}},
		},
	}
}
