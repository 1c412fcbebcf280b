// Package sqlite implements store.Store on SQLite through Grove. It suits
// single-node deployments and local development.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

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

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("faktura/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("faktura/sqlite: migration failed: %w", err)
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
	_, err = s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetOffer(ctx context.Context, tenantID string, offerID id.OfferID) (*offer.Offer, error) {
	m := new(offerModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", offerID.String()).
		Where("tenant_id = ?", tenantID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, faktura.ErrOfferNotFound
		}
		return nil, err
	}
	return fromOfferModel(m)
}

func (s *Store) UpdateOffer(ctx context.Context, o *offer.Offer) error {
	m, err := toOfferModel(o)
	if err != nil {
		return err
	}
	err = s.updateVersioned(ctx, (*offerModel)(nil), "faktura_offers", m.ID, m.TenantID, o.Version,
		map[string]any{"number": m.Number, "state": m.State, "body": m.Body},
		faktura.ErrOfferNotFound)
	if err != nil {
		return err
	}
	o.Version++
	return nil
}

func (s *Store) ListOffers(ctx context.Context, tenantID string, opts offer.ListOpts) ([]*offer.Offer, error) {
	var models []offerModel
	q := s.sdb.NewSelect(&models).Where("tenant_id = ?", tenantID)
	if opts.State != "" {
		q = q.Where("state = ?", string(opts.State))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if err := q.OrderExpr("created_at DESC").Scan(ctx); err != nil {
		return nil, err
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
	_, err = s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetOrder(ctx context.Context, tenantID string, orderID id.OrderID) (*order.Order, error) {
	m := new(orderModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", orderID.String()).
		Where("tenant_id = ?", tenantID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, faktura.ErrOrderNotFound
		}
		return nil, err
	}
	return fromOrderModel(m)
}

func (s *Store) UpdateOrder(ctx context.Context, o *order.Order) error {
	m, err := toOrderModel(o)
	if err != nil {
		return err
	}
	err = s.updateVersioned(ctx, (*orderModel)(nil), "faktura_orders", m.ID, m.TenantID, o.Version,
		map[string]any{"number": m.Number, "state": m.State, "body": m.Body},
		faktura.ErrOrderNotFound)
	if err != nil {
		return err
	}
	o.Version++
	return nil
}

func (s *Store) ListOrders(ctx context.Context, tenantID string, opts order.ListOpts) ([]*order.Order, error) {
	var models []orderModel
	q := s.sdb.NewSelect(&models).Where("tenant_id = ?", tenantID)
	if opts.State != "" {
		q = q.Where("state = ?", string(opts.State))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if err := q.OrderExpr("created_at DESC").Scan(ctx); err != nil {
		return nil, err
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
	_, err = s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetInvoice(ctx context.Context, tenantID string, invID id.InvoiceID) (*invoice.Invoice, error) {
	m := new(invoiceModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", invID.String()).
		Where("tenant_id = ?", tenantID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, faktura.ErrInvoiceNotFound
		}
		return nil, err
	}
	return fromInvoiceModel(m)
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	m, err := toInvoiceModel(inv)
	if err != nil {
		return err
	}
	err = s.updateVersioned(ctx, (*invoiceModel)(nil), "faktura_invoices", m.ID, m.TenantID, inv.Version,
		map[string]any{"number": m.Number, "state": m.State, "due_date": m.DueDate, "body": m.Body},
		faktura.ErrInvoiceNotFound)
	if err != nil {
		return err
	}
	inv.Version++
	return nil
}

func (s *Store) ListInvoices(ctx context.Context, tenantID string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel
	q := s.sdb.NewSelect(&models).Where("tenant_id = ?", tenantID)
	if len(opts.States) > 0 {
		args := make([]any, len(opts.States))
		for i, st := range opts.States {
			args[i] = string(st)
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
		q = q.Where("state IN ("+marks+")", args...)
	}
	if !opts.DueBefore.IsZero() {
		q = q.Where("due_date < ?", opts.DueBefore.Unix())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if err := q.OrderExpr("created_at DESC").Scan(ctx); err != nil {
		return nil, err
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
	_, err = s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) ListPayments(ctx context.Context, tenantID string, invoiceID id.InvoiceID) ([]*payment.Payment, error) {
	var models []paymentModel
	err := s.sdb.NewSelect(&models).
		Where("tenant_id = ?", tenantID).
		Where("invoice_id = ?", invoiceID.String()).
		OrderExpr("paid_on ASC, created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
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

func (s *Store) getRate(ctx context.Context, tenantID string, rowID id.ID, kind string, dst any) error {
	m := new(rateModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", rowID.String()).
		Where("tenant_id = ?", tenantID).
		Where("kind = ?", kind).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return faktura.ErrRateNotFound
		}
		return err
	}
	return decode(m.Body, m.ID, dst)
}

func (s *Store) saveRate(ctx context.Context, rowID id.ID, tenantID, kind string, v any) error {
	m, err := toRateModel(rowID, tenantID, kind, v)
	if err != nil {
		return err
	}
	_, err = s.sdb.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("body = EXCLUDED.body").
		Exec(ctx)
	return err
}

// ==================== Numbering ====================

// Next implements numbering.Counter. SQLite serializes writers, and the
// upsert reads its own result through RETURNING.
func (s *Store) Next(ctx context.Context, tenantID string, docType document.Type, year int) (int64, error) {
	var value int64
	err := s.sdb.NewRaw(`
		INSERT INTO faktura_counters (counter_key, value) VALUES (?, 1)
		ON CONFLICT (counter_key) DO UPDATE SET value = value + 1
		RETURNING value
	`, numbering.Key(tenantID, docType, year)).Scan(ctx, &value)
	if err != nil {
		return 0, fmt.Errorf("faktura/sqlite: next number: %w", err)
	}
	return value, nil
}

// ==================== Helpers ====================

// updateVersioned writes cols plus a bumped version to the row matching id,
// tenant and the expected version, and reports notFound or
// faktura.ErrConflict when nothing matched.
func (s *Store) updateVersioned(
	ctx context.Context,
	model any,
	table, rowID, tenantID string,
	version int64,
	cols map[string]any,
	notFound error,
) error {
	q := s.sdb.NewUpdate(model)
	for name, value := range cols {
		q = q.Set(name+" = ?", value)
	}
	res, err := q.Set("version = ?", version+1).
		Where("id = ?", rowID).
		Where("tenant_id = ?", tenantID).
		Where("version = ?", version).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	var count int64
	err = s.sdb.NewRaw(
		"SELECT COUNT(*) FROM "+table+" WHERE id = ? AND tenant_id = ?", //nolint:gosec // table is a package constant
		rowID, tenantID,
	).Scan(ctx, &count)
	if err != nil {
		return err
	}
	if count == 0 {
		return notFound
	}
	return faktura.ErrConflict
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
