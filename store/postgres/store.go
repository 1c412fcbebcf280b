// Package postgres implements store.Store on PostgreSQL through Grove.
// Tables are created by the Migrations group.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
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

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("faktura/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("faktura/postgres: migration failed: %w", err)
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
	_, err = s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetOffer(ctx context.Context, tenantID string, offerID id.OfferID) (*offer.Offer, error) {
	m := new(offerModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", offerID.String()).
		Where("tenant_id = $2", tenantID).
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
	m.UpdatedAt = now()
	err = s.updateVersioned(ctx, (*offerModel)(nil), "faktura_offers", m.ID, m.TenantID, o.Version, []column{
		{"number", m.Number},
		{"state", m.State},
		{"client_name", m.ClientName},
		{"currency", m.Currency},
		{"gross_total", m.GrossTotal},
		{"issue_date", m.IssueDate},
		{"body", m.Body},
		{"version", o.Version + 1},
		{"updated_at", m.UpdatedAt},
	}, faktura.ErrOfferNotFound)
	if err != nil {
		return err
	}
	o.Version++
	o.UpdatedAt = m.UpdatedAt
	return nil
}

func (s *Store) ListOffers(ctx context.Context, tenantID string, opts offer.ListOpts) ([]*offer.Offer, error) {
	var models []offerModel
	q := s.pg.NewSelect(&models).Where("tenant_id = $1", tenantID)
	if opts.State != "" {
		q = q.Where("state = $2", string(opts.State))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
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
	_, err = s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetOrder(ctx context.Context, tenantID string, orderID id.OrderID) (*order.Order, error) {
	m := new(orderModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", orderID.String()).
		Where("tenant_id = $2", tenantID).
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
	m.UpdatedAt = now()
	err = s.updateVersioned(ctx, (*orderModel)(nil), "faktura_orders", m.ID, m.TenantID, o.Version, []column{
		{"number", m.Number},
		{"state", m.State},
		{"client_name", m.ClientName},
		{"currency", m.Currency},
		{"gross_total", m.GrossTotal},
		{"issue_date", m.IssueDate},
		{"body", m.Body},
		{"version", o.Version + 1},
		{"updated_at", m.UpdatedAt},
	}, faktura.ErrOrderNotFound)
	if err != nil {
		return err
	}
	o.Version++
	o.UpdatedAt = m.UpdatedAt
	return nil
}

func (s *Store) ListOrders(ctx context.Context, tenantID string, opts order.ListOpts) ([]*order.Order, error) {
	var models []orderModel
	q := s.pg.NewSelect(&models).Where("tenant_id = $1", tenantID)
	if opts.State != "" {
		q = q.Where("state = $2", string(opts.State))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
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
	_, err = s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetInvoice(ctx context.Context, tenantID string, invID id.InvoiceID) (*invoice.Invoice, error) {
	m := new(invoiceModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", invID.String()).
		Where("tenant_id = $2", tenantID).
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
	m.UpdatedAt = now()
	err = s.updateVersioned(ctx, (*invoiceModel)(nil), "faktura_invoices", m.ID, m.TenantID, inv.Version, []column{
		{"number", m.Number},
		{"state", m.State},
		{"client_name", m.ClientName},
		{"currency", m.Currency},
		{"gross_total", m.GrossTotal},
		{"open_amount", m.OpenAmount},
		{"issue_date", m.IssueDate},
		{"due_date", m.DueDate},
		{"body", m.Body},
		{"version", inv.Version + 1},
		{"updated_at", m.UpdatedAt},
	}, faktura.ErrInvoiceNotFound)
	if err != nil {
		return err
	}
	inv.Version++
	inv.UpdatedAt = m.UpdatedAt
	return nil
}

func (s *Store) ListInvoices(ctx context.Context, tenantID string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel
	q := s.pg.NewSelect(&models).Where("tenant_id = $1", tenantID)

	argIdx := 1
	if len(opts.States) > 0 {
		marks := make([]string, len(opts.States))
		args := make([]any, len(opts.States))
		for i, st := range opts.States {
			argIdx++
			marks[i] = fmt.Sprintf("$%d", argIdx)
			args[i] = string(st)
		}
		q = q.Where("state IN ("+strings.Join(marks, ", ")+")", args...)
	}
	if !opts.DueBefore.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("due_date < $%d", argIdx), opts.DueBefore)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC")

	if err := q.Scan(ctx); err != nil {
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
	_, err := s.pg.NewInsert(toPaymentModel(p)).Exec(ctx)
	return err
}

func (s *Store) ListPayments(ctx context.Context, tenantID string, invoiceID id.InvoiceID) ([]*payment.Payment, error) {
	var models []paymentModel
	err := s.pg.NewSelect(&models).
		Where("tenant_id = $1", tenantID).
		Where("invoice_id = $2", invoiceID.String()).
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
	m := new(materialModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", materialID.String()).
		Where("tenant_id = $2", tenantID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, faktura.ErrRateNotFound
		}
		return nil, err
	}
	var out rate.Material
	if err := json.Unmarshal(m.Body, &out); err != nil {
		return nil, fmt.Errorf("faktura/postgres: decode material %s: %w", m.ID, err)
	}
	return &out, nil
}

func (s *Store) GetPersonnel(ctx context.Context, tenantID string, personnelID id.ID) (*rate.Personnel, error) {
	m := new(personnelModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", personnelID.String()).
		Where("tenant_id = $2", tenantID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, faktura.ErrRateNotFound
		}
		return nil, err
	}
	var out rate.Personnel
	if err := json.Unmarshal(m.Body, &out); err != nil {
		return nil, fmt.Errorf("faktura/postgres: decode personnel %s: %w", m.ID, err)
	}
	return &out, nil
}

func (s *Store) SaveMaterial(ctx context.Context, m *rate.Material) error {
	_, err := s.pg.NewInsert(toMaterialModel(m)).
		OnConflict("(id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("body = EXCLUDED.body").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) SavePersonnel(ctx context.Context, p *rate.Personnel) error {
	_, err := s.pg.NewInsert(toPersonnelModel(p)).
		OnConflict("(id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("body = EXCLUDED.body").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// ==================== Numbering ====================

// Next implements numbering.Counter with a single upsert, so concurrent
// callers serialize on the counter row.
func (s *Store) Next(ctx context.Context, tenantID string, docType document.Type, year int) (int64, error) {
	var value int64
	err := s.pg.NewRaw(`
		INSERT INTO faktura_counters (counter_key, value) VALUES ($1, 1)
		ON CONFLICT (counter_key) DO UPDATE SET value = faktura_counters.value + 1
		RETURNING value
	`, numbering.Key(tenantID, docType, year)).Scan(ctx, &value)
	if err != nil {
		return 0, fmt.Errorf("faktura/postgres: next number: %w", err)
	}
	return value, nil
}

// ==================== Helpers ====================

type column struct {
	name  string
	value any
}

// updateVersioned writes cols to the row matching id, tenant and the
// expected version. When nothing matched it tells a missing row
// (notFound) apart from a stale version (faktura.ErrConflict).
func (s *Store) updateVersioned(
	ctx context.Context,
	model any,
	table, rowID, tenantID string,
	version int64,
	cols []column,
	notFound error,
) error {
	q := s.pg.NewUpdate(model)
	for i, c := range cols {
		q = q.Set(fmt.Sprintf("%s = $%d", c.name, i+1), c.value)
	}
	n := len(cols)
	q = q.Where(fmt.Sprintf("id = $%d", n+1), rowID).
		Where(fmt.Sprintf("tenant_id = $%d", n+2), tenantID).
		Where(fmt.Sprintf("version = $%d", n+3), version)

	res, err := q.Exec(ctx)
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
	err = s.pg.NewRaw(
		"SELECT COUNT(*) FROM "+table+" WHERE id = $1 AND tenant_id = $2", //nolint:gosec // table is a package constant
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

func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
