package sqlite

import (
	"context"

	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the faktura store (SQLite).
var Migrations = migrate.NewGroup("faktura")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_faktura_documents",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS faktura_offers (
    id         TEXT PRIMARY KEY,
    tenant_id  TEXT NOT NULL,
    number     TEXT NOT NULL,
    state      TEXT NOT NULL DEFAULT 'draft',
    body       TEXT NOT NULL,
    version    INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL DEFAULT 0
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_faktura_offers_number ON faktura_offers (tenant_id, number);

CREATE TABLE IF NOT EXISTS faktura_orders (
    id               TEXT PRIMARY KEY,
    tenant_id        TEXT NOT NULL,
    number           TEXT NOT NULL,
    state            TEXT NOT NULL DEFAULT 'open',
    related_offer_id TEXT NOT NULL DEFAULT '',
    body             TEXT NOT NULL,
    version          INTEGER NOT NULL DEFAULT 1,
    created_at       INTEGER NOT NULL DEFAULT 0
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_faktura_orders_number ON faktura_orders (tenant_id, number);

CREATE TABLE IF NOT EXISTS faktura_invoices (
    id         TEXT PRIMARY KEY,
    tenant_id  TEXT NOT NULL,
    number     TEXT NOT NULL,
    state      TEXT NOT NULL DEFAULT 'draft',
    due_date   INTEGER NOT NULL DEFAULT 0,
    body       TEXT NOT NULL,
    version    INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL DEFAULT 0
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_faktura_invoices_number ON faktura_invoices (tenant_id, number);
CREATE INDEX IF NOT EXISTS idx_faktura_invoices_due ON faktura_invoices (tenant_id, state, due_date);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS faktura_invoices;
DROP TABLE IF EXISTS faktura_orders;
DROP TABLE IF EXISTS faktura_offers;
`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_faktura_payments_rates_counters",
			Version: "20260101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS faktura_payments (
    id         TEXT PRIMARY KEY,
    tenant_id  TEXT NOT NULL,
    invoice_id TEXT NOT NULL,
    amount     INTEGER NOT NULL,
    currency   TEXT NOT NULL,
    paid_on    INTEGER NOT NULL,
    body       TEXT NOT NULL,
    created_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_faktura_payments_invoice ON faktura_payments (tenant_id, invoice_id);

CREATE TABLE IF NOT EXISTS faktura_rates (
    id        TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    kind      TEXT NOT NULL,
    body      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS faktura_counters (
    counter_key TEXT PRIMARY KEY,
    value       INTEGER NOT NULL DEFAULT 0
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS faktura_counters;
DROP TABLE IF EXISTS faktura_rates;
DROP TABLE IF EXISTS faktura_payments;
`)
				return err
			},
		},
	)
}
