package postgres

import (
	"context"

	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate"
	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the faktura store.
var Migrations = migrate.NewGroup("faktura")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_faktura_offers",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS faktura_offers (
    id          TEXT PRIMARY KEY,
    tenant_id   TEXT NOT NULL,
    number      TEXT NOT NULL,
    state       TEXT NOT NULL DEFAULT 'draft',
    client_name TEXT NOT NULL DEFAULT '',
    currency    TEXT NOT NULL DEFAULT 'eur',
    gross_total BIGINT NOT NULL DEFAULT 0,
    issue_date  TIMESTAMPTZ NOT NULL,
    body        JSONB NOT NULL,
    version     BIGINT NOT NULL DEFAULT 1,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_faktura_offers_number ON faktura_offers (tenant_id, number);
CREATE INDEX IF NOT EXISTS idx_faktura_offers_state ON faktura_offers (tenant_id, state);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS faktura_offers`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_faktura_orders",
			Version: "20260101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS faktura_orders (
    id               TEXT PRIMARY KEY,
    tenant_id        TEXT NOT NULL,
    number           TEXT NOT NULL,
    state            TEXT NOT NULL DEFAULT 'open',
    related_offer_id TEXT NOT NULL DEFAULT '',
    client_name      TEXT NOT NULL DEFAULT '',
    currency         TEXT NOT NULL DEFAULT 'eur',
    gross_total      BIGINT NOT NULL DEFAULT 0,
    issue_date       TIMESTAMPTZ NOT NULL,
    body             JSONB NOT NULL,
    version          BIGINT NOT NULL DEFAULT 1,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_faktura_orders_number ON faktura_orders (tenant_id, number);
CREATE INDEX IF NOT EXISTS idx_faktura_orders_state ON faktura_orders (tenant_id, state);
CREATE INDEX IF NOT EXISTS idx_faktura_orders_offer ON faktura_orders (related_offer_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS faktura_orders`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_faktura_invoices",
			Version: "20260101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS faktura_invoices (
    id               TEXT PRIMARY KEY,
    tenant_id        TEXT NOT NULL,
    number           TEXT NOT NULL,
    state            TEXT NOT NULL DEFAULT 'draft',
    related_order_id TEXT NOT NULL DEFAULT '',
    related_offer_id TEXT NOT NULL DEFAULT '',
    client_name      TEXT NOT NULL DEFAULT '',
    currency         TEXT NOT NULL DEFAULT 'eur',
    gross_total      BIGINT NOT NULL DEFAULT 0,
    open_amount      BIGINT NOT NULL DEFAULT 0,
    issue_date       TIMESTAMPTZ NOT NULL,
    due_date         TIMESTAMPTZ NOT NULL,
    body             JSONB NOT NULL,
    version          BIGINT NOT NULL DEFAULT 1,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_faktura_invoices_number ON faktura_invoices (tenant_id, number);
CREATE INDEX IF NOT EXISTS idx_faktura_invoices_due ON faktura_invoices (tenant_id, state, due_date);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS faktura_invoices`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_faktura_payments",
			Version: "20260101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS faktura_payments (
    id         TEXT PRIMARY KEY,
    tenant_id  TEXT NOT NULL,
    invoice_id TEXT NOT NULL,
    amount     BIGINT NOT NULL,
    currency   TEXT NOT NULL,
    paid_on    TIMESTAMPTZ NOT NULL,
    method     TEXT NOT NULL DEFAULT 'bank',
    note       TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_faktura_payments_invoice ON faktura_payments (tenant_id, invoice_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS faktura_payments`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_faktura_rates",
			Version: "20260101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS faktura_materials (
    id         TEXT PRIMARY KEY,
    tenant_id  TEXT NOT NULL,
    name       TEXT NOT NULL DEFAULT '',
    body       JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS faktura_personnel (
    id         TEXT PRIMARY KEY,
    tenant_id  TEXT NOT NULL,
    name       TEXT NOT NULL DEFAULT '',
    body       JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS faktura_personnel; DROP TABLE IF EXISTS faktura_materials`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_faktura_counters",
			Version: "20260101000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS faktura_counters (
    counter_key TEXT PRIMARY KEY,
    value       BIGINT NOT NULL DEFAULT 0
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS faktura_counters`)
				return err
			},
		},
	)
}
