// Package store defines the aggregate persistence interface implemented by
// every faktura backend.
package store

import (
	"context"

	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/numbering"
	"github.com/xraph/faktura/offer"
	"github.com/xraph/faktura/order"
	"github.com/xraph/faktura/payment"
	"github.com/xraph/faktura/rate"
)

// Store is the tenant-scoped document store. Every read and list takes the
// tenant explicitly; documents of other tenants are invisible.
//
// Document updates are optimistic: they succeed only when the stored
// version equals the caller's, bump the version, and otherwise fail with
// faktura.ErrConflict. The embedded Counter must increment atomically.
type Store interface {
	offer.Store
	order.Store
	invoice.Store
	payment.Store
	rate.Store
	numbering.Counter

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
