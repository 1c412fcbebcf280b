// Package faktura provides the financial document engine of a trade
// business: offers, orders and invoices with their totals, costing,
// lifecycle, payments and accounting export.
//
// Faktura is designed as a library, not a service. Import it directly into
// your Go application, or mount it through the forge extension or the HTTP
// handlers in package api. It provides:
//
//   - Deterministic totals with per-line discounts, a proportionally
//     allocated document discount and VAT per tax key
//   - A cost and margin snapshot for offers that can be locked against
//     later rate changes
//   - An explicit Offer → Order → Invoice lifecycle with validated state
//     transitions and per-tenant yearly numbering
//   - Payment reconciliation and an idempotent overdue sweep
//   - A DATEV-style ledger export
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/faktura"
//	    "github.com/xraph/faktura/store/postgres"
//	)
//
//	s, err := postgres.Open(ctx, "postgres://localhost:5432/faktura", 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engine := faktura.New(s)
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop()
//
// postgres.New wraps a *grove.DB the caller already opened. The sqlite,
// mongo and firestore stores are drop-in replacements, and
// store/memory serves tests. Document numbers can come from Redis instead
// of the store with WithCounter.
//
// Every operation runs for the tenant carried by the context:
//
//	ctx = faktura.WithTenant(ctx, "acme")
//	ctx = faktura.WithActor(ctx, "user_42")
//
// # Documents
//
// Offers are created in draft and move to sent and accepted. Conversion is
// always explicit and never mutates the source:
//
//	o, _ := engine.CreateOffer(ctx, faktura.OfferInput{...})
//	o, _ = engine.AcceptOffer(ctx, o.ID)           // after SendOffer
//	ord, _ := engine.ConvertOfferToOrder(ctx, o.ID)
//	inv, _ := engine.ConvertOrderToInvoice(ctx, ord.ID, time.Time{})
//
// Numbers look like 2026-0001 and count per tenant, document type and
// issue year.
//
// # Money
//
// All inputs are decimal.Decimal and all emitted amounts are Money in minor
// units. Rounding happens once per emitted figure, half away from zero.
//
// # Concurrency
//
// Updates are optimistic. Every document carries a version and a store
// rejects stale writes with ErrConflict. The overdue sweep and payment
// refresh reload and retry on conflict; other operations report it.
//
// # TypeID
//
// All entities use TypeID identifiers:
//
//	ofr_01h2xcejqtf2nbrexx3vqjhp41  // Offer ID
//	ord_01h2xcejqtf2nbrexx3vqjhp41  // Order ID
//	inv_01h455vb4pex5vsknk084sn02q  // Invoice ID
package faktura
