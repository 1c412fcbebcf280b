// Package storetest holds the behavioural checks every store.Store backend
// must pass. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/faktura"
	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/offer"
	"github.com/xraph/faktura/order"
	"github.com/xraph/faktura/payment"
	"github.com/xraph/faktura/rate"
	"github.com/xraph/faktura/store"
	"github.com/xraph/faktura/transition"
	"github.com/xraph/faktura/types"
)

// Factory returns an empty, migrated store. Run calls it once per subtest.
type Factory func(t *testing.T) store.Store

// Run exercises s against the store.Store contract.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("OfferRoundTrip", func(t *testing.T) { testOfferRoundTrip(t, newStore(t)) })
	t.Run("VersionConflict", func(t *testing.T) { testVersionConflict(t, newStore(t)) })
	t.Run("TenantScope", func(t *testing.T) { testTenantScope(t, newStore(t)) })
	t.Run("OrderLineage", func(t *testing.T) { testOrderLineage(t, newStore(t)) })
	t.Run("InvoiceFilters", func(t *testing.T) { testInvoiceFilters(t, newStore(t)) })
	t.Run("Payments", func(t *testing.T) { testPayments(t, newStore(t)) })
	t.Run("Rates", func(t *testing.T) { testRates(t, newStore(t)) })
	t.Run("Counter", func(t *testing.T) { testCounter(t, newStore(t)) })
}

var base = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func header(tenant, number string, at time.Time) document.Header {
	return document.Header{
		Entity:    types.NewEntity(at, "tester"),
		TenantID:  tenant,
		Number:    number,
		Client:    document.ClientSnapshot{Name: "Muster GmbH"},
		Locale:    "de",
		Currency:  "eur",
		IssueDate: at,
		LineItems: []document.LineItem{{
			ID:          id.NewLineItemID(),
			Position:    1,
			Description: "Montage",
			Quantity:    decimal.NewFromInt(2),
			UnitPrice:   decimal.NewFromInt(100),
			TaxKey:      "V19",
		}},
		Totals: document.Totals{GrandTotalGross: types.EUR(23800)},
	}
}

func testOfferRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	o := &offer.Offer{Header: header("acme", "2026-0001", base), ID: id.NewOfferID(), State: offer.StateDraft}
	if err := s.CreateOffer(ctx, o); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetOffer(ctx, "acme", o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Number != "2026-0001" || got.Client.Name != "Muster GmbH" || got.Version != 1 {
		t.Errorf("got %+v", got.Header)
	}
	if len(got.LineItems) != 1 || !got.LineItems[0].Quantity.Equal(decimal.NewFromInt(2)) {
		t.Errorf("line items: %+v", got.LineItems)
	}

	got.State = offer.StateSent
	if err := s.UpdateOffer(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("version after update: got %d, want 2", got.Version)
	}

	sent, err := s.ListOffers(ctx, "acme", offer.ListOpts{State: offer.StateSent})
	if err != nil || len(sent) != 1 {
		t.Fatalf("list sent: %d %v", len(sent), err)
	}
	if _, err := s.GetOffer(ctx, "acme", id.NewOfferID()); !errors.Is(err, faktura.ErrOfferNotFound) {
		t.Errorf("missing offer: got %v", err)
	}
}

func testVersionConflict(t *testing.T, s store.Store) {
	ctx := context.Background()
	o := &order.Order{Header: header("acme", "2026-0001", base), ID: id.NewOrderID(), State: order.StateOpen}
	if err := s.CreateOrder(ctx, o); err != nil {
		t.Fatal(err)
	}

	a, _ := s.GetOrder(ctx, "acme", o.ID) //nolint:errcheck // checked via b
	b, err := s.GetOrder(ctx, "acme", o.ID)
	if err != nil {
		t.Fatal(err)
	}

	a.State = order.StateInProgress
	if err := s.UpdateOrder(ctx, a); err != nil {
		t.Fatalf("first writer: %v", err)
	}
	b.State = order.StateDone
	if err := s.UpdateOrder(ctx, b); !errors.Is(err, faktura.ErrConflict) {
		t.Fatalf("stale writer: got %v, want ErrConflict", err)
	}

	ghost := &order.Order{Header: header("acme", "2026-0009", base), ID: id.NewOrderID()}
	if err := s.UpdateOrder(ctx, ghost); !errors.Is(err, faktura.ErrOrderNotFound) {
		t.Errorf("missing order: got %v", err)
	}
}

func testTenantScope(t *testing.T, s store.Store) {
	ctx := context.Background()
	inv := &invoice.Invoice{Header: header("acme", "2026-0001", base), ID: id.NewInvoiceID(), State: invoice.StateDraft, DueDate: base}
	if err := s.CreateInvoice(ctx, inv); err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetInvoice(ctx, "globex", inv.ID); !errors.Is(err, faktura.ErrInvoiceNotFound) {
		t.Errorf("cross-tenant get: got %v", err)
	}
	list, err := s.ListInvoices(ctx, "globex", invoice.ListOpts{})
	if err != nil || len(list) != 0 {
		t.Errorf("cross-tenant list: %d %v", len(list), err)
	}
}

func testOrderLineage(t *testing.T, s store.Store) {
	ctx := context.Background()
	offerID := id.NewOfferID()
	o := &order.Order{Header: header("acme", "2026-0001", base), ID: id.NewOrderID(), State: order.StateOpen, RelatedOfferID: offerID}
	if err := s.CreateOrder(ctx, o); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetOrder(ctx, "acme", o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.RelatedOfferID.String() != offerID.String() {
		t.Errorf("related offer: got %q, want %q", got.RelatedOfferID, offerID)
	}
}

func testInvoiceFilters(t *testing.T, s store.Store) {
	ctx := context.Background()
	mk := func(n string, st transition.State, due, created time.Time) *invoice.Invoice {
		inv := &invoice.Invoice{Header: header("acme", n, created), ID: id.NewInvoiceID(), State: st, DueDate: due}
		if err := s.CreateInvoice(ctx, inv); err != nil {
			t.Fatal(err)
		}
		return inv
	}

	dayStart := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	overdue := mk("2026-0001", invoice.StateSent, dayStart.AddDate(0, 0, -1), base)
	mk("2026-0002", invoice.StateSent, dayStart, base.Add(time.Minute))
	mk("2026-0003", invoice.StatePaid, dayStart.AddDate(0, 0, -5), base.Add(2*time.Minute))
	oldDraft := mk("2026-0004", invoice.StateDraft, dayStart.AddDate(0, 0, -30), base.Add(3*time.Minute))

	got, err := s.ListInvoices(ctx, "acme", invoice.ListOpts{
		States:    []transition.State{invoice.StateDraft, invoice.StateSent},
		DueBefore: dayStart,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d invoices, want 2", len(got))
	}
	// newest first
	if got[0].ID.String() != oldDraft.ID.String() || got[1].ID.String() != overdue.ID.String() {
		t.Errorf("got %s, %s", got[0].Number, got[1].Number)
	}

	page, err := s.ListInvoices(ctx, "acme", invoice.ListOpts{Limit: 2, Offset: 1})
	if err != nil || len(page) != 2 || page[0].Number != "2026-0003" {
		t.Errorf("paging: %d %v", len(page), err)
	}
}

func testPayments(t *testing.T, s store.Store) {
	ctx := context.Background()
	invID := id.NewInvoiceID()
	for i, cents := range []int64{10000, 2500} {
		p := &payment.Payment{
			ID:        id.NewPaymentID(),
			TenantID:  "acme",
			InvoiceID: invID,
			Amount:    types.EUR(cents),
			Date:      base.AddDate(0, 0, i),
			Method:    payment.MethodBank,
			CreatedAt: base,
		}
		if err := s.CreatePayment(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ListPayments(ctx, "acme", invID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Amount.Amount != 10000 || got[1].Amount.Amount != 2500 {
		t.Fatalf("payments: %+v", got)
	}
	if got[0].Amount.Currency != "eur" || got[0].Method != payment.MethodBank {
		t.Errorf("payment fields: %+v", got[0])
	}
	if other, _ := s.ListPayments(ctx, "globex", invID); len(other) != 0 { //nolint:errcheck // length check suffices
		t.Errorf("cross-tenant payments: %d", len(other))
	}
}

func testRates(t *testing.T, s store.Store) {
	ctx := context.Background()
	m := &rate.Material{ID: id.NewMaterialID(), TenantID: "acme", Name: "Kabel", UnitPrice: decimal.RequireFromString("1.25")}
	if err := s.SaveMaterial(ctx, m); err != nil {
		t.Fatal(err)
	}
	m.UnitPrice = decimal.RequireFromString("1.40")
	if err := s.SaveMaterial(ctx, m); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetMaterial(ctx, "acme", m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.UnitPrice.Equal(decimal.RequireFromString("1.40")) {
		t.Errorf("unit price: got %s", got.UnitPrice)
	}

	p := &rate.Personnel{ID: id.NewPersonnelID(), TenantID: "acme", Name: "Geselle", HourlyRate: decimal.NewFromInt(55)}
	if err := s.SavePersonnel(ctx, p); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetPersonnel(ctx, "globex", p.ID); !errors.Is(err, faktura.ErrRateNotFound) {
		t.Errorf("cross-tenant personnel: got %v", err)
	}
}

func testCounter(t *testing.T, s store.Store) {
	ctx := context.Background()

	const workers = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.Next(ctx, "acme", document.TypeInvoice, 2026)
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	for n := int64(1); n <= workers; n++ {
		if !seen[n] {
			t.Errorf("sequence %d not handed out", n)
		}
	}

	if n, err := s.Next(ctx, "acme", document.TypeOffer, 2026); err != nil || n != 1 {
		t.Errorf("offer counter: got %d %v, want 1", n, err)
	}
	if n, err := s.Next(ctx, "acme", document.TypeInvoice, 2027); err != nil || n != 1 {
		t.Errorf("new year: got %d %v, want 1", n, err)
	}
}
