package faktura_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/faktura"
	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/ledgerexport"
	"github.com/xraph/faktura/offer"
	"github.com/xraph/faktura/order"
	"github.com/xraph/faktura/plugin"
	"github.com/xraph/faktura/rate"
	"github.com/xraph/faktura/store/memory"
	"github.com/xraph/faktura/types"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var today = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func newEngine(t *testing.T, opts ...faktura.Option) (*faktura.Engine, *memory.Store, context.Context) {
	t.Helper()
	s := memory.New()
	opts = append([]faktura.Option{faktura.WithClock(func() time.Time { return today })}, opts...)
	e := faktura.New(s, opts...)
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = e.Stop() })
	return e, s, faktura.WithTenant(context.Background(), "acme")
}

func sampleInput() faktura.DocumentInput {
	return faktura.DocumentInput{
		Client: faktura.Client{ClientID: id.NewClientID(), Name: "Müller Bau GmbH"},
		LineItems: []faktura.LineItem{{
			Type:        document.ItemMaterial,
			Description: "Fliesen",
			Quantity:    d("2"),
			UnitPrice:   d("100"),
			DiscountPct: faktura.Dec(d("10")),
			TaxKey:      "V19",
		}},
		TaxKeys: []faktura.TaxKey{{Key: "V19", RatePct: d("19")}},
	}
}

func mustInvoice(t *testing.T, e *faktura.Engine, ctx context.Context, due time.Time) *invoice.Invoice {
	t.Helper()
	inv, err := e.CreateInvoice(ctx, faktura.InvoiceInput{DocumentInput: sampleInput(), DueDate: due})
	if err != nil {
		t.Fatal(err)
	}
	return inv
}

func TestRequiresTenant(t *testing.T) {
	e, _, _ := newEngine(t)
	_, err := e.CreateOffer(context.Background(), faktura.OfferInput{DocumentInput: sampleInput()})
	if !errors.Is(err, faktura.ErrMissingTenant) {
		t.Fatalf("got %v, want ErrMissingTenant", err)
	}
}

func TestCreateOffer(t *testing.T) {
	e, s, ctx := newEngine(t)

	mat := &rate.Material{ID: id.NewMaterialID(), TenantID: "acme", Name: "Fliese", UnitPrice: d("60")}
	if err := s.SaveMaterial(ctx, mat); err != nil {
		t.Fatal(err)
	}

	in := sampleInput()
	in.LineItems[0].MaterialID = mat.ID
	in.LineItems = append(in.LineItems, faktura.LineItem{
		Type:        document.ItemMaterial,
		MaterialID:  id.NewMaterialID(),
		Description: "unknown",
		Quantity:    d("1"),
		UnitPrice:   d("10"),
		TaxKey:      "V19",
	})

	o, err := e.CreateOffer(ctx, faktura.OfferInput{DocumentInput: in})
	if err != nil {
		t.Fatal(err)
	}

	if o.Number != "2026-0001" {
		t.Errorf("number: got %q", o.Number)
	}
	if o.State != offer.StateDraft {
		t.Errorf("state: got %s", o.State)
	}
	if o.Currency != "eur" || o.Locale != "de" {
		t.Errorf("defaults: currency %q locale %q", o.Currency, o.Locale)
	}
	if o.CalcSummary == nil {
		t.Fatal("expected a costing snapshot")
	}
	if got := o.CalcSummary.MaterialsCost; got != types.EUR(12000) {
		t.Errorf("materials cost: got %s, want 120.00", got)
	}
	if len(o.CalcSummary.MissingRates) != 1 || o.CalcSummary.MissingRates[0] != 2 {
		t.Errorf("missing rates: got %v", o.CalcSummary.MissingRates)
	}
	if !o.LineItems[1].MissingRate {
		t.Error("line 2 should be flagged as missing a rate")
	}
	for _, li := range o.LineItems {
		if li.ID.IsNil() {
			t.Error("line item without id")
		}
	}
}

func TestCreateRejectsInvalidDiscounts(t *testing.T) {
	e, _, ctx := newEngine(t)

	tests := []struct {
		name   string
		mutate func(*faktura.DocumentInput)
	}{
		{"line discount above 100", func(in *faktura.DocumentInput) { in.LineItems[0].DiscountPct = faktura.Dec(d("101")) }},
		{"negative line discount", func(in *faktura.DocumentInput) { in.LineItems[0].DiscountPct = faktura.Dec(d("-1")) }},
		{"negative document discount", func(in *faktura.DocumentInput) { in.AdditionalDiscountAbs = d("-5") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInput()
			tt.mutate(&in)
			if _, err := e.CreateOrder(ctx, in); !errors.Is(err, faktura.ErrInvalidDiscount) {
				t.Errorf("got %v, want ErrInvalidDiscount", err)
			}
		})
	}
}

func TestNumbering(t *testing.T) {
	e, _, ctx := newEngine(t)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = map[string]bool{}
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := e.CreateOrder(ctx, sampleInput())
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			numbers[o.Number] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(numbers) != 20 {
		t.Errorf("got %d distinct numbers, want 20", len(numbers))
	}
	if !numbers["2026-0001"] || !numbers["2026-0020"] {
		t.Errorf("expected a gapless sequence, got %v", numbers)
	}

	// Sequences are independent per type and tenant.
	o, err := e.CreateOffer(ctx, faktura.OfferInput{DocumentInput: sampleInput()})
	if err != nil {
		t.Fatal(err)
	}
	other, err := e.CreateOrder(faktura.WithTenant(context.Background(), "globex"), sampleInput())
	if err != nil {
		t.Fatal(err)
	}
	if o.Number != "2026-0001" || other.Number != "2026-0001" {
		t.Errorf("got offer %s, other tenant order %s", o.Number, other.Number)
	}
}

func TestConversionLineage(t *testing.T) {
	e, _, ctx := newEngine(t)

	o, err := e.CreateOffer(ctx, faktura.OfferInput{DocumentInput: sampleInput()})
	if err != nil {
		t.Fatal(err)
	}

	ord, err := e.ConvertOfferToOrder(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ord.State != order.StateOpen || ord.RelatedOfferID.String() != o.ID.String() {
		t.Errorf("order: state %s related %s", ord.State, ord.RelatedOfferID)
	}
	if ord.Totals.GrandTotalGross != o.Totals.GrandTotalGross {
		t.Errorf("totals not carried: %s vs %s", ord.Totals.GrandTotalGross, o.Totals.GrandTotalGross)
	}
	if ord.Client.Name != o.Client.Name || ord.Client.ClientID.String() != o.Client.ClientID.String() {
		t.Error("client snapshot not carried")
	}

	inv, err := e.ConvertOrderToInvoice(ctx, ord.ID, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if inv.State != invoice.StateDraft {
		t.Errorf("invoice state: got %s", inv.State)
	}
	if inv.RelatedOrderID.String() != ord.ID.String() || inv.RelatedOfferID.String() != o.ID.String() {
		t.Error("invoice lineage not recorded")
	}
	if want := today.AddDate(0, 0, 14).Format(time.DateOnly); inv.DueDate.Format(time.DateOnly) != want {
		t.Errorf("due date: got %s, want %s", inv.DueDate.Format(time.DateOnly), want)
	}
	if inv.OpenAmount != types.EUR(21420) || !inv.PaymentsTotal.IsZero() {
		t.Errorf("payment state: open %s paid %s", inv.OpenAmount, inv.PaymentsTotal)
	}

	// The source is left untouched.
	src, err := e.GetOffer(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if src.State != offer.StateDraft || src.Version != o.Version {
		t.Errorf("source offer changed: state %s version %d", src.State, src.Version)
	}

	// Line items are copied, not shared.
	inv.LineItems[0].Description = "changed"
	again, _ := e.GetOrder(ctx, ord.ID)
	if again.LineItems[0].Description == "changed" {
		t.Error("invoice shares line items with its order")
	}
}

func TestConvertKeepsIssueDate(t *testing.T) {
	e, _, ctx := newEngine(t)

	in := sampleInput()
	in.IssueDate = time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	o, err := e.CreateOffer(ctx, faktura.OfferInput{DocumentInput: in})
	if err != nil {
		t.Fatal(err)
	}
	ord, err := e.ConvertOfferToOrder(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	inv, err := e.ConvertOrderToInvoice(ctx, ord.ID, time.Time{})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		issued time.Time
		number string
	}{
		{"order", ord.IssueDate, ord.Number},
		{"invoice", inv.IssueDate, inv.Number},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.issued.Equal(in.IssueDate) {
				t.Errorf("issue date: got %s, want %s", tt.issued, in.IssueDate)
			}
			if !strings.HasPrefix(tt.number, "2025-") {
				t.Errorf("number %s not in the 2025 sequence", tt.number)
			}
		})
	}
	if want := "2025-12-15"; inv.DueDate.Format(time.DateOnly) != want {
		t.Errorf("due date: got %s, want %s", inv.DueDate.Format(time.DateOnly), want)
	}
}

func TestConvertMissingSource(t *testing.T) {
	e, _, ctx := newEngine(t)

	if _, err := e.ConvertOfferToOrder(ctx, id.NewOfferID()); !faktura.IsNotFound(err) {
		t.Errorf("offer: got %v, want not found", err)
	}
	if _, err := e.ConvertOrderToInvoice(ctx, id.NewOrderID(), time.Time{}); !faktura.IsNotFound(err) {
		t.Errorf("order: got %v, want not found", err)
	}

	orders, _ := e.ListOrders(ctx, order.ListOpts{})
	invoices, _ := e.ListInvoices(ctx, invoice.ListOpts{})
	if len(orders) != 0 || len(invoices) != 0 {
		t.Errorf("partial documents created: %d orders, %d invoices", len(orders), len(invoices))
	}
}

func TestTenantIsolation(t *testing.T) {
	e, _, ctx := newEngine(t)

	o, err := e.CreateOffer(ctx, faktura.OfferInput{DocumentInput: sampleInput()})
	if err != nil {
		t.Fatal(err)
	}
	other := faktura.WithTenant(context.Background(), "globex")
	if _, err := e.GetOffer(other, o.ID); !errors.Is(err, faktura.ErrOfferNotFound) {
		t.Errorf("got %v, want ErrOfferNotFound", err)
	}
	if _, err := e.ConvertOfferToOrder(other, o.ID); !faktura.IsNotFound(err) {
		t.Errorf("cross-tenant conversion: got %v", err)
	}
}

func TestStateTransitions(t *testing.T) {
	e, _, ctx := newEngine(t)

	t.Run("offer", func(t *testing.T) {
		o, _ := e.CreateOffer(ctx, faktura.OfferInput{DocumentInput: sampleInput()})
		if _, err := e.AcceptOffer(ctx, o.ID); !errors.Is(err, faktura.ErrIllegalTransition) {
			t.Errorf("draft -> accepted: got %v", err)
		}
		sent, err := e.SendOffer(ctx, o.ID)
		if err != nil {
			t.Fatal(err)
		}
		if sent.SentAt == nil {
			t.Error("SentAt not stamped")
		}
		acc, err := e.AcceptOffer(ctx, o.ID)
		if err != nil {
			t.Fatal(err)
		}
		if acc.AcceptedAt == nil {
			t.Error("AcceptedAt not stamped")
		}
		if _, err := e.SetOfferState(ctx, o.ID, offer.StateDraft); !errors.Is(err, faktura.ErrIllegalTransition) {
			t.Errorf("accepted -> draft: got %v", err)
		}
	})

	t.Run("order", func(t *testing.T) {
		o, _ := e.CreateOrder(ctx, sampleInput())
		done, err := e.SetOrderState(ctx, o.ID, order.StateDone)
		if err != nil {
			t.Fatal(err)
		}
		if done.CompletedAt == nil {
			t.Error("CompletedAt not stamped")
		}
		reopened, err := e.SetOrderState(ctx, o.ID, order.StateInProgress)
		if err != nil {
			t.Fatal(err)
		}
		if reopened.CompletedAt != nil {
			t.Error("CompletedAt kept after reopening")
		}
		if _, err := e.SetOrderState(ctx, o.ID, order.StateOpen); !errors.Is(err, faktura.ErrIllegalTransition) {
			t.Errorf("in_progress -> open: got %v", err)
		}
	})

	t.Run("invoice paid is terminal", func(t *testing.T) {
		inv := mustInvoice(t, e, ctx, time.Time{})
		if _, err := e.SetInvoiceState(ctx, inv.ID, invoice.StatePaid); err != nil {
			t.Fatal(err)
		}
		for _, to := range []faktura.State{invoice.StateDraft, invoice.StateSent, invoice.StateOverdue} {
			if _, err := e.SetInvoiceState(ctx, inv.ID, to); !errors.Is(err, faktura.ErrIllegalTransition) {
				t.Errorf("paid -> %s: got %v", to, err)
			}
		}
	})

	t.Run("same state is a no-op", func(t *testing.T) {
		inv := mustInvoice(t, e, ctx, time.Time{})
		got, err := e.SetInvoiceState(ctx, inv.ID, invoice.StateDraft)
		if err != nil {
			t.Fatal(err)
		}
		if got.Version != inv.Version {
			t.Errorf("version bumped: %d -> %d", inv.Version, got.Version)
		}
	})

	t.Run("unknown state", func(t *testing.T) {
		inv := mustInvoice(t, e, ctx, time.Time{})
		if _, err := e.SetInvoiceState(ctx, inv.ID, "cancelled"); !errors.Is(err, faktura.ErrIllegalTransition) {
			t.Errorf("got %v", err)
		}
	})
}

func TestSnapshotLock(t *testing.T) {
	e, s, ctx := newEngine(t)

	mat := &rate.Material{ID: id.NewMaterialID(), TenantID: "acme", UnitPrice: d("60")}
	_ = s.SaveMaterial(ctx, mat)

	in := sampleInput()
	in.LineItems[0].MaterialID = mat.ID
	o, err := e.CreateOffer(ctx, faktura.OfferInput{DocumentInput: in})
	if err != nil {
		t.Fatal(err)
	}

	locked, err := e.LockOfferSnapshot(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !locked.CalcSummary.Locked() || locked.CalcSummary.SnapshotDate == nil {
		t.Fatal("snapshot not locked")
	}

	// Rate drift does not reach a locked snapshot.
	mat.UnitPrice = d("80")
	_ = s.SaveMaterial(ctx, mat)
	if _, err := e.RecalculateOfferCosting(ctx, o.ID); !errors.Is(err, faktura.ErrSnapshotLocked) {
		t.Errorf("recalculate: got %v, want ErrSnapshotLocked", err)
	}

	// Edits that change totals are refused; others pass.
	items := []faktura.LineItem{locked.LineItems[0]}
	items[0].Quantity = d("3")
	if _, err := e.UpdateOffer(ctx, o.ID, faktura.OfferPatch{DocumentPatch: faktura.DocumentPatch{LineItems: &items}}); !errors.Is(err, faktura.ErrSnapshotLocked) {
		t.Errorf("update: got %v, want ErrSnapshotLocked", err)
	}
	note := "call before delivery"
	if _, err := e.UpdateOffer(ctx, o.ID, faktura.OfferPatch{DocumentPatch: faktura.DocumentPatch{NoteInternal: &note}}); err != nil {
		t.Errorf("note update: %v", err)
	}

	if _, err := e.UnlockOfferSnapshot(ctx, o.ID); err != nil {
		t.Fatal(err)
	}
	updated, err := e.UpdateOffer(ctx, o.ID, faktura.OfferPatch{DocumentPatch: faktura.DocumentPatch{LineItems: &items}})
	if err != nil {
		t.Fatal(err)
	}
	if got := updated.CalcSummary.MaterialsCost; got != types.EUR(24000) {
		t.Errorf("materials cost after unlock: got %s, want 240.00", got)
	}
	if updated.CalcSummary.Locked() {
		t.Error("recalculated snapshot should be unlocked")
	}
}

func TestConflict(t *testing.T) {
	e, s, ctx := newEngine(t)

	o, _ := e.CreateOffer(ctx, faktura.OfferInput{DocumentInput: sampleInput()})

	stale, _ := s.GetOffer(ctx, "acme", o.ID)
	if _, err := e.SendOffer(ctx, o.ID); err != nil {
		t.Fatal(err)
	}
	stale.NoteInternal = "lost"
	if err := s.UpdateOffer(ctx, stale); !faktura.IsConflict(err) {
		t.Errorf("got %v, want ErrConflict", err)
	}
}

func TestPayments(t *testing.T) {
	e, _, ctx := newEngine(t)

	inv := mustInvoice(t, e, ctx, time.Time{})
	if _, err := e.SendInvoice(ctx, inv.ID); err != nil {
		t.Fatal(err)
	}

	if _, _, err := e.RegisterPayment(ctx, inv.ID, faktura.PaymentInput{Amount: d("0")}); !errors.Is(err, faktura.ErrInvalidPayment) {
		t.Errorf("zero amount: got %v", err)
	}
	if _, _, err := e.RegisterPayment(ctx, inv.ID, faktura.PaymentInput{Amount: d("1"), Method: "crypto"}); !errors.Is(err, faktura.ErrInvalidPayment) {
		t.Errorf("bad method: got %v", err)
	}

	steps := []struct {
		amount string
		open   int64
		state  faktura.State
	}{
		{"100", 11420, invoice.StateSent},
		{"100", 1420, invoice.StateSent},
		{"50", 0, invoice.StatePaid},
		{"10", 0, invoice.StatePaid},
	}
	prevOpen := inv.OpenAmount
	for i, st := range steps {
		_, got, err := e.RegisterPayment(ctx, inv.ID, faktura.PaymentInput{Amount: d(st.amount)})
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got.OpenAmount.Amount != st.open || got.State != st.state {
			t.Errorf("step %d: open %s state %s, want %d %s", i, got.OpenAmount, got.State, st.open, st.state)
		}
		if got.OpenAmount.GreaterThan(prevOpen) || got.OpenAmount.IsNegative() {
			t.Errorf("step %d: open amount rose or went negative: %s", i, got.OpenAmount)
		}
		prevOpen = got.OpenAmount
	}

	final, _ := e.GetInvoice(ctx, inv.ID)
	if final.PaymentsTotal != types.EUR(26000) || final.PaidAt == nil {
		t.Errorf("final: paid %s paidAt %v", final.PaymentsTotal, final.PaidAt)
	}
	payments, _ := e.ListPayments(ctx, inv.ID)
	if len(payments) != 4 {
		t.Errorf("got %d payments", len(payments))
	}
}

func TestConcurrentPaymentsConverge(t *testing.T) {
	e, _, ctx := newEngine(t)
	inv := mustInvoice(t, e, ctx, time.Time{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := e.RegisterPayment(ctx, inv.ID, faktura.PaymentInput{Amount: d("53.55")}); err != nil && !faktura.IsConflict(err) {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, err := e.RefreshInvoicePaymentState(ctx, inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PaymentsTotal != types.EUR(21420) || !got.OpenAmount.IsZero() || got.State != invoice.StatePaid {
		t.Errorf("paid %s open %s state %s", got.PaymentsTotal, got.OpenAmount, got.State)
	}
}

func TestUpdateInvoiceFollowsGross(t *testing.T) {
	e, _, ctx := newEngine(t)
	inv := mustInvoice(t, e, ctx, time.Time{})

	if _, _, err := e.RegisterPayment(ctx, inv.ID, faktura.PaymentInput{Amount: d("100")}); err != nil {
		t.Fatal(err)
	}

	discount := d("20")
	got, err := e.UpdateInvoice(ctx, inv.ID, faktura.InvoicePatch{DocumentPatch: faktura.DocumentPatch{AdditionalDiscountAbs: &discount}})
	if err != nil {
		t.Fatal(err)
	}
	if got.Totals.GrandTotalGross != types.EUR(19040) || got.OpenAmount != types.EUR(9040) {
		t.Errorf("gross %s open %s", got.Totals.GrandTotalGross, got.OpenAmount)
	}
}

func TestZeroGrossInvoiceSettles(t *testing.T) {
	e, _, ctx := newEngine(t)

	inv, err := e.CreateInvoice(ctx, faktura.InvoiceInput{DocumentInput: faktura.DocumentInput{
		Client: faktura.Client{Name: "Kulanz"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if !inv.Totals.GrandTotalGross.IsZero() || !inv.OpenAmount.IsZero() {
		t.Fatalf("gross %s open %s", inv.Totals.GrandTotalGross, inv.OpenAmount)
	}

	got, err := e.RefreshInvoicePaymentState(ctx, inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != invoice.StatePaid || got.PaidAt == nil {
		t.Errorf("state %s paidAt %v, want paid", got.State, got.PaidAt)
	}
}

func TestExcessDiscountKeepsOpenAmountAtZero(t *testing.T) {
	e, _, ctx := newEngine(t)

	in := sampleInput()
	in.AdditionalDiscountAbs = d("250")
	inv, err := e.CreateInvoice(ctx, faktura.InvoiceInput{DocumentInput: in})
	if err != nil {
		t.Fatal(err)
	}
	// (180 - 250) × 19% = -13.30
	if inv.Totals.GrandTotalGross != types.EUR(-1330) || !inv.OpenAmount.IsZero() {
		t.Errorf("gross %s open %s", inv.Totals.GrandTotalGross, inv.OpenAmount)
	}
}

func TestOverdueSweep(t *testing.T) {
	hooks := &recordingPlugin{}
	e, _, ctx := newEngine(t, faktura.WithPlugin(hooks))

	yesterday := today.AddDate(0, 0, -1)
	sent := mustInvoice(t, e, ctx, yesterday)
	_, _ = e.SendInvoice(ctx, sent.ID)

	paid := mustInvoice(t, e, ctx, yesterday)
	_, _ = e.SetInvoiceState(ctx, paid.ID, invoice.StatePaid)

	dueToday := mustInvoice(t, e, ctx, today)
	_, _ = e.SendInvoice(ctx, dueToday.ID)

	draft := mustInvoice(t, e, ctx, yesterday.AddDate(0, 0, -10))

	res, err := e.RefreshOverdueStatuses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Transitioned) != 2 {
		t.Errorf("transitioned %d, want 2", len(res.Transitioned))
	}

	want := []struct {
		inv   *invoice.Invoice
		state faktura.State
	}{
		{sent, invoice.StateOverdue},
		{paid, invoice.StatePaid},
		{dueToday, invoice.StateSent},
		{draft, invoice.StateOverdue},
	}
	for _, w := range want {
		got, _ := e.GetInvoice(ctx, w.inv.ID)
		if got.State != w.state {
			t.Errorf("%s: got %s, want %s", got.Number, got.State, w.state)
		}
	}
	if hooks.count("overdue") != 2 {
		t.Errorf("overdue hooks: got %d", hooks.count("overdue"))
	}

	// Idempotent.
	res, err = e.RefreshOverdueStatuses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Checked != 0 || len(res.Transitioned) != 0 {
		t.Errorf("second sweep: %+v", res)
	}

	// Overdue invoices can still be paid.
	_, got, err := e.RegisterPayment(ctx, sent.ID, faktura.PaymentInput{Amount: d("214.20")})
	if err != nil {
		t.Fatal(err)
	}
	if got.State != invoice.StatePaid {
		t.Errorf("overdue -> paid: got %s", got.State)
	}
}

func TestExport(t *testing.T) {
	hooks := &recordingPlugin{}
	e, _, ctx := newEngine(t, faktura.WithPlugin(hooks))

	draft := mustInvoice(t, e, ctx, time.Time{})
	sent := mustInvoice(t, e, ctx, time.Time{})
	_, _ = e.SendInvoice(ctx, sent.ID)
	_, _, _ = e.RegisterPayment(ctx, sent.ID, faktura.PaymentInput{Amount: d("100"), Date: today})

	if _, err := e.ExportInvoicesToLedgerCSV(ctx, []id.InvoiceID{draft.ID}, ledgerexport.Options{}); !errors.Is(err, faktura.ErrNoInvoices) {
		t.Errorf("drafts only: got %v, want ErrNoInvoices", err)
	}

	out, err := e.ExportInvoicesToLedgerCSV(ctx, []id.InvoiceID{draft.ID, sent.ID, id.NewInvoiceID()}, ledgerexport.Options{IncludePayments: true})
	if err != nil {
		t.Fatal(err)
	}
	want := `"EXTF";"510";"21";"Buchungsstapel";"1"` + "\n" +
		`"2026-0002";"INVOICE 2026-0002";"10000";"8400";"214.20";"20260314";"Müller Bau GmbH"` + "\n" +
		`"2026-0002";"PAYMENT 2026-0002";"1200";"10000";"100.00";"20260314";"Müller Bau GmbH"` + "\n"
	if string(out) != want {
		t.Errorf("got:\n%s\nwant:\n%s", out, want)
	}
	if hooks.count("exported") != 1 {
		t.Errorf("export hooks: got %d", hooks.count("exported"))
	}

	var name string
	loc, err := e.ExportTo(ctx, []id.InvoiceID{sent.ID}, ledgerexport.Options{}, ledgerexport.SinkFunc(func(_ context.Context, n string, data []byte) (string, error) {
		name = n
		return "mem://" + n, nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(name, "EXTF_Buchungsstapel_acme_") || loc != "mem://"+name {
		t.Errorf("sink name %q loc %q", name, loc)
	}
}

// recordingPlugin counts the hooks it receives.
type recordingPlugin struct {
	mu     sync.Mutex
	events map[string]int
}

var (
	_ plugin.OnInvoiceOverdue = (*recordingPlugin)(nil)
	_ plugin.OnLedgerExported = (*recordingPlugin)(nil)
)

func (p *recordingPlugin) Name() string { return "recorder" }

func (p *recordingPlugin) record(event string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = map[string]int{}
	}
	p.events[event]++
}

func (p *recordingPlugin) count(event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[event]
}

func (p *recordingPlugin) OnInvoiceOverdue(context.Context, *invoice.Invoice) error {
	p.record("overdue")
	return nil
}

func (p *recordingPlugin) OnLedgerExported(context.Context, plugin.Export) error {
	p.record("exported")
	return nil
}
