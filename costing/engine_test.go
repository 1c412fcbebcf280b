package costing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/faktura/costing"
	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/rate"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeRates struct {
	materials map[string]decimal.Decimal
	personnel map[string]decimal.Decimal
	err       error
}

func (f *fakeRates) GetMaterial(_ context.Context, _ string, materialID id.ID) (*rate.Material, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.materials[materialID.String()]
	if !ok {
		return nil, rate.ErrNotFound
	}
	return &rate.Material{ID: materialID, UnitPrice: p}, nil
}

func (f *fakeRates) GetPersonnel(_ context.Context, _ string, personnelID id.ID) (*rate.Personnel, error) {
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.personnel[personnelID.String()]
	if !ok {
		return nil, rate.ErrNotFound
	}
	return &rate.Personnel{ID: personnelID, HourlyRate: r}, nil
}

func TestSummarize(t *testing.T) {
	materialItem := document.LineItem{Type: document.ItemMaterial, Quantity: d("10"), UnitCost: document.Dec(d("25")), UnitSell: d("35")}
	laborItem := document.LineItem{Type: document.ItemLabor, Quantity: d("8"), UnitCost: document.Dec(d("30")), UnitSell: d("50")}

	tests := []struct {
		name      string
		items     []document.LineItem
		base      costing.MarginBase
		materials int64
		labor     int64
		overhead  int64
		cost      int64
		sell      int64
		margin    int64
		marginPct string
	}{
		{"materials over sell", []document.LineItem{materialItem}, costing.MarginOverSell, 25000, 0, 2500, 27500, 35000, 7500, "21.43"},
		{"materials over cost", []document.LineItem{materialItem}, costing.MarginOverCost, 25000, 0, 2500, 27500, 35000, 7500, "27.27"},
		{"labor over sell", []document.LineItem{laborItem}, costing.MarginOverSell, 0, 24000, 2400, 26400, 40000, 13600, "34"},
		{"labor over cost", []document.LineItem{laborItem}, costing.MarginOverCost, 0, 24000, 2400, 26400, 40000, 13600, "51.52"},
		{"empty", nil, costing.MarginOverCost, 0, 0, 0, 0, 0, 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := costing.NewEngine(nil, costing.WithMarginBase(tt.base))
			s := e.Summarize(tt.items, "EUR")

			if s.MaterialsCost.Amount != tt.materials {
				t.Errorf("MaterialsCost: got %d, want %d", s.MaterialsCost.Amount, tt.materials)
			}
			if s.LaborCost.Amount != tt.labor {
				t.Errorf("LaborCost: got %d, want %d", s.LaborCost.Amount, tt.labor)
			}
			if s.OverheadValue.Amount != tt.overhead {
				t.Errorf("OverheadValue: got %d, want %d", s.OverheadValue.Amount, tt.overhead)
			}
			if s.CostTotal.Amount != tt.cost {
				t.Errorf("CostTotal: got %d, want %d", s.CostTotal.Amount, tt.cost)
			}
			if s.SellTotal.Amount != tt.sell {
				t.Errorf("SellTotal: got %d, want %d", s.SellTotal.Amount, tt.sell)
			}
			if s.MarginValue.Amount != tt.margin {
				t.Errorf("MarginValue: got %d, want %d", s.MarginValue.Amount, tt.margin)
			}
			if !s.MarginPct.Equal(d(tt.marginPct)) {
				t.Errorf("MarginPct: got %s, want %s", s.MarginPct, tt.marginPct)
			}
			if s.SnapshotLocked || s.SnapshotDate != nil {
				t.Error("fresh summary must be unlocked")
			}
		})
	}
}

func TestSummarizeServiceSplit(t *testing.T) {
	e := costing.NewEngine(nil, costing.WithOverheadPct(decimal.Zero))
	s := e.Summarize([]document.LineItem{
		{Type: document.ItemService, Quantity: d("1"), UnitCost: document.Dec(d("100")), UnitSell: d("150")},
	}, "eur")

	if s.MaterialsCost.Amount != 5000 || s.LaborCost.Amount != 5000 {
		t.Errorf("got materials=%d labor=%d, want 5000/5000", s.MaterialsCost.Amount, s.LaborCost.Amount)
	}
	if s.CostTotal.Amount != 10000 {
		t.Errorf("CostTotal: got %d, want 10000", s.CostTotal.Amount)
	}
}

func TestEnrichItem(t *testing.T) {
	matID := id.NewMaterialID()
	persID := id.NewPersonnelID()
	rates := &fakeRates{
		materials: map[string]decimal.Decimal{matID.String(): d("12.50")},
		personnel: map[string]decimal.Decimal{persID.String(): d("40")},
	}
	e := costing.NewEngine(rates)
	ctx := context.Background()

	t.Run("material rate", func(t *testing.T) {
		got, err := e.EnrichItem(ctx, "t1", document.LineItem{Type: document.ItemMaterial, MaterialID: matID, Quantity: d("4"), UnitSell: d("20")})
		if err != nil {
			t.Fatal(err)
		}
		if !got.UnitCost.Equal(d("12.5")) {
			t.Errorf("UnitCost: got %s, want 12.5", got.UnitCost)
		}
		if !got.LineMargin.Equal(d("30")) {
			t.Errorf("LineMargin: got %s, want 30", got.LineMargin)
		}
		if !got.MarkupPct.Equal(d("60")) {
			t.Errorf("MarkupPct: got %s, want 60", got.MarkupPct)
		}
		if got.MissingRate {
			t.Error("unexpected MissingRate")
		}
	})

	t.Run("personnel rate", func(t *testing.T) {
		got, err := e.EnrichItem(ctx, "t1", document.LineItem{Type: document.ItemLabor, PersonnelID: persID, Quantity: d("2"), UnitSell: d("55")})
		if err != nil {
			t.Fatal(err)
		}
		if !got.UnitCost.Equal(d("40")) || !got.LineMargin.Equal(d("30")) {
			t.Errorf("got cost=%s margin=%s", got.UnitCost, got.LineMargin)
		}
	})

	t.Run("missing rate costs zero", func(t *testing.T) {
		got, err := e.EnrichItem(ctx, "t1", document.LineItem{Type: document.ItemMaterial, MaterialID: id.NewMaterialID(), Quantity: d("2"), UnitSell: d("10")})
		if err != nil {
			t.Fatal(err)
		}
		if !got.MissingRate {
			t.Error("expected MissingRate")
		}
		if !got.UnitCost.IsZero() || !got.LineMargin.Equal(d("20")) || got.MarkupPct != nil {
			t.Errorf("got cost=%s margin=%s markup=%v", got.UnitCost, got.LineMargin, got.MarkupPct)
		}
	})

	t.Run("explicit cost without reference is kept", func(t *testing.T) {
		got, err := e.EnrichItem(ctx, "t1", document.LineItem{Type: document.ItemService, UnitCost: document.Dec(d("5")), Quantity: d("3"), UnitSell: d("8")})
		if err != nil {
			t.Fatal(err)
		}
		if !got.UnitCost.Equal(d("5")) || !got.LineMargin.Equal(d("9")) {
			t.Errorf("got cost=%s margin=%s", got.UnitCost, got.LineMargin)
		}
	})

	t.Run("lookup failure propagates", func(t *testing.T) {
		boom := errors.New("boom")
		failing := costing.NewEngine(&fakeRates{err: boom})
		_, err := failing.EnrichItem(ctx, "t1", document.LineItem{Type: document.ItemMaterial, MaterialID: matID, Quantity: d("1")})
		if !errors.Is(err, boom) {
			t.Errorf("got %v, want %v", err, boom)
		}
	})
}

func TestRecalculateRespectsLock(t *testing.T) {
	matID := id.NewMaterialID()
	rates := &fakeRates{materials: map[string]decimal.Decimal{matID.String(): d("10")}}
	e := costing.NewEngine(rates)
	ctx := context.Background()
	items := []document.LineItem{{Position: 1, Type: document.ItemMaterial, MaterialID: matID, Quantity: d("1"), UnitSell: d("15")}}

	_, first, err := e.Recalculate(ctx, "t1", items, nil, "eur")
	if err != nil {
		t.Fatal(err)
	}
	if first.CostTotal.Amount != 1100 {
		t.Fatalf("CostTotal: got %d, want 1100", first.CostTotal.Amount)
	}

	first.Lock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	rates.materials[matID.String()] = d("12")

	if _, _, err := e.Recalculate(ctx, "t1", items, first, "eur"); !errors.Is(err, costing.ErrLocked) {
		t.Fatalf("got %v, want ErrLocked", err)
	}
	if first.CostTotal.Amount != 1100 {
		t.Errorf("locked snapshot drifted to %d", first.CostTotal.Amount)
	}

	first.Unlock()
	if first.SnapshotDate != nil || first.SnapshotLocked {
		t.Fatal("unlock must clear date and flag")
	}
	_, second, err := e.Recalculate(ctx, "t1", items, first, "eur")
	if err != nil {
		t.Fatal(err)
	}
	if second.CostTotal.Amount != 1320 {
		t.Errorf("CostTotal after unlock: got %d, want 1320", second.CostTotal.Amount)
	}
}

func TestRecalculateFlagsMissingPositions(t *testing.T) {
	e := costing.NewEngine(&fakeRates{})
	items := []document.LineItem{
		{Position: 1, Type: document.ItemMaterial, MaterialID: id.NewMaterialID(), Quantity: d("1")},
		{Position: 2, Type: document.ItemLabor, Quantity: d("1"), UnitCost: document.Dec(d("3"))},
	}
	_, s, err := e.Recalculate(context.Background(), "t1", items, nil, "eur")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.MissingRates) != 1 || s.MissingRates[0] != 1 {
		t.Errorf("MissingRates: got %v, want [1]", s.MissingRates)
	}
}
