// Package costing enriches offer line items with unit costs from the rate
// tables and computes the cost/margin snapshot of an offer.
package costing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/rate"
	"github.com/xraph/faktura/types"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// DefaultOverheadPct is applied when no overhead is configured.
var DefaultOverheadPct = decimal.NewFromInt(10)

// Engine resolves unit costs and computes snapshots.
type Engine struct {
	rates       rate.Lookup
	overheadPct decimal.Decimal
	marginBase  MarginBase
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithOverheadPct sets the overhead percentage applied to direct cost.
func WithOverheadPct(pct decimal.Decimal) Option {
	return func(e *Engine) { e.overheadPct = pct }
}

// WithMarginBase selects the margin percentage denominator.
func WithMarginBase(base MarginBase) Option {
	return func(e *Engine) { e.marginBase = base }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an Engine reading rates from rates. A nil lookup
// leaves explicit unit costs untouched and flags every reference missing.
func NewEngine(rates rate.Lookup, opts ...Option) *Engine {
	e := &Engine{
		rates:       rates,
		overheadPct: DefaultOverheadPct,
		marginBase:  MarginOverCost,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OverheadPct returns the configured overhead percentage.
func (e *Engine) OverheadPct() decimal.Decimal { return e.overheadPct }

// EnrichItem resolves the unit cost of item from its material or personnel
// reference and derives LineMargin and MarkupPct.
//
// A reference that does not resolve sets the cost to zero and MissingRate;
// it does not fail. Any other lookup error is returned.
func (e *Engine) EnrichItem(ctx context.Context, tenantID string, item document.LineItem) (document.LineItem, error) {
	item.MissingRate = false

	switch {
	case item.Type == document.ItemMaterial && !item.MaterialID.IsNil():
		cost, err := e.materialCost(ctx, tenantID, &item)
		if err != nil {
			return item, err
		}
		item.UnitCost = cost
	case item.Type == document.ItemLabor && !item.PersonnelID.IsNil():
		cost, err := e.personnelCost(ctx, tenantID, &item)
		if err != nil {
			return item, err
		}
		item.UnitCost = cost
	}

	if item.MissingRate {
		e.logger.Warn("rate reference not found, costing line at zero",
			"tenant_id", tenantID,
			"position", item.Position,
			"material_id", item.MaterialID.String(),
			"personnel_id", item.PersonnelID.String(),
		)
	}

	deriveMargin(&item)
	return item, nil
}

func (e *Engine) materialCost(ctx context.Context, tenantID string, item *document.LineItem) (*decimal.Decimal, error) {
	if e.rates == nil {
		return e.missing(item), nil
	}
	m, err := e.rates.GetMaterial(ctx, tenantID, item.MaterialID)
	if errors.Is(err, rate.ErrNotFound) {
		return e.missing(item), nil
	}
	if err != nil {
		return nil, err
	}
	return document.Dec(m.UnitPrice), nil
}

func (e *Engine) personnelCost(ctx context.Context, tenantID string, item *document.LineItem) (*decimal.Decimal, error) {
	if e.rates == nil {
		return e.missing(item), nil
	}
	p, err := e.rates.GetPersonnel(ctx, tenantID, item.PersonnelID)
	if errors.Is(err, rate.ErrNotFound) {
		return e.missing(item), nil
	}
	if err != nil {
		return nil, err
	}
	return document.Dec(p.HourlyRate), nil
}

func (e *Engine) missing(item *document.LineItem) *decimal.Decimal {
	item.MissingRate = true
	return document.Dec(decimal.Zero)
}

// deriveMargin sets LineMargin = quantity × (sell − cost) and, for a
// positive cost, MarkupPct = (sell − cost) / cost × 100.
func deriveMargin(item *document.LineItem) {
	cost := decimal.Zero
	if item.UnitCost != nil {
		cost = *item.UnitCost
	}
	sell := item.Sell()
	diff := sell.Sub(cost)

	item.LineMargin = document.Dec(types.Round2(item.Quantity.Mul(diff)))
	if cost.IsPositive() {
		item.MarkupPct = document.Dec(types.Round2(diff.Div(cost).Mul(hundred)))
	} else {
		item.MarkupPct = nil
	}
}

// Summarize computes the snapshot over items with the engine's overhead and
// margin base. Service items split their cost evenly between materials and
// labor. The returned summary is unlocked.
func (e *Engine) Summarize(items []document.LineItem, currency string) *Summary {
	var materials, labor, sell decimal.Decimal
	var missing []int

	for _, li := range items {
		cost := decimal.Zero
		if li.UnitCost != nil {
			cost = li.Quantity.Mul(*li.UnitCost)
		}
		switch li.Type {
		case document.ItemMaterial:
			materials = materials.Add(cost)
		case document.ItemLabor:
			labor = labor.Add(cost)
		case document.ItemService:
			materials = materials.Add(cost.Mul(half))
			labor = labor.Add(cost.Mul(half))
		}
		sell = sell.Add(li.Quantity.Mul(li.Sell()))
		if li.MissingRate {
			missing = append(missing, li.Position)
		}
	}

	s := &Summary{
		Currency:      types.Zero(currency).Currency,
		MaterialsCost: types.FromDecimal(materials, currency),
		LaborCost:     types.FromDecimal(labor, currency),
		OverheadPct:   e.overheadPct,
		OverheadValue: types.FromDecimal(materials.Add(labor).Mul(e.overheadPct).Div(hundred), currency),
		SellTotal:     types.FromDecimal(sell, currency),
		MarginBase:    e.marginBase,
		MissingRates:  missing,
	}
	s.CostTotal = s.MaterialsCost.Add(s.LaborCost).Add(s.OverheadValue)
	s.MarginValue = s.SellTotal.Subtract(s.CostTotal)
	s.MarginPct = marginPct(s.MarginValue, s.CostTotal, s.SellTotal, e.marginBase)

	return s
}

func marginPct(margin, cost, sell types.Money, base MarginBase) decimal.Decimal {
	denom := cost
	if base == MarginOverSell {
		denom = sell
	}
	if denom.IsZero() {
		return decimal.Zero
	}
	return types.Round2(margin.Decimal().Div(denom.Decimal()).Mul(hundred))
}

// Recalculate enriches every item and recomputes the snapshot. A locked
// previous snapshot is left alone and ErrLocked is returned.
func (e *Engine) Recalculate(ctx context.Context, tenantID string, items []document.LineItem, prev *Summary, currency string) ([]document.LineItem, *Summary, error) {
	if prev.Locked() {
		return nil, nil, ErrLocked
	}

	out := make([]document.LineItem, len(items))
	for i, li := range document.CopyItems(items) {
		enriched, err := e.EnrichItem(ctx, tenantID, li)
		if err != nil {
			return nil, nil, err
		}
		out[i] = enriched
	}

	return out, e.Summarize(out, currency), nil
}
