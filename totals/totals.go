// Package totals computes the money breakdown of a document from its line
// items, tax keys and document-level discount.
//
// Compute is pure: it performs no I/O, never mutates its input and returns
// the same Totals for the same arguments. All arithmetic runs on exact
// decimals; rounding to the currency's minor unit happens once, when the
// result fields are emitted.
package totals

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/types"
)

var hundred = decimal.NewFromInt(100)

// Compute returns the totals for items under taxKeys with an absolute
// document discount of additionalDiscountAbs (in major units).
//
// A negative additional discount is treated as zero. A tax key not present
// in taxKeys has rate zero. The document discount is apportioned over the
// items by their share of the discounted net before VAT is applied; when
// the discounted net is not positive every share is zero. The full document
// discount is apportioned even when it exceeds the discounted net: the net
// floors at zero while VAT follows the apportioned amounts and may turn
// negative.
//
// Emitted invariants, exact on the rounded values:
//
//	TotalVAT        == Σ VATByKey
//	GrandTotalGross == NetAfterAllDiscounts + TotalVAT
func Compute(items []document.LineItem, taxKeys []document.TaxKey, additionalDiscountAbs decimal.Decimal, currency string) document.Totals {
	if additionalDiscountAbs.IsNegative() {
		additionalDiscountAbs = decimal.Zero
	}
	rates := document.Rates(taxKeys)

	var subtotal, lineDiscounts decimal.Decimal
	nets := make([]decimal.Decimal, len(items))
	for i, li := range items {
		net := li.Quantity.Mul(li.Price())
		disc := lineDiscount(net, li.DiscountPct)
		subtotal = subtotal.Add(net)
		lineDiscounts = lineDiscounts.Add(disc)
		nets[i] = net.Sub(disc)
	}

	itemNet := subtotal.Sub(lineDiscounts)
	netAfterAll := decimal.Max(decimal.Zero, itemNet.Sub(additionalDiscountAbs))

	vat := make(map[string]decimal.Decimal)
	for i, li := range items {
		share := decimal.Zero
		if itemNet.IsPositive() {
			share = nets[i].Div(itemNet)
		}
		afterDoc := nets[i].Sub(share.Mul(additionalDiscountAbs))
		rate := rates[li.TaxKey] // zero for unknown keys
		vat[li.TaxKey] = vat[li.TaxKey].Add(afterDoc.Mul(rate).Div(hundred))
	}

	return emit(currency, subtotal, lineDiscounts, itemNet, additionalDiscountAbs, netAfterAll, vat)
}

func lineDiscount(net decimal.Decimal, pct *decimal.Decimal) decimal.Decimal {
	if pct == nil || pct.IsZero() {
		return decimal.Zero
	}
	return net.Mul(*pct).Div(hundred)
}

// emit rounds every field. VAT entries are rounded per key and the total is
// their sum, which keeps the invariants exact at the minor unit.
func emit(currency string, subtotal, lineDiscounts, itemNet, additional, netAfterAll decimal.Decimal, vat map[string]decimal.Decimal) document.Totals {
	t := document.Totals{
		Currency:              types.Zero(currency).Currency,
		SubtotalNet:           types.FromDecimal(subtotal, currency),
		LineDiscountTotal:     types.FromDecimal(lineDiscounts, currency),
		ItemNetAfterDiscount:  types.FromDecimal(itemNet, currency),
		AdditionalDiscountAbs: types.FromDecimal(additional, currency),
		NetAfterAllDiscounts:  types.FromDecimal(netAfterAll, currency),
		VATByKey:              make(map[string]types.Money, len(vat)),
		TotalVAT:              types.Zero(currency),
	}

	keys := make([]string, 0, len(vat))
	for k := range vat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		m := types.FromDecimal(vat[k], currency)
		t.VATByKey[k] = m
		t.TotalVAT = t.TotalVAT.Add(m)
	}
	t.GrandTotalGross = t.NetAfterAllDiscounts.Add(t.TotalVAT)

	return t
}

// Changed reports whether the inputs that feed Compute differ between two
// documents. It is used to skip recomputation on non-financial edits.
func Changed(oldItems, newItems []document.LineItem, oldKeys, newKeys []document.TaxKey, oldDisc, newDisc decimal.Decimal) bool {
	if !oldDisc.Equal(newDisc) || len(oldItems) != len(newItems) || len(oldKeys) != len(newKeys) {
		return true
	}
	for i := range oldKeys {
		if oldKeys[i].Key != newKeys[i].Key || !oldKeys[i].RatePct.Equal(newKeys[i].RatePct) {
			return true
		}
	}
	for i := range oldItems {
		if itemChanged(oldItems[i], newItems[i]) {
			return true
		}
	}
	return false
}

func itemChanged(a, b document.LineItem) bool {
	return a.Type != b.Type ||
		a.TaxKey != b.TaxKey ||
		a.MaterialID.String() != b.MaterialID.String() ||
		a.PersonnelID.String() != b.PersonnelID.String() ||
		!a.Quantity.Equal(b.Quantity) ||
		!a.UnitPrice.Equal(b.UnitPrice) ||
		!a.UnitSell.Equal(b.UnitSell) ||
		!optEqual(a.UnitCost, b.UnitCost) ||
		!optEqual(a.DiscountPct, b.DiscountPct)
}

func optEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
