// Package document holds the parts shared by offers, orders and invoices:
// line items, tax keys, the totals breakdown and the client snapshot.
package document

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/types"
)

// Type tags a document kind. It also scopes the number sequence.
type Type string

const (
	TypeOffer   Type = "offer"
	TypeOrder   Type = "order"
	TypeInvoice Type = "invoice"
)

// ItemType classifies a line item for costing.
type ItemType string

const (
	ItemMaterial ItemType = "material"
	ItemLabor    ItemType = "labor"
	ItemService  ItemType = "service"
)

// LineItem is one priced position on a document.
type LineItem struct {
	ID          id.ID    `json:"id"`
	Position    int      `json:"position"`
	Type        ItemType `json:"type"`
	Description string   `json:"description"`
	Unit        string   `json:"unit,omitempty"`
	TaxKey      string   `json:"tax_key"`
	Notes       string   `json:"notes,omitempty"`

	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	UnitSell  decimal.Decimal `json:"unit_sell"`

	// Optional fields; nil means "not set".
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	DiscountPct *decimal.Decimal `json:"discount_pct,omitempty"`
	MarkupPct   *decimal.Decimal `json:"markup_pct,omitempty"`
	LineMargin  *decimal.Decimal `json:"line_margin,omitempty"`

	// Rate references resolved by the costing engine.
	MaterialID  id.ID `json:"material_id,omitempty"`
	PersonnelID id.ID `json:"personnel_id,omitempty"`

	// MissingRate is set when a referenced rate record could not be found
	// and the unit cost fell back to zero.
	MissingRate bool `json:"missing_rate,omitempty"`
}

// Price is the per-unit price used for totals: UnitPrice, or UnitSell when
// no explicit price was given.
func (li LineItem) Price() decimal.Decimal {
	if li.UnitPrice.IsZero() && !li.UnitSell.IsZero() {
		return li.UnitSell
	}
	return li.UnitPrice
}

// Sell is the per-unit sell price used for costing: UnitSell, or UnitPrice
// when no sell price was given.
func (li LineItem) Sell() decimal.Decimal {
	if li.UnitSell.IsZero() {
		return li.UnitPrice
	}
	return li.UnitSell
}

// TaxKey is a named VAT-rate bucket.
type TaxKey struct {
	Key         string          `json:"key"`
	RatePct     decimal.Decimal `json:"rate_pct"`
	Description string          `json:"description,omitempty"`
}

// Rates indexes tax keys by key. Later duplicates win.
func Rates(keys []TaxKey) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(keys))
	for _, k := range keys {
		out[k.Key] = k.RatePct
	}
	return out
}

// Totals is the computed money breakdown of a document. Every field is
// rounded to the currency's minor unit.
type Totals struct {
	Currency              string                 `json:"currency"`
	SubtotalNet           types.Money            `json:"subtotal_net"`
	LineDiscountTotal     types.Money            `json:"line_discount_total"`
	ItemNetAfterDiscount  types.Money            `json:"item_net_after_discount"`
	AdditionalDiscountAbs types.Money            `json:"additional_discount_abs"`
	NetAfterAllDiscounts  types.Money            `json:"net_after_all_discounts"`
	VATByKey              map[string]types.Money `json:"vat_by_key"`
	TotalVAT              types.Money            `json:"total_vat"`
	GrandTotalGross       types.Money            `json:"grand_total_gross"`
}

// ClientSnapshot is the client's data as it was when the document was
// created. It is never re-synced from the client record.
type ClientSnapshot struct {
	ClientID id.ID  `json:"client_id"`
	Name     string `json:"name"`
	Street   string `json:"street,omitempty"`
	ZIP      string `json:"zip,omitempty"`
	City     string `json:"city,omitempty"`
	Country  string `json:"country,omitempty"`
	VATID    string `json:"vat_id,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Header is the part of a document common to every type.
type Header struct {
	types.Entity

	TenantID string `json:"tenant_id"`
	Number   string `json:"number"`

	Client    ClientSnapshot `json:"client"`
	Locale    string         `json:"locale"`
	Currency  string         `json:"currency"`
	IssueDate time.Time      `json:"issue_date"`

	LineItems             []LineItem      `json:"line_items"`
	AdditionalDiscountAbs decimal.Decimal `json:"additional_discount_abs"`
	TaxKeys               []TaxKey        `json:"tax_keys"`
	Totals                Totals          `json:"totals"`

	NoteInternal string `json:"note_internal,omitempty"`
	NoteCustomer string `json:"note_customer,omitempty"`
}

// CopyItems returns a deep copy of items so a converted document never
// aliases its predecessor's pointers.
func CopyItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	for i, li := range items {
		li.UnitCost = copyDec(li.UnitCost)
		li.DiscountPct = copyDec(li.DiscountPct)
		li.MarkupPct = copyDec(li.MarkupPct)
		li.LineMargin = copyDec(li.LineMargin)
		out[i] = li
	}
	return out
}

// CopyTaxKeys returns a copy of keys.
func CopyTaxKeys(keys []TaxKey) []TaxKey {
	if keys == nil {
		return nil
	}
	return append([]TaxKey(nil), keys...)
}

// CopyTotals returns a copy of t with its own VAT map.
func CopyTotals(t Totals) Totals {
	if t.VATByKey != nil {
		vat := make(map[string]types.Money, len(t.VATByKey))
		for k, v := range t.VATByKey {
			vat[k] = v
		}
		t.VATByKey = vat
	}
	return t
}

// CloneHeader returns a deep copy of h.
func CloneHeader(h Header) Header {
	h.LineItems = CopyItems(h.LineItems)
	h.TaxKeys = CopyTaxKeys(h.TaxKeys)
	h.Totals = CopyTotals(h.Totals)
	return h
}

// Dec returns a pointer to d, for the optional LineItem fields.
func Dec(d decimal.Decimal) *decimal.Decimal { return &d }

func copyDec(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
