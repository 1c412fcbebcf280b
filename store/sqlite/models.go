package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/xraph/grove"

	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/offer"
	"github.com/xraph/faktura/order"
	"github.com/xraph/faktura/payment"
	"github.com/xraph/faktura/types"
)

// SQLite has no native timestamp type. Columns that are filtered or sorted
// on hold Unix times so comparisons stay numeric; the JSON body keeps the
// full-precision values.

type offerModel struct {
	grove.BaseModel `grove:"table:faktura_offers"`

	ID        string `grove:"id,pk"`
	TenantID  string `grove:"tenant_id"`
	Number    string `grove:"number"`
	State     string `grove:"state"`
	Body      string `grove:"body"`
	Version   int64  `grove:"version"`
	CreatedAt int64  `grove:"created_at"`
}

type orderModel struct {
	grove.BaseModel `grove:"table:faktura_orders"`

	ID             string `grove:"id,pk"`
	TenantID       string `grove:"tenant_id"`
	Number         string `grove:"number"`
	State          string `grove:"state"`
	RelatedOfferID string `grove:"related_offer_id"`
	Body           string `grove:"body"`
	Version        int64  `grove:"version"`
	CreatedAt      int64  `grove:"created_at"`
}

type invoiceModel struct {
	grove.BaseModel `grove:"table:faktura_invoices"`

	ID        string `grove:"id,pk"`
	TenantID  string `grove:"tenant_id"`
	Number    string `grove:"number"`
	State     string `grove:"state"`
	DueDate   int64  `grove:"due_date"`
	Body      string `grove:"body"`
	Version   int64  `grove:"version"`
	CreatedAt int64  `grove:"created_at"`
}

type paymentModel struct {
	grove.BaseModel `grove:"table:faktura_payments"`

	ID        string `grove:"id,pk"`
	TenantID  string `grove:"tenant_id"`
	InvoiceID string `grove:"invoice_id"`
	Amount    int64  `grove:"amount"`
	Currency  string `grove:"currency"`
	PaidOn    int64  `grove:"paid_on"`
	Body      string `grove:"body"`
	CreatedAt int64  `grove:"created_at"`
}

type rateModel struct {
	grove.BaseModel `grove:"table:faktura_rates"`

	ID       string `grove:"id,pk"`
	TenantID string `grove:"tenant_id"`
	Kind     string `grove:"kind"`
	Body     string `grove:"body"`
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("faktura/sqlite: encode: %w", err)
	}
	return string(b), nil
}

func decode(body, rowID string, v any) error {
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("faktura/sqlite: decode %s: %w", rowID, err)
	}
	return nil
}

func toOfferModel(o *offer.Offer) (*offerModel, error) {
	body, err := encode(o)
	if err != nil {
		return nil, err
	}
	return &offerModel{
		ID:        o.ID.String(),
		TenantID:  o.TenantID,
		Number:    o.Number,
		State:     string(o.State),
		Body:      body,
		Version:   o.Version,
		CreatedAt: o.CreatedAt.UnixNano(),
	}, nil
}

func fromOfferModel(m *offerModel) (*offer.Offer, error) {
	var o offer.Offer
	if err := decode(m.Body, m.ID, &o); err != nil {
		return nil, err
	}
	o.Version = m.Version
	return &o, nil
}

func toOrderModel(o *order.Order) (*orderModel, error) {
	body, err := encode(o)
	if err != nil {
		return nil, err
	}
	return &orderModel{
		ID:             o.ID.String(),
		TenantID:       o.TenantID,
		Number:         o.Number,
		State:          string(o.State),
		RelatedOfferID: o.RelatedOfferID.String(),
		Body:           body,
		Version:        o.Version,
		CreatedAt:      o.CreatedAt.UnixNano(),
	}, nil
}

func fromOrderModel(m *orderModel) (*order.Order, error) {
	var o order.Order
	if err := decode(m.Body, m.ID, &o); err != nil {
		return nil, err
	}
	o.Version = m.Version
	return &o, nil
}

func toInvoiceModel(inv *invoice.Invoice) (*invoiceModel, error) {
	body, err := encode(inv)
	if err != nil {
		return nil, err
	}
	return &invoiceModel{
		ID:        inv.ID.String(),
		TenantID:  inv.TenantID,
		Number:    inv.Number,
		State:     string(inv.State),
		DueDate:   inv.DueDate.Unix(),
		Body:      body,
		Version:   inv.Version,
		CreatedAt: inv.CreatedAt.UnixNano(),
	}, nil
}

func fromInvoiceModel(m *invoiceModel) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	if err := decode(m.Body, m.ID, &inv); err != nil {
		return nil, err
	}
	inv.Version = m.Version
	return &inv, nil
}

func toPaymentModel(p *payment.Payment) (*paymentModel, error) {
	body, err := encode(p)
	if err != nil {
		return nil, err
	}
	return &paymentModel{
		ID:        p.ID.String(),
		TenantID:  p.TenantID,
		InvoiceID: p.InvoiceID.String(),
		Amount:    p.Amount.Amount,
		Currency:  p.Amount.Currency,
		PaidOn:    p.Date.Unix(),
		Body:      body,
		CreatedAt: p.CreatedAt.UnixNano(),
	}, nil
}

func fromPaymentModel(m *paymentModel) (*payment.Payment, error) {
	var p payment.Payment
	if err := decode(m.Body, m.ID, &p); err != nil {
		return nil, err
	}
	// Amount columns are authoritative.
	p.Amount = types.Money{Amount: m.Amount, Currency: m.Currency}
	return &p, nil
}

const (
	kindMaterial  = "material"
	kindPersonnel = "personnel"
)

func toRateModel(rowID id.ID, tenantID, kind string, v any) (*rateModel, error) {
	body, err := encode(v)
	if err != nil {
		return nil, err
	}
	return &rateModel{ID: rowID.String(), TenantID: tenantID, Kind: kind, Body: body}, nil
}
