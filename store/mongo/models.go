package mongo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/offer"
	"github.com/xraph/faktura/order"
	"github.com/xraph/faktura/payment"
	"github.com/xraph/faktura/types"
)

// Decimal quantities and rates do not map onto BSON cleanly, so each
// document carries its JSON encoding in body. The top-level fields are
// the ones queries filter and sort on.

type documentModel struct {
	ID        string    `grove:"id,pk"      bson:"_id"`
	TenantID  string    `grove:"tenant_id"  bson:"tenant_id"`
	Number    string    `grove:"number"     bson:"number"`
	State     string    `grove:"state"      bson:"state"`
	Gross     int64     `grove:"gross"      bson:"gross"`
	Currency  string    `grove:"currency"   bson:"currency"`
	Body      string    `grove:"body"       bson:"body"`
	Version   int64     `grove:"version"    bson:"version"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

type offerModel struct {
	grove.BaseModel `grove:"table:faktura_offers"`
	documentModel   `bson:",inline"`
}

type orderModel struct {
	grove.BaseModel `grove:"table:faktura_orders"`
	documentModel   `bson:",inline"`
	RelatedOfferID  string `grove:"related_offer_id" bson:"related_offer_id"`
}

type invoiceModel struct {
	grove.BaseModel `grove:"table:faktura_invoices"`
	documentModel   `bson:",inline"`
	DueDate         time.Time `grove:"due_date"    bson:"due_date"`
	OpenAmount      int64     `grove:"open_amount" bson:"open_amount"`
}

type paymentModel struct {
	grove.BaseModel `grove:"table:faktura_payments"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	TenantID  string    `grove:"tenant_id"  bson:"tenant_id"`
	InvoiceID string    `grove:"invoice_id" bson:"invoice_id"`
	Amount    int64     `grove:"amount"     bson:"amount"`
	Currency  string    `grove:"currency"   bson:"currency"`
	PaidOn    time.Time `grove:"paid_on"    bson:"paid_on"`
	Body      string    `grove:"body"       bson:"body"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
}

type rateModel struct {
	grove.BaseModel `grove:"table:faktura_rates"`

	ID       string `grove:"id,pk"     bson:"_id"`
	TenantID string `grove:"tenant_id" bson:"tenant_id"`
	Kind     string `grove:"kind"      bson:"kind"`
	Body     string `grove:"body"      bson:"body"`
}

type counterModel struct {
	Key   string `bson:"_id"`
	Value int64  `bson:"value"`
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("faktura/mongo: encode: %w", err)
	}
	return string(b), nil
}

func decode(body, docID string, v any) error {
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("faktura/mongo: decode %s: %w", docID, err)
	}
	return nil
}

func toOfferModel(o *offer.Offer) (*offerModel, error) {
	body, err := encode(o)
	if err != nil {
		return nil, err
	}
	return &offerModel{documentModel: documentModel{
		ID:        o.ID.String(),
		TenantID:  o.TenantID,
		Number:    o.Number,
		State:     string(o.State),
		Gross:     o.Totals.GrandTotalGross.Amount,
		Currency:  o.Currency,
		Body:      body,
		Version:   o.Version,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}}, nil
}

func fromOfferModel(m *offerModel) (*offer.Offer, error) {
	var o offer.Offer
	if err := decode(m.Body, m.ID, &o); err != nil {
		return nil, err
	}
	o.Version = m.Version
	o.UpdatedAt = m.UpdatedAt
	return &o, nil
}

func toOrderModel(o *order.Order) (*orderModel, error) {
	body, err := encode(o)
	if err != nil {
		return nil, err
	}
	return &orderModel{
		documentModel: documentModel{
			ID:        o.ID.String(),
			TenantID:  o.TenantID,
			Number:    o.Number,
			State:     string(o.State),
			Gross:     o.Totals.GrandTotalGross.Amount,
			Currency:  o.Currency,
			Body:      body,
			Version:   o.Version,
			CreatedAt: o.CreatedAt,
			UpdatedAt: o.UpdatedAt,
		},
		RelatedOfferID: o.RelatedOfferID.String(),
	}, nil
}

func fromOrderModel(m *orderModel) (*order.Order, error) {
	var o order.Order
	if err := decode(m.Body, m.ID, &o); err != nil {
		return nil, err
	}
	o.Version = m.Version
	o.UpdatedAt = m.UpdatedAt
	return &o, nil
}

func toInvoiceModel(inv *invoice.Invoice) (*invoiceModel, error) {
	body, err := encode(inv)
	if err != nil {
		return nil, err
	}
	return &invoiceModel{
		documentModel: documentModel{
			ID:        inv.ID.String(),
			TenantID:  inv.TenantID,
			Number:    inv.Number,
			State:     string(inv.State),
			Gross:     inv.Totals.GrandTotalGross.Amount,
			Currency:  inv.Currency,
			Body:      body,
			Version:   inv.Version,
			CreatedAt: inv.CreatedAt,
			UpdatedAt: inv.UpdatedAt,
		},
		DueDate:    inv.DueDate,
		OpenAmount: inv.OpenAmount.Amount,
	}, nil
}

func fromInvoiceModel(m *invoiceModel) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	if err := decode(m.Body, m.ID, &inv); err != nil {
		return nil, err
	}
	inv.Version = m.Version
	inv.UpdatedAt = m.UpdatedAt
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
		PaidOn:    p.Date,
		Body:      body,
		CreatedAt: p.CreatedAt,
	}, nil
}

func fromPaymentModel(m *paymentModel) (*payment.Payment, error) {
	var p payment.Payment
	if err := decode(m.Body, m.ID, &p); err != nil {
		return nil, err
	}
	p.Amount = types.Money{Amount: m.Amount, Currency: m.Currency}
	return &p, nil
}
