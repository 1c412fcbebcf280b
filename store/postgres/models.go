package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/offer"
	"github.com/xraph/faktura/order"
	"github.com/xraph/faktura/payment"
	"github.com/xraph/faktura/rate"
	"github.com/xraph/faktura/types"
)

// Documents keep their full structure in a JSONB body. The columns next to
// it exist for filtering, ordering and the optimistic version check.

// ==================== Offer models ====================

type offerModel struct {
	grove.BaseModel `grove:"table:faktura_offers"`

	ID         string          `grove:"id,pk"`
	TenantID   string          `grove:"tenant_id"`
	Number     string          `grove:"number"`
	State      string          `grove:"state"`
	ClientName string          `grove:"client_name"`
	Currency   string          `grove:"currency"`
	GrossTotal int64           `grove:"gross_total"`
	IssueDate  time.Time       `grove:"issue_date"`
	Body       json.RawMessage `grove:"body,type:jsonb"`
	Version    int64           `grove:"version"`
	CreatedAt  time.Time       `grove:"created_at"`
	UpdatedAt  time.Time       `grove:"updated_at"`
}

func toOfferModel(o *offer.Offer) (*offerModel, error) {
	body, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("faktura/postgres: encode offer: %w", err)
	}
	return &offerModel{
		ID:         o.ID.String(),
		TenantID:   o.TenantID,
		Number:     o.Number,
		State:      string(o.State),
		ClientName: o.Client.Name,
		Currency:   o.Currency,
		GrossTotal: o.Totals.GrandTotalGross.Amount,
		IssueDate:  o.IssueDate,
		Body:       body,
		Version:    o.Version,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}, nil
}

func fromOfferModel(m *offerModel) (*offer.Offer, error) {
	var o offer.Offer
	if err := json.Unmarshal(m.Body, &o); err != nil {
		return nil, fmt.Errorf("faktura/postgres: decode offer %s: %w", m.ID, err)
	}
	o.Version = m.Version
	o.UpdatedAt = m.UpdatedAt
	return &o, nil
}

// ==================== Order models ====================

type orderModel struct {
	grove.BaseModel `grove:"table:faktura_orders"`

	ID             string          `grove:"id,pk"`
	TenantID       string          `grove:"tenant_id"`
	Number         string          `grove:"number"`
	State          string          `grove:"state"`
	RelatedOfferID string          `grove:"related_offer_id"`
	ClientName     string          `grove:"client_name"`
	Currency       string          `grove:"currency"`
	GrossTotal     int64           `grove:"gross_total"`
	IssueDate      time.Time       `grove:"issue_date"`
	Body           json.RawMessage `grove:"body,type:jsonb"`
	Version        int64           `grove:"version"`
	CreatedAt      time.Time       `grove:"created_at"`
	UpdatedAt      time.Time       `grove:"updated_at"`
}

func toOrderModel(o *order.Order) (*orderModel, error) {
	body, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("faktura/postgres: encode order: %w", err)
	}
	return &orderModel{
		ID:             o.ID.String(),
		TenantID:       o.TenantID,
		Number:         o.Number,
		State:          string(o.State),
		RelatedOfferID: o.RelatedOfferID.String(),
		ClientName:     o.Client.Name,
		Currency:       o.Currency,
		GrossTotal:     o.Totals.GrandTotalGross.Amount,
		IssueDate:      o.IssueDate,
		Body:           body,
		Version:        o.Version,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}, nil
}

func fromOrderModel(m *orderModel) (*order.Order, error) {
	var o order.Order
	if err := json.Unmarshal(m.Body, &o); err != nil {
		return nil, fmt.Errorf("faktura/postgres: decode order %s: %w", m.ID, err)
	}
	o.Version = m.Version
	o.UpdatedAt = m.UpdatedAt
	return &o, nil
}

// ==================== Invoice models ====================

type invoiceModel struct {
	grove.BaseModel `grove:"table:faktura_invoices"`

	ID             string          `grove:"id,pk"`
	TenantID       string          `grove:"tenant_id"`
	Number         string          `grove:"number"`
	State          string          `grove:"state"`
	RelatedOrderID string          `grove:"related_order_id"`
	RelatedOfferID string          `grove:"related_offer_id"`
	ClientName     string          `grove:"client_name"`
	Currency       string          `grove:"currency"`
	GrossTotal     int64           `grove:"gross_total"`
	OpenAmount     int64           `grove:"open_amount"`
	IssueDate      time.Time       `grove:"issue_date"`
	DueDate        time.Time       `grove:"due_date"`
	Body           json.RawMessage `grove:"body,type:jsonb"`
	Version        int64           `grove:"version"`
	CreatedAt      time.Time       `grove:"created_at"`
	UpdatedAt      time.Time       `grove:"updated_at"`
}

func toInvoiceModel(inv *invoice.Invoice) (*invoiceModel, error) {
	body, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("faktura/postgres: encode invoice: %w", err)
	}
	return &invoiceModel{
		ID:             inv.ID.String(),
		TenantID:       inv.TenantID,
		Number:         inv.Number,
		State:          string(inv.State),
		RelatedOrderID: inv.RelatedOrderID.String(),
		RelatedOfferID: inv.RelatedOfferID.String(),
		ClientName:     inv.Client.Name,
		Currency:       inv.Currency,
		GrossTotal:     inv.Totals.GrandTotalGross.Amount,
		OpenAmount:     inv.OpenAmount.Amount,
		IssueDate:      inv.IssueDate,
		DueDate:        inv.DueDate,
		Body:           body,
		Version:        inv.Version,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}, nil
}

func fromInvoiceModel(m *invoiceModel) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	if err := json.Unmarshal(m.Body, &inv); err != nil {
		return nil, fmt.Errorf("faktura/postgres: decode invoice %s: %w", m.ID, err)
	}
	inv.Version = m.Version
	inv.UpdatedAt = m.UpdatedAt
	return &inv, nil
}

// ==================== Payment models ====================

type paymentModel struct {
	grove.BaseModel `grove:"table:faktura_payments"`

	ID        string    `grove:"id,pk"`
	TenantID  string    `grove:"tenant_id"`
	InvoiceID string    `grove:"invoice_id"`
	Amount    int64     `grove:"amount"`
	Currency  string    `grove:"currency"`
	PaidOn    time.Time `grove:"paid_on"`
	Method    string    `grove:"method"`
	Note      string    `grove:"note"`
	CreatedBy string    `grove:"created_by"`
	CreatedAt time.Time `grove:"created_at"`
}

func toPaymentModel(p *payment.Payment) *paymentModel {
	return &paymentModel{
		ID:        p.ID.String(),
		TenantID:  p.TenantID,
		InvoiceID: p.InvoiceID.String(),
		Amount:    p.Amount.Amount,
		Currency:  p.Amount.Currency,
		PaidOn:    p.Date,
		Method:    string(p.Method),
		Note:      p.Note,
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
	}
}

func fromPaymentModel(m *paymentModel) (*payment.Payment, error) {
	pid, err := id.ParsePaymentID(m.ID)
	if err != nil {
		return nil, err
	}
	invID, err := id.ParseInvoiceID(m.InvoiceID)
	if err != nil {
		return nil, err
	}
	return &payment.Payment{
		ID:        pid,
		TenantID:  m.TenantID,
		InvoiceID: invID,
		Amount:    types.Money{Amount: m.Amount, Currency: m.Currency},
		Date:      m.PaidOn,
		Method:    payment.Method(m.Method),
		Note:      m.Note,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}, nil
}

// ==================== Rate models ====================

type materialModel struct {
	grove.BaseModel `grove:"table:faktura_materials"`

	ID        string          `grove:"id,pk"`
	TenantID  string          `grove:"tenant_id"`
	Name      string          `grove:"name"`
	Body      json.RawMessage `grove:"body,type:jsonb"`
	UpdatedAt time.Time       `grove:"updated_at"`
}

type personnelModel struct {
	grove.BaseModel `grove:"table:faktura_personnel"`

	ID        string          `grove:"id,pk"`
	TenantID  string          `grove:"tenant_id"`
	Name      string          `grove:"name"`
	Body      json.RawMessage `grove:"body,type:jsonb"`
	UpdatedAt time.Time       `grove:"updated_at"`
}

func toMaterialModel(m *rate.Material) *materialModel {
	body, _ := json.Marshal(m) //nolint:errchkjson // plain struct
	return &materialModel{ID: m.ID.String(), TenantID: m.TenantID, Name: m.Name, Body: body, UpdatedAt: m.UpdatedAt}
}

func toPersonnelModel(p *rate.Personnel) *personnelModel {
	body, _ := json.Marshal(p) //nolint:errchkjson // plain struct
	return &personnelModel{ID: p.ID.String(), TenantID: p.TenantID, Name: p.Name, Body: body, UpdatedAt: p.UpdatedAt}
}
