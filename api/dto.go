package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/xraph/faktura"
	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/ledgerexport"
	"github.com/xraph/faktura/payment"
	"github.com/xraph/faktura/transition"
)

// DocumentRequest is the JSON body creating any document.
type DocumentRequest struct {
	Client                document.ClientSnapshot `json:"client"`
	Locale                string                  `json:"locale"`
	Currency              string                  `json:"currency"`
	IssueDate             *time.Time              `json:"issue_date"`
	LineItems             []document.LineItem     `json:"line_items"`
	AdditionalDiscountAbs decimal.Decimal         `json:"additional_discount_abs"`
	TaxKeys               []document.TaxKey       `json:"tax_keys"`
	NoteInternal          string                  `json:"note_internal"`
	NoteCustomer          string                  `json:"note_customer"`
}

func (r DocumentRequest) input() faktura.DocumentInput {
	in := faktura.DocumentInput{
		Client:                r.Client,
		Locale:                r.Locale,
		Currency:              r.Currency,
		LineItems:             r.LineItems,
		AdditionalDiscountAbs: r.AdditionalDiscountAbs,
		TaxKeys:               r.TaxKeys,
		NoteInternal:          r.NoteInternal,
		NoteCustomer:          r.NoteCustomer,
	}
	if r.IssueDate != nil {
		in.IssueDate = *r.IssueDate
	}
	return in
}

// PatchRequest is the JSON body of a partial update. Absent fields stay
// unchanged.
type PatchRequest struct {
	Locale                *string              `json:"locale"`
	IssueDate             *time.Time           `json:"issue_date"`
	LineItems             *[]document.LineItem `json:"line_items"`
	AdditionalDiscountAbs *decimal.Decimal     `json:"additional_discount_abs"`
	TaxKeys               *[]document.TaxKey   `json:"tax_keys"`
	NoteInternal          *string              `json:"note_internal"`
	NoteCustomer          *string              `json:"note_customer"`
}

func (r PatchRequest) patch() faktura.DocumentPatch {
	return faktura.DocumentPatch{
		Locale:                r.Locale,
		IssueDate:             r.IssueDate,
		LineItems:             r.LineItems,
		AdditionalDiscountAbs: r.AdditionalDiscountAbs,
		TaxKeys:               r.TaxKeys,
		NoteInternal:          r.NoteInternal,
		NoteCustomer:          r.NoteCustomer,
	}
}

type OfferRequest struct {
	DocumentRequest
	ValidUntil *time.Time `json:"valid_until"`
}

type OfferPatchRequest struct {
	PatchRequest
	ValidUntil *time.Time `json:"valid_until"`
}

type InvoiceRequest struct {
	DocumentRequest
	DueDate *time.Time `json:"due_date"`
}

func (r InvoiceRequest) input() faktura.InvoiceInput {
	in := faktura.InvoiceInput{DocumentInput: r.DocumentRequest.input()}
	if r.DueDate != nil {
		in.DueDate = *r.DueDate
	}
	return in
}

type InvoicePatchRequest struct {
	PatchRequest
	DueDate *time.Time `json:"due_date"`
}

// StateRequest asks for a state transition.
type StateRequest struct {
	State transition.State `json:"state" binding:"required"`
}

// ConvertRequest is the optional body of an order to invoice conversion.
type ConvertRequest struct {
	DueDate *time.Time `json:"due_date"`
}

type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   *time.Time      `json:"date"`
	Method payment.Method  `json:"method"`
	Note   string          `json:"note"`
}

func (r PaymentRequest) input() faktura.PaymentInput {
	in := faktura.PaymentInput{Amount: r.Amount, Method: r.Method, Note: r.Note}
	if r.Date != nil {
		in.Date = *r.Date
	}
	return in
}

// PaymentResponse returns the new payment with the refreshed invoice.
type PaymentResponse struct {
	Payment *payment.Payment `json:"payment"`
	Invoice *invoice.Invoice `json:"invoice"`
}

type SweepResponse struct {
	Checked      int      `json:"checked"`
	Transitioned []string `json:"transitioned"`
	Skipped      int      `json:"skipped"`
	Errors       string   `json:"errors,omitempty"`
}

// ExportRequest selects the invoices of a ledger export.
type ExportRequest struct {
	InvoiceIDs      []id.InvoiceID    `json:"invoice_ids"`
	ContraAccount   string            `json:"contra_account"`
	DebtorAccount   string            `json:"debtor_account"`
	BankAccount     string            `json:"bank_account"`
	AccountMapping  map[string]string `json:"account_mapping"`
	IncludePayments bool              `json:"include_payments"`
	ColumnHeader    bool              `json:"column_header"`
}

func (r ExportRequest) options() ledgerexport.Options {
	return ledgerexport.Options{
		ContraAccount:   r.ContraAccount,
		DebtorAccount:   r.DebtorAccount,
		BankAccount:     r.BankAccount,
		AccountMapping:  r.AccountMapping,
		IncludePayments: r.IncludePayments,
		ColumnHeader:    r.ColumnHeader,
	}
}

// ──────────────────────────────────────────────────
// Query parsing
// ──────────────────────────────────────────────────

var errBadPaging = errors.New("limit and offset must be non-negative integers")

func paging(c *gin.Context) (limit, offset int, err error) {
	if limit, err = queryInt(c, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(c, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errBadPaging
	}
	return n, nil
}

// states parses a comma separated state filter.
func states(raw string) []transition.State {
	var out []transition.State
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, transition.State(s))
		}
	}
	return out
}
