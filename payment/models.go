package payment

import (
	"time"

	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/types"
)

type Method string

const (
	MethodBank  Method = "bank"
	MethodCash  Method = "cash"
	MethodCard  Method = "card"
	MethodOther Method = "other"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodBank, MethodCash, MethodCard, MethodOther:
		return true
	}
	return false
}

type Payment struct {
	ID        id.PaymentID `json:"id"`
	TenantID  string       `json:"tenant_id"`
	InvoiceID id.InvoiceID `json:"invoice_id"`
	Amount    types.Money  `json:"amount"`
	Date      time.Time    `json:"date"`
	Method    Method       `json:"method"`
	Note      string       `json:"note,omitempty"`
	CreatedBy string       `json:"created_by,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
