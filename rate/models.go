// Package rate holds the material and personnel rate records the costing
// engine reads unit costs from.
package rate

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/types"
)

// ErrNotFound is returned by a Lookup when a referenced rate record does
// not exist.
var ErrNotFound = errors.New("faktura: rate not found")

type Material struct {
	types.Entity
	ID        id.ID           `json:"id"`
	TenantID  string          `json:"tenant_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Personnel struct {
	types.Entity
	ID         id.ID           `json:"id"`
	TenantID   string          `json:"tenant_id"`
	Name       string          `json:"name"`
	Role       string          `json:"role,omitempty"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
}
