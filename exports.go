package faktura

import (
	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/transition"
	"github.com/xraph/faktura/types"
)

// Re-exports so callers can build documents without importing every
// sub-package.

type (
	Money    = types.Money
	Entity   = types.Entity
	LineItem = document.LineItem
	TaxKey   = document.TaxKey
	Totals   = document.Totals
	Client   = document.ClientSnapshot
	State    = transition.State
)

var (
	EUR         = types.EUR
	USD         = types.USD
	Zero        = types.Zero
	FromDecimal = types.FromDecimal
	Dec         = document.Dec
	NewEntity   = types.NewEntity
)
