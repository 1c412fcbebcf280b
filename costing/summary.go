package costing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/faktura/types"
)

// ErrLocked is returned when a recomputation is attempted on a locked
// snapshot.
var ErrLocked = errors.New("faktura: costing snapshot is locked")

// MarginBase selects the denominator of the margin percentage.
type MarginBase string

const (
	// MarginOverCost computes marginValue / costTotal × 100.
	MarginOverCost MarginBase = "cost"
	// MarginOverSell computes marginValue / sellTotal × 100.
	MarginOverSell MarginBase = "sell"
)

// Summary is the cost and margin snapshot of an offer.
type Summary struct {
	Currency      string          `json:"currency"`
	MaterialsCost types.Money     `json:"materials_cost"`
	LaborCost     types.Money     `json:"labor_cost"`
	OverheadPct   decimal.Decimal `json:"overhead_pct"`
	OverheadValue types.Money     `json:"overhead_value"`
	CostTotal     types.Money     `json:"cost_total"`
	SellTotal     types.Money     `json:"sell_total"`
	MarginValue   types.Money     `json:"margin_value"`
	MarginPct     decimal.Decimal `json:"margin_pct"`
	MarginBase    MarginBase      `json:"margin_base"`

	// MissingRates lists the positions whose rate reference did not resolve.
	MissingRates []int `json:"missing_rates,omitempty"`

	SnapshotDate   *time.Time `json:"snapshot_date,omitempty"`
	SnapshotLocked bool       `json:"snapshot_locked"`
}

// Locked reports whether s is non-nil and locked.
func (s *Summary) Locked() bool { return s != nil && s.SnapshotLocked }

// Lock freezes the snapshot as of now. Locking an already locked snapshot
// keeps the original date.
func (s *Summary) Lock(now time.Time) {
	if s.SnapshotLocked {
		return
	}
	at := now.UTC()
	s.SnapshotDate = &at
	s.SnapshotLocked = true
}

// Unlock clears the lock and its date so the next edit recomputes.
func (s *Summary) Unlock() {
	s.SnapshotDate = nil
	s.SnapshotLocked = false
}

// Clone returns a deep copy of s.
func (s *Summary) Clone() *Summary {
	if s == nil {
		return nil
	}
	c := *s
	if s.SnapshotDate != nil {
		at := *s.SnapshotDate
		c.SnapshotDate = &at
	}
	c.MissingRates = append([]int(nil), s.MissingRates...)
	return &c
}
