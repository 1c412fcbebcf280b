// Package id defines the TypeID identifiers used by faktura documents.
//
// An ID is a prefix-qualified, K-sortable (UUIDv7-based) string such as
// "ofr_01h2xcejqtf2nbrexx3vqjhp41". The prefix names the document kind, so an
// invoice ID can never be passed where an offer ID is expected without the
// parse failing.
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

const (
	PrefixOffer     Prefix = "ofr"  // sales offer (quote)
	PrefixOrder     Prefix = "ord"  // order converted from an offer
	PrefixInvoice   Prefix = "inv"  // invoice converted from an order
	PrefixPayment   Prefix = "pay"  // payment booked against an invoice
	PrefixLineItem  Prefix = "li"   // document line item
	PrefixClient    Prefix = "cli"  // customer
	PrefixMaterial  Prefix = "mat"  // material rate record
	PrefixPersonnel Prefix = "pers" // personnel rate record
)

// ID is the primary identifier type for all faktura entities.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "inv_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Per-kind constructors and parsers
// ──────────────────────────────────────────────────

// OfferID, OrderID, InvoiceID and PaymentID document intent at call sites;
// they are the same type as ID.
type (
	OfferID   = ID
	OrderID   = ID
	InvoiceID = ID
	PaymentID = ID
)

func NewOfferID() ID     { return New(PrefixOffer) }
func NewOrderID() ID     { return New(PrefixOrder) }
func NewInvoiceID() ID   { return New(PrefixInvoice) }
func NewPaymentID() ID   { return New(PrefixPayment) }
func NewLineItemID() ID  { return New(PrefixLineItem) }
func NewClientID() ID    { return New(PrefixClient) }
func NewMaterialID() ID  { return New(PrefixMaterial) }
func NewPersonnelID() ID { return New(PrefixPersonnel) }

func ParseOfferID(s string) (ID, error)     { return ParseWithPrefix(s, PrefixOffer) }
func ParseOrderID(s string) (ID, error)     { return ParseWithPrefix(s, PrefixOrder) }
func ParseInvoiceID(s string) (ID, error)   { return ParseWithPrefix(s, PrefixInvoice) }
func ParsePaymentID(s string) (ID, error)   { return ParseWithPrefix(s, PrefixPayment) }
func ParseClientID(s string) (ID, error)    { return ParseWithPrefix(s, PrefixClient) }
func ParseMaterialID(s string) (ID, error)  { return ParseWithPrefix(s, PrefixMaterial) }
func ParsePersonnelID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPersonnel) }

// ParseOptional parses s with the expected prefix, returning Nil for "".
func ParseOptional(s string, expected Prefix) (ID, error) {
	if s == "" {
		return Nil, nil
	}
	return ParseWithPrefix(s, expected)
}

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional foreign key columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
