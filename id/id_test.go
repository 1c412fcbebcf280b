package id_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/xraph/faktura/id"
)

func TestConstructorsAndParsers(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
		prefix  string
	}{
		{"OfferID", id.NewOfferID, id.ParseOfferID, "ofr_"},
		{"OrderID", id.NewOrderID, id.ParseOrderID, "ord_"},
		{"InvoiceID", id.NewInvoiceID, id.ParseInvoiceID, "inv_"},
		{"PaymentID", id.NewPaymentID, id.ParsePaymentID, "pay_"},
		{"ClientID", id.NewClientID, id.ParseClientID, "cli_"},
		{"MaterialID", id.NewMaterialID, id.ParseMaterialID, "mat_"},
		{"PersonnelID", id.NewPersonnelID, id.ParsePersonnelID, "pers_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			if !strings.HasPrefix(original.String(), tt.prefix) {
				t.Fatalf("expected prefix %q, got %q", tt.prefix, original.String())
			}
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		parseFn func(string) (id.ID, error)
	}{
		{"offer parser rejects order", id.NewOrderID().String(), id.ParseOfferID},
		{"order parser rejects invoice", id.NewInvoiceID().String(), id.ParseOrderID},
		{"invoice parser rejects offer", id.NewOfferID().String(), id.ParseInvoiceID},
		{"payment parser rejects invoice", id.NewInvoiceID().String(), id.ParsePaymentID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.parseFn(tt.input); err == nil {
				t.Errorf("expected error for cross-type parse of %q", tt.input)
			}
		})
	}
}

func TestParseOptional(t *testing.T) {
	got, err := id.ParseOptional("", id.PrefixOffer)
	if err != nil || !got.IsNil() {
		t.Fatalf("got (%v, %v), want (Nil, nil)", got, err)
	}

	o := id.NewOfferID()
	got, err = id.ParseOptional(o.String(), id.PrefixOffer)
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != o.String() {
		t.Errorf("got %q, want %q", got, o)
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type doc struct {
		ID      id.ID `json:"id"`
		Related id.ID `json:"related"`
	}

	in := doc{ID: id.NewInvoiceID()}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}

	var out doc
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.ID.String() != in.ID.String() {
		t.Errorf("got %q, want %q", out.ID, in.ID)
	}
	if !out.Related.IsNil() {
		t.Errorf("expected nil related id, got %q", out.Related)
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewOrderID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.ID
	if err := scanned.Scan(val); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}

	var nilID id.ID
	if val, _ := nilID.Value(); val != nil {
		t.Errorf("expected nil value for nil ID, got %v", val)
	}
}
