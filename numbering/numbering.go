// Package numbering defines the sequential document number contract.
//
// A Counter hands out a strictly increasing sequence per tenant, document
// type and year. Implementations must increment atomically in the backing
// store; a read followed by a separate write is not acceptable.
package numbering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xraph/faktura/document"
)

// Counter returns the next sequence value, starting at 1.
type Counter interface {
	Next(ctx context.Context, tenantID string, docType document.Type, year int) (int64, error)
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(ctx context.Context, tenantID string, docType document.Type, year int) (int64, error)

// Next implements Counter.
func (f CounterFunc) Next(ctx context.Context, tenantID string, docType document.Type, year int) (int64, error) {
	return f(ctx, tenantID, docType, year)
}

// Format renders a document number as "YYYY-####". Sequences above 9999
// keep all their digits.
func Format(year int, seq int64) string {
	return fmt.Sprintf("%04d-%04d", year, seq)
}

// Parse splits a number produced by Format.
func Parse(number string) (year int, seq int64, err error) {
	y, s, ok := strings.Cut(number, "-")
	if !ok {
		return 0, 0, fmt.Errorf("numbering: malformed number %q", number)
	}
	if year, err = strconv.Atoi(y); err != nil {
		return 0, 0, fmt.Errorf("numbering: malformed year in %q: %w", number, err)
	}
	if seq, err = strconv.ParseInt(s, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("numbering: malformed sequence in %q: %w", number, err)
	}
	return year, seq, nil
}

// Key is the counter identity used by key/value backends:
// "<tenant>:<type>-<year>".
func Key(tenantID string, docType document.Type, year int) string {
	return tenantID + ":" + string(docType) + "-" + strconv.Itoa(year)
}
