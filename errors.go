package faktura

import (
	"errors"
	"fmt"

	"github.com/xraph/faktura/costing"
	"github.com/xraph/faktura/rate"
	"github.com/xraph/faktura/transition"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("faktura: not found")
	ErrAlreadyExists = errors.New("faktura: already exists")
	ErrInvalidInput  = errors.New("faktura: invalid input")
	ErrMissingTenant = errors.New("faktura: missing tenant")

	// Document errors
	ErrOfferNotFound   = errors.New("faktura: offer not found")
	ErrOrderNotFound   = errors.New("faktura: order not found")
	ErrInvoiceNotFound = errors.New("faktura: invoice not found")
	ErrRateNotFound    = rate.ErrNotFound
	ErrConflict        = errors.New("faktura: document was modified concurrently")
	ErrInvalidDiscount = errors.New("faktura: invalid discount")

	// Lifecycle errors
	ErrIllegalTransition = transition.ErrIllegal
	ErrSnapshotLocked    = costing.ErrLocked
	ErrNoSnapshot        = errors.New("faktura: offer has no costing snapshot")

	// Payment errors
	ErrInvalidPayment   = errors.New("faktura: invalid payment")
	ErrCurrencyMismatch = errors.New("faktura: currency mismatch")

	// Export errors
	ErrNoInvoices = errors.New("faktura: no invoices to export")

	// Store errors
	ErrStoreNotReady   = errors.New("faktura: store not ready")
	ErrStoreClosed     = errors.New("faktura: store is closed")
	ErrMigrationFailed = errors.New("faktura: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("faktura: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match every validation error.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// MultiError collects independent failures, e.g. from the overdue sweep.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "faktura: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("faktura: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrOrNil returns e when it holds errors, nil otherwise.
func (e MultiError) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrOfferNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrRateNotFound)
}

// IsConflict returns true if the error signals a lost optimistic update.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsRetryable returns true if the caller may retry the operation as is.
// The engine itself never retries.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrStoreNotReady)
}
