package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger used when the recorder fails.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) {
		e.logger = logger
	}
}

// WithEnabledActions records only the given actions. Without it every action
// is recorded.
func WithEnabledActions(actions ...string) Option {
	return func(e *Extension) {
		e.enabled = setOf(actions)
	}
}

// WithDisabledActions drops the given actions from whatever is enabled.
func WithDisabledActions(actions ...string) Option {
	return func(e *Extension) {
		if e.enabled == nil {
			e.enabled = setOf(allActions)
		}
		for _, action := range actions {
			delete(e.enabled, action)
		}
	}
}

// WithCategories records only events of the given categories, e.g.
// CategoryPayment and CategoryAccounting for a bookkeeping trail.
func WithCategories(categories ...string) Option {
	return func(e *Extension) {
		e.categories = setOf(categories)
	}
}

var allActions = []string{
	ActionOfferCreated,
	ActionSnapshotLocked,
	ActionSnapshotUnlocked,
	ActionOrderCreated,
	ActionInvoiceCreated,
	ActionInvoicePaid,
	ActionInvoiceOverdue,
	ActionDocumentConverted,
	ActionStateChanged,
	ActionPaymentRegistered,
	ActionLedgerExported,
}

func setOf(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
