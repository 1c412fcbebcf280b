package audithook

// Action constants for audit events.
const (
	// Offer actions
	ActionOfferCreated     = "offer.created"
	ActionSnapshotLocked   = "offer.snapshot_locked"
	ActionSnapshotUnlocked = "offer.snapshot_unlocked"

	// Order actions
	ActionOrderCreated = "order.created"

	// Invoice actions
	ActionInvoiceCreated = "invoice.created"
	ActionInvoicePaid    = "invoice.paid"
	ActionInvoiceOverdue = "invoice.overdue"

	// Cross-document actions
	ActionDocumentConverted = "document.converted"
	ActionStateChanged      = "document.state_changed"

	// Payment actions
	ActionPaymentRegistered = "payment.registered"

	// Export actions
	ActionLedgerExported = "ledger.exported"
)

// Resource constants for audit events.
const (
	ResourceOffer   = "offer"
	ResourceOrder   = "order"
	ResourceInvoice = "invoice"
	ResourcePayment = "payment"
	ResourceExport  = "ledger_export"
)

// Category constants for audit events.
const (
	CategoryDocument   = "document"
	CategoryCosting    = "costing"
	CategoryPayment    = "payment"
	CategoryAccounting = "accounting"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
