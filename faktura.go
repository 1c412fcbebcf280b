package faktura

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/faktura/costing"
	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/numbering"
	"github.com/xraph/faktura/plugin"
	"github.com/xraph/faktura/store"
	"github.com/xraph/faktura/totals"
	"github.com/xraph/faktura/transition"
)

// Engine is the document lifecycle manager. It owns numbering, totals and
// costing recomputation, state transitions and payment reconciliation for
// offers, orders and invoices.
//
// Every operation is scoped to the tenant carried by its context; see
// WithTenant.
type Engine struct {
	store   store.Store
	counter numbering.Counter
	costing *costing.Engine
	plugins *plugin.Registry
	logger  *slog.Logger
	now     func() time.Time

	defaultCurrency  string
	defaultLocale    string
	paymentTermDays  int
	sweepConcurrency int
	refreshAttempts  int
}

// New creates an Engine on s. Unless overridden, numbers come from s and
// costing reads rates from s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:            s,
		counter:          s,
		plugins:          plugin.NewRegistry(),
		logger:           slog.Default(),
		now:              time.Now,
		defaultCurrency:  "eur",
		defaultLocale:    "de",
		paymentTermDays:  14,
		sweepConcurrency: 8,
		refreshAttempts:  3,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.costing == nil {
		e.costing = costing.NewEngine(s, costing.WithLogger(e.logger))
	}

	return e
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithCounter replaces the store's numbering counter, e.g. with Redis.
func WithCounter(c numbering.Counter) Option {
	return func(e *Engine) { e.counter = c }
}

// WithCosting replaces the costing engine.
func WithCosting(c *costing.Engine) Option {
	return func(e *Engine) { e.costing = c }
}

// WithClock sets the time source used for timestamps, numbering years and
// the overdue cut-off.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDefaultCurrency sets the currency used when an input names none.
func WithDefaultCurrency(currency string) Option {
	return func(e *Engine) { e.defaultCurrency = currency }
}

// WithDefaultLocale sets the locale used when an input names none.
func WithDefaultLocale(locale string) Option {
	return func(e *Engine) { e.defaultLocale = locale }
}

// WithPaymentTermDays sets the default due date offset for invoices.
func WithPaymentTermDays(days int) Option {
	return func(e *Engine) { e.paymentTermDays = days }
}

// WithSweepConcurrency bounds the parallel updates of the overdue sweep.
func WithSweepConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.sweepConcurrency = n
		}
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("faktura started",
		"currency", e.defaultCurrency,
		"payment_term_days", e.paymentTermDays,
		"overhead_pct", e.costing.OverheadPct().String(),
		"plugins", len(e.plugins.List()),
	)
	return nil
}

// Stop notifies plugins and closes the store.
func (e *Engine) Stop() error {
	e.plugins.EmitShutdown(context.Background())
	return e.store.Close()
}

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// ──────────────────────────────────────────────────
// Inputs
// ──────────────────────────────────────────────────

// DocumentInput is the data needed to create any document type.
type DocumentInput struct {
	Client                document.ClientSnapshot
	Locale                string
	Currency              string
	IssueDate             time.Time
	LineItems             []document.LineItem
	AdditionalDiscountAbs decimal.Decimal
	TaxKeys               []document.TaxKey
	NoteInternal          string
	NoteCustomer          string
}

// DocumentPatch is a partial update. Nil fields are left unchanged. The
// client snapshot cannot be patched.
type DocumentPatch struct {
	Locale                *string
	IssueDate             *time.Time
	LineItems             *[]document.LineItem
	AdditionalDiscountAbs *decimal.Decimal
	TaxKeys               *[]document.TaxKey
	NoteInternal          *string
	NoteCustomer          *string
}

// financial reports whether p touches an input of the totals calculation.
func (p DocumentPatch) financial() bool {
	return p.LineItems != nil || p.AdditionalDiscountAbs != nil || p.TaxKeys != nil
}

// ──────────────────────────────────────────────────
// Shared helpers
// ──────────────────────────────────────────────────

var hundred = decimal.NewFromInt(100)

// validate checks discount ranges on a candidate document.
func validate(h *document.Header) error {
	if h.AdditionalDiscountAbs.IsNegative() {
		return fmt.Errorf("%w: additional discount must not be negative", ErrInvalidDiscount)
	}
	for _, li := range h.LineItems {
		if li.DiscountPct == nil {
			continue
		}
		if li.DiscountPct.IsNegative() || li.DiscountPct.GreaterThan(hundred) {
			return fmt.Errorf("%w: position %d discount %s outside 0..100", ErrInvalidDiscount, li.Position, li.DiscountPct)
		}
	}
	for _, k := range h.TaxKeys {
		if k.Key == "" {
			return ValidationError{Field: "tax_keys", Message: "key must not be empty"}
		}
	}
	return nil
}

// normalizeItems assigns missing line IDs and positions.
func normalizeItems(items []document.LineItem) []document.LineItem {
	out := document.CopyItems(items)
	for i := range out {
		if out[i].ID.IsNil() {
			out[i].ID = id.NewLineItemID()
		}
		if out[i].Position == 0 {
			out[i].Position = i + 1
		}
	}
	return out
}

// newHeader builds the header of a new document from in.
func (e *Engine) newHeader(tenantID, actor string, in DocumentInput) document.Header {
	now := e.now()
	h := document.Header{
		Entity:                NewEntity(now, actor),
		TenantID:              tenantID,
		Client:                in.Client,
		Locale:                in.Locale,
		Currency:              in.Currency,
		IssueDate:             in.IssueDate,
		LineItems:             normalizeItems(in.LineItems),
		AdditionalDiscountAbs: in.AdditionalDiscountAbs,
		TaxKeys:               document.CopyTaxKeys(in.TaxKeys),
		NoteInternal:          in.NoteInternal,
		NoteCustomer:          in.NoteCustomer,
	}
	if h.Locale == "" {
		h.Locale = e.defaultLocale
	}
	if h.Currency == "" {
		h.Currency = e.defaultCurrency
	}
	h.Currency = Zero(h.Currency).Currency
	if h.IssueDate.IsZero() {
		h.IssueDate = now.UTC()
	}
	return h
}

// applyPatch merges p into h.
func applyPatch(h *document.Header, p DocumentPatch) {
	if p.Locale != nil {
		h.Locale = *p.Locale
	}
	if p.IssueDate != nil {
		h.IssueDate = *p.IssueDate
	}
	if p.LineItems != nil {
		h.LineItems = normalizeItems(*p.LineItems)
	}
	if p.AdditionalDiscountAbs != nil {
		h.AdditionalDiscountAbs = *p.AdditionalDiscountAbs
	}
	if p.TaxKeys != nil {
		h.TaxKeys = document.CopyTaxKeys(*p.TaxKeys)
	}
	if p.NoteInternal != nil {
		h.NoteInternal = *p.NoteInternal
	}
	if p.NoteCustomer != nil {
		h.NoteCustomer = *p.NoteCustomer
	}
}

// recompute runs the totals calculator over h.
func recompute(h *document.Header) {
	h.Totals = totals.Compute(h.LineItems, h.TaxKeys, h.AdditionalDiscountAbs, h.Currency)
}

// totalsChanged compares the totals inputs of two headers.
func totalsChanged(before, after *document.Header) bool {
	return totals.Changed(before.LineItems, after.LineItems, before.TaxKeys, after.TaxKeys,
		before.AdditionalDiscountAbs, after.AdditionalDiscountAbs)
}

// nextNumber draws the next number for docType in the issue year.
func (e *Engine) nextNumber(ctx context.Context, tenantID string, docType document.Type, issue time.Time) (string, error) {
	year := issue.Year()
	seq, err := e.counter.Next(ctx, tenantID, docType, year)
	if err != nil {
		return "", fmt.Errorf("faktura: next %s number: %w", docType, err)
	}
	return numbering.Format(year, seq), nil
}

// checkTransition validates from -> to for docType.
func checkTransition(ctx context.Context, docType document.Type, from, to transition.State) error {
	table, err := transition.For(docType)
	if err != nil {
		return err
	}
	return table.Validate(ctx, from, to)
}

func initialState(docType document.Type) transition.State {
	table, _ := transition.For(docType) //nolint:errcheck // docType is one of the three built-in tables
	return table.Initial()
}
