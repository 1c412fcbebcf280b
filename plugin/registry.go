package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/offer"
	"github.com/xraph/faktura/order"
	"github.com/xraph/faktura/payment"
)

// DefaultHookTimeout bounds a single hook call.
const DefaultHookTimeout = 5 * time.Second

// Registry manages registered plugins and dispatches hooks to them.
// Hook implementations are cached per interface at Register time.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit              []OnInit
	onShutdown          []OnShutdown
	onOfferCreated      []OnOfferCreated
	onOrderCreated      []OnOrderCreated
	onInvoiceCreated    []OnInvoiceCreated
	onDocumentConverted []OnDocumentConverted
	onStateChanged      []OnStateChanged
	onSnapshotLocked    []OnSnapshotLocked
	onSnapshotUnlocked  []OnSnapshotUnlocked
	onPaymentRegistered []OnPaymentRegistered
	onInvoicePaid       []OnInvoicePaid
	onInvoiceOverdue    []OnInvoiceOverdue
	onLedgerExported    []OnLedgerExported
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin and caches the hooks it implements.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}
	r.plugins = append(r.plugins, p)

	var hooks []string

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnOfferCreated); ok {
		r.onOfferCreated = append(r.onOfferCreated, v)
		hooks = append(hooks, "OnOfferCreated")
	}
	if v, ok := p.(OnOrderCreated); ok {
		r.onOrderCreated = append(r.onOrderCreated, v)
		hooks = append(hooks, "OnOrderCreated")
	}
	if v, ok := p.(OnInvoiceCreated); ok {
		r.onInvoiceCreated = append(r.onInvoiceCreated, v)
		hooks = append(hooks, "OnInvoiceCreated")
	}
	if v, ok := p.(OnDocumentConverted); ok {
		r.onDocumentConverted = append(r.onDocumentConverted, v)
		hooks = append(hooks, "OnDocumentConverted")
	}
	if v, ok := p.(OnStateChanged); ok {
		r.onStateChanged = append(r.onStateChanged, v)
		hooks = append(hooks, "OnStateChanged")
	}
	if v, ok := p.(OnSnapshotLocked); ok {
		r.onSnapshotLocked = append(r.onSnapshotLocked, v)
		hooks = append(hooks, "OnSnapshotLocked")
	}
	if v, ok := p.(OnSnapshotUnlocked); ok {
		r.onSnapshotUnlocked = append(r.onSnapshotUnlocked, v)
		hooks = append(hooks, "OnSnapshotUnlocked")
	}
	if v, ok := p.(OnPaymentRegistered); ok {
		r.onPaymentRegistered = append(r.onPaymentRegistered, v)
		hooks = append(hooks, "OnPaymentRegistered")
	}
	if v, ok := p.(OnInvoicePaid); ok {
		r.onInvoicePaid = append(r.onInvoicePaid, v)
		hooks = append(hooks, "OnInvoicePaid")
	}
	if v, ok := p.(OnInvoiceOverdue); ok {
		r.onInvoiceOverdue = append(r.onInvoiceOverdue, v)
		hooks = append(hooks, "OnInvoiceOverdue")
	}
	if v, ok := p.(OnLedgerExported); ok {
		r.onLedgerExported = append(r.onLedgerExported, v)
		hooks = append(hooks, "OnLedgerExported")
	}

	r.logger.Info("plugin registered", "name", p.Name(), "hooks", hooks)
	return nil
}

// Get returns a plugin by name, or nil.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// ──────────────────────────────────────────────────
// Event emission
// ──────────────────────────────────────────────────

func (r *Registry) EmitInit(ctx context.Context, engine any) {
	emit(ctx, r, "OnInit", snapshot(r, &r.onInit), func(p OnInit) error { return p.OnInit(ctx, engine) })
}

func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown", snapshot(r, &r.onShutdown), func(p OnShutdown) error { return p.OnShutdown(ctx) })
}

func (r *Registry) EmitOfferCreated(ctx context.Context, o *offer.Offer) {
	emit(ctx, r, "OnOfferCreated", snapshot(r, &r.onOfferCreated), func(p OnOfferCreated) error { return p.OnOfferCreated(ctx, o) })
}

func (r *Registry) EmitOrderCreated(ctx context.Context, o *order.Order) {
	emit(ctx, r, "OnOrderCreated", snapshot(r, &r.onOrderCreated), func(p OnOrderCreated) error { return p.OnOrderCreated(ctx, o) })
}

func (r *Registry) EmitInvoiceCreated(ctx context.Context, inv *invoice.Invoice) {
	emit(ctx, r, "OnInvoiceCreated", snapshot(r, &r.onInvoiceCreated), func(p OnInvoiceCreated) error { return p.OnInvoiceCreated(ctx, inv) })
}

func (r *Registry) EmitDocumentConverted(ctx context.Context, c Conversion) {
	emit(ctx, r, "OnDocumentConverted", snapshot(r, &r.onDocumentConverted), func(p OnDocumentConverted) error { return p.OnDocumentConverted(ctx, c) })
}

func (r *Registry) EmitStateChanged(ctx context.Context, c StateChange) {
	emit(ctx, r, "OnStateChanged", snapshot(r, &r.onStateChanged), func(p OnStateChanged) error { return p.OnStateChanged(ctx, c) })
}

func (r *Registry) EmitSnapshotLocked(ctx context.Context, o *offer.Offer) {
	emit(ctx, r, "OnSnapshotLocked", snapshot(r, &r.onSnapshotLocked), func(p OnSnapshotLocked) error { return p.OnSnapshotLocked(ctx, o) })
}

func (r *Registry) EmitSnapshotUnlocked(ctx context.Context, o *offer.Offer) {
	emit(ctx, r, "OnSnapshotUnlocked", snapshot(r, &r.onSnapshotUnlocked), func(p OnSnapshotUnlocked) error { return p.OnSnapshotUnlocked(ctx, o) })
}

func (r *Registry) EmitPaymentRegistered(ctx context.Context, inv *invoice.Invoice, pay *payment.Payment) {
	emit(ctx, r, "OnPaymentRegistered", snapshot(r, &r.onPaymentRegistered), func(p OnPaymentRegistered) error { return p.OnPaymentRegistered(ctx, inv, pay) })
}

func (r *Registry) EmitInvoicePaid(ctx context.Context, inv *invoice.Invoice) {
	emit(ctx, r, "OnInvoicePaid", snapshot(r, &r.onInvoicePaid), func(p OnInvoicePaid) error { return p.OnInvoicePaid(ctx, inv) })
}

func (r *Registry) EmitInvoiceOverdue(ctx context.Context, inv *invoice.Invoice) {
	emit(ctx, r, "OnInvoiceOverdue", snapshot(r, &r.onInvoiceOverdue), func(p OnInvoiceOverdue) error { return p.OnInvoiceOverdue(ctx, inv) })
}

func (r *Registry) EmitLedgerExported(ctx context.Context, e Export) {
	emit(ctx, r, "OnLedgerExported", snapshot(r, &r.onLedgerExported), func(p OnLedgerExported) error { return p.OnLedgerExported(ctx, e) })
}

// snapshot copies a hook list under the read lock.
func snapshot[T any](r *Registry, list *[]T) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]T(nil), (*list)...)
}

func emit[T Plugin](ctx context.Context, r *Registry, hook string, plugins []T, call func(T) error) {
	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error { return call(p) }); err != nil {
			r.logger.Warn("plugin hook failed",
				"hook", hook,
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout runs fn, giving up after the registry timeout or when ctx
// ends. Plugins must never block the document pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
