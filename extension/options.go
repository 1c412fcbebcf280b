package extension

import (
	"time"

	"github.com/xraph/faktura"
	"github.com/xraph/faktura/plugin"
	"github.com/xraph/faktura/store"
)

// Option configures the faktura Forge extension.
type Option func(*Extension)

// WithStore sets the store for the faktura engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a faktura.Option through to the underlying engine.
func WithEngineOption(opt faktura.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a faktura plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, faktura.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes skips the HTTP API handler.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for faktura routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithPaymentTermDays sets the default payment term for new invoices.
func WithPaymentTermDays(days int) Option {
	return func(e *Extension) { e.config.PaymentTermDays = days }
}

// WithOverheadPct sets the costing overhead percentage.
func WithOverheadPct(pct float64) Option {
	return func(e *Extension) { e.config.OverheadPct = pct }
}

// WithOverdueSweep runs the overdue sweep for tenants every interval
// while the extension is started.
func WithOverdueSweep(interval time.Duration, tenants ...string) Option {
	return func(e *Extension) {
		e.config.SweepInterval = interval
		e.config.SweepTenants = tenants
	}
}
