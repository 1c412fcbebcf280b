package extension

import "time"

// Config holds the faktura extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.faktura" or "faktura" keys).
type Config struct {
	// DisableRoutes skips building and providing the HTTP API handler.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for faktura routes (default: "/faktura").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// PaymentTermDays sets the invoice due date when none is given
	// (default: 14).
	PaymentTermDays int `json:"payment_term_days" mapstructure:"payment_term_days" yaml:"payment_term_days"`

	// DefaultCurrency and DefaultLocale apply to documents created without
	// them (defaults: "eur", "de").
	DefaultCurrency string `json:"default_currency" mapstructure:"default_currency" yaml:"default_currency"`
	DefaultLocale   string `json:"default_locale" mapstructure:"default_locale" yaml:"default_locale"`

	// OverheadPct is the costing overhead on direct cost (default: 10).
	OverheadPct float64 `json:"overhead_pct" mapstructure:"overhead_pct" yaml:"overhead_pct"`

	// SweepInterval runs the overdue sweep for SweepTenants on a ticker.
	// Zero disables the background sweep.
	SweepInterval time.Duration `json:"sweep_interval" mapstructure:"sweep_interval" yaml:"sweep_interval"`
	SweepTenants  []string      `json:"sweep_tenants" mapstructure:"sweep_tenants" yaml:"sweep_tenants"`

	// SweepConcurrency bounds parallel invoice updates per sweep (default: 8).
	SweepConcurrency int `json:"sweep_concurrency" mapstructure:"sweep_concurrency" yaml:"sweep_concurrency"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:         "/faktura",
		PaymentTermDays:  14,
		DefaultCurrency:  "eur",
		DefaultLocale:    "de",
		OverheadPct:      10,
		SweepConcurrency: 8,
	}
}
