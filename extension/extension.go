// Package extension provides the Forge extension adapter for faktura.
//
// It implements the forge.Extension interface to integrate the document
// engine into a Forge application with DI registration, lifecycle
// management and an optional background overdue sweep.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.faktura" or "faktura" keys.
package extension

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/faktura"
	"github.com/xraph/faktura/api"
	"github.com/xraph/faktura/costing"
	"github.com/xraph/faktura/store"
	"github.com/xraph/faktura/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "faktura"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Offer, order and invoice lifecycle with costing and ledger export"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts faktura as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *faktura.Engine
	server     *api.Server
	store      store.Store
	engineOpts []faktura.Option

	cancelSweep context.CancelFunc
	sweepDone   sync.WaitGroup
}

// New creates a new faktura Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *faktura.Engine { return e.engine }

// Server returns the HTTP API, or nil when routes are disabled.
func (e *Extension) Server() *api.Server { return e.server }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	e.engine = faktura.New(e.store, e.buildEngineOpts()...)

	if err := vessel.Provide(fapp.Container(), func() (*faktura.Engine, error) {
		return e.engine, nil
	}); err != nil {
		return err
	}

	if e.config.DisableRoutes {
		return nil
	}
	e.server = api.New(e.engine, api.WithBasePath(e.config.BasePath))
	return vessel.Provide(fapp.Container(), func() (*api.Server, error) {
		return e.server, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("faktura: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	if e.config.SweepInterval > 0 && len(e.config.SweepTenants) > 0 {
		sweepCtx, cancel := context.WithCancel(context.Background())
		e.cancelSweep = cancel
		e.sweepDone.Add(1)
		go e.sweepLoop(sweepCtx)
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.cancelSweep != nil {
		e.cancelSweep()
		e.sweepDone.Wait()
	}
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("faktura: store not initialized")
	}
	return e.store.Ping(ctx)
}

// sweepLoop marks overdue invoices of every configured tenant each tick.
func (e *Extension) sweepLoop(ctx context.Context) {
	defer e.sweepDone.Done()

	ticker := time.NewTicker(e.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweepOnce(ctx)
		}
	}
}

func (e *Extension) sweepOnce(ctx context.Context) {
	for _, tenant := range e.config.SweepTenants {
		res, err := e.engine.RefreshOverdueStatuses(faktura.WithTenant(ctx, tenant))
		if err != nil {
			e.Logger().Warn("faktura: overdue sweep failed",
				forge.F("tenant", tenant),
				forge.F("error", err.Error()),
			)
			continue
		}
		if len(res.Transitioned) > 0 {
			e.Logger().Info("faktura: invoices marked overdue",
				forge.F("tenant", tenant),
				forge.F("count", len(res.Transitioned)),
			)
		}
	}
}

// buildEngineOpts constructs faktura.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []faktura.Option {
	opts := make([]faktura.Option, 0, len(e.engineOpts)+5)

	opts = append(opts,
		faktura.WithPaymentTermDays(e.config.PaymentTermDays),
		faktura.WithDefaultCurrency(e.config.DefaultCurrency),
		faktura.WithDefaultLocale(e.config.DefaultLocale),
		faktura.WithSweepConcurrency(e.config.SweepConcurrency),
		faktura.WithCosting(costing.NewEngine(e.store,
			costing.WithOverheadPct(decimal.NewFromFloat(e.config.OverheadPct)),
		)),
	)

	// Pass-through options come last so they win.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("faktura: configuration is required but not found in config files; " +
				"ensure 'extensions.faktura' or 'faktura' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("faktura: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("payment_term_days", e.config.PaymentTermDays),
		forge.F("overhead_pct", e.config.OverheadPct),
		forge.F("sweep_interval", e.config.SweepInterval),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.faktura", "faktura"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("faktura: loaded config from file", forge.F("key", key))
			return cfg, true
		}
		e.Logger().Warn("faktura: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.PaymentTermDays == 0 {
		cfg.PaymentTermDays = defaults.PaymentTermDays
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = defaults.DefaultCurrency
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = defaults.DefaultLocale
	}
	if cfg.OverheadPct == 0 {
		cfg.OverheadPct = defaults.OverheadPct
	}
	if cfg.SweepConcurrency == 0 {
		cfg.SweepConcurrency = defaults.SweepConcurrency
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	if yamlConfig.BasePath == "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.PaymentTermDays == 0 {
		yamlConfig.PaymentTermDays = programmaticConfig.PaymentTermDays
	}
	if yamlConfig.DefaultCurrency == "" {
		yamlConfig.DefaultCurrency = programmaticConfig.DefaultCurrency
	}
	if yamlConfig.DefaultLocale == "" {
		yamlConfig.DefaultLocale = programmaticConfig.DefaultLocale
	}
	if yamlConfig.OverheadPct == 0 {
		yamlConfig.OverheadPct = programmaticConfig.OverheadPct
	}
	if yamlConfig.SweepInterval == 0 {
		yamlConfig.SweepInterval = programmaticConfig.SweepInterval
	}
	if len(yamlConfig.SweepTenants) == 0 {
		yamlConfig.SweepTenants = programmaticConfig.SweepTenants
	}
	if yamlConfig.SweepConcurrency == 0 {
		yamlConfig.SweepConcurrency = programmaticConfig.SweepConcurrency
	}

	return mergeWithDefaults(yamlConfig)
}
