package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/xraph/faktura"
	audithook "github.com/xraph/faktura/audit_hook"
	"github.com/xraph/faktura/cmd/faktura/internal/config"
	"github.com/xraph/faktura/cmd/faktura/internal/logger"
	"github.com/xraph/faktura/costing"
	"github.com/xraph/faktura/numbering/redis"
	"github.com/xraph/faktura/observability"
	"github.com/xraph/faktura/store"
	"github.com/xraph/faktura/store/firestore"
	"github.com/xraph/faktura/store/memory"
	"github.com/xraph/faktura/store/mongo"
	"github.com/xraph/faktura/store/postgres"
	"github.com/xraph/faktura/store/sqlite"
)

// app is the wired engine plus everything that must be closed with it.
type app struct {
	engine  *faktura.Engine
	log     zerolog.Logger
	closers []func() error
}

// newApp opens the configured store and counter, builds the engine and
// starts it, which runs the store migrations.
func newApp(ctx context.Context, c *config.Config, reg prometheus.Registerer) (*app, error) {
	a := &app{log: logger.WithComponent("app")}
	engineLog := logger.NewSlog(logger.WithComponent("engine"))

	s, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}

	opts := []faktura.Option{
		faktura.WithLogger(engineLog),
		faktura.WithDefaultCurrency(c.DefaultCurrency),
		faktura.WithDefaultLocale(c.DefaultLocale),
		faktura.WithPaymentTermDays(c.PaymentTermDays),
		faktura.WithSweepConcurrency(c.SweepConcurrency),
		faktura.WithCosting(costing.NewEngine(s,
			costing.WithOverheadPct(decimal.NewFromFloat(c.OverheadPct)),
			costing.WithLogger(engineLog),
		)),
		faktura.WithPlugin(audithook.New(auditRecorder(logger.WithComponent("audit")),
			audithook.WithLogger(engineLog))),
	}
	if reg != nil {
		opts = append(opts, faktura.WithPlugin(
			observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))))
	}

	if c.RedisAddr != "" {
		counter, err := redis.Connect(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
		if err != nil {
			_ = s.Close() //nolint:errcheck // best-effort cleanup on failed startup
			return nil, err
		}
		a.closers = append(a.closers, counter.Close)
		opts = append(opts, faktura.WithCounter(counter))
		a.log.Info().Str("addr", c.RedisAddr).Msg("numbering via redis")
	}

	a.engine = faktura.New(s, opts...)
	if err := a.engine.Start(ctx); err != nil {
		_ = a.Close() //nolint:errcheck // best-effort cleanup on failed startup
		return nil, err
	}
	return a, nil
}

// Close stops the engine, which closes the store, and then the counter.
func (a *app) Close() error {
	var errs []error
	if a.engine != nil {
		errs = append(errs, a.engine.Stop())
	}
	for _, closeFn := range a.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}

func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	switch c.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, c.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, c.DSN, c.PoolSize)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	case config.DriverMongo:
		s, err := mongo.Open(ctx, c.DSN, c.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("open mongo store: %w", err)
		}
		return s, nil
	case config.DriverFirestore:
		s, err := firestore.Open(ctx, c.FirestoreProject)
		if err != nil {
			return nil, fmt.Errorf("open firestore store: %w", err)
		}
		return s, nil
	default:
		return memory.New(), nil
	}
}

// auditRecorder writes audit events as structured log lines.
func auditRecorder(l zerolog.Logger) audithook.RecorderFunc {
	return func(_ context.Context, e *audithook.AuditEvent) error {
		l.Info().
			Str("action", e.Action).
			Str("resource", e.Resource).
			Str("resource_id", e.ResourceID).
			Str("tenant_id", e.TenantID).
			Str("outcome", e.Outcome).
			Str("severity", e.Severity).
			Fields(e.Metadata).
			Msg("audit")
		return nil
	}
}
