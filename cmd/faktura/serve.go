package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/xraph/faktura/api"
	"github.com/xraph/faktura/cmd/faktura/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the faktura HTTP API",
	Long: `Serves the JSON API on FAKTURA_HTTP_ADDR and Prometheus metrics on
/metrics. With --sweep-interval the overdue sweep also runs periodically for
the tenants given by --sweep-tenant.`,
	Example: `  faktura serve --addr :9000
  faktura serve --sweep-interval 1h --sweep-tenant acme`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address, overrides FAKTURA_HTTP_ADDR")
	serveCmd.Flags().Duration("sweep-interval", 0, "run the overdue sweep this often (0 disables it)")
	serveCmd.Flags().StringSlice("sweep-tenant", nil, "tenant swept by the periodic sweep (repeatable)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logger.WithComponent("serve")
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.HTTPAddr
	}
	interval, _ := cmd.Flags().GetDuration("sweep-interval")
	tenants, _ := cmd.Flags().GetStringSlice("sweep-tenant")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	a, err := newApp(ctx, cfg, reg)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // logged by the engine

	if cfg.LogLevel != "debug" && cfg.LogLevel != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.New(a.engine,
		api.WithBasePath(cfg.BasePath),
		api.WithLogger(logger.NewSlog(logger.WithComponent("http"))),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/", server.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if interval > 0 && len(tenants) > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			sweepLog := logger.WithComponent("sweep")
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					_, _ = sweepTenants(ctx, a.engine, tenants, sweepLog) //nolint:errcheck // failures are logged per tenant
				}
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("driver", cfg.Driver).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
