// Package api exposes the faktura engine as a JSON HTTP API built on gin.
//
// Every document route is tenant scoped: the tenant comes from the
// X-Tenant-ID header and the acting user, if any, from X-User-ID.
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xraph/faktura"
)

// Server serves the faktura HTTP API.
type Server struct {
	engine   *faktura.Engine
	logger   *slog.Logger
	basePath string
	router   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithBasePath mounts every route below path, e.g. "/faktura".
func WithBasePath(path string) Option {
	return func(s *Server) { s.basePath = "/" + strings.Trim(path, "/") }
}

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New builds a Server around engine.
func New(engine *faktura.Engine, opts ...Option) *Server {
	s := &Server{
		engine:   engine,
		logger:   slog.Default(),
		basePath: "/",
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	s.Register(r.Group(s.basePath))
	s.router = r
	return s
}

// Handler returns the http.Handler serving every route.
func (s *Server) Handler() http.Handler { return s.router }

// Register adds the API routes to rg. Use it to mount the API on an
// existing gin engine instead of Handler.
func (s *Server) Register(rg *gin.RouterGroup) {
	rg.GET("/health", s.health)

	scoped := rg.Group("")
	scoped.Use(TenantMiddleware())

	offers := scoped.Group("/offers")
	{
		offers.POST("", s.createOffer)
		offers.GET("", s.listOffers)
		offers.GET("/:id", s.getOffer)
		offers.PATCH("/:id", s.updateOffer)
		offers.POST("/:id/state", s.setOfferState)
		offers.POST("/:id/send", s.sendOffer)
		offers.POST("/:id/accept", s.acceptOffer)
		offers.POST("/:id/lock", s.lockOffer)
		offers.POST("/:id/unlock", s.unlockOffer)
		offers.POST("/:id/recalculate", s.recalculateOffer)
		offers.POST("/:id/convert", s.convertOffer)
	}

	orders := scoped.Group("/orders")
	{
		orders.POST("", s.createOrder)
		orders.GET("", s.listOrders)
		orders.GET("/:id", s.getOrder)
		orders.PATCH("/:id", s.updateOrder)
		orders.POST("/:id/state", s.setOrderState)
		orders.POST("/:id/convert", s.convertOrder)
	}

	invoices := scoped.Group("/invoices")
	{
		invoices.POST("", s.createInvoice)
		invoices.GET("", s.listInvoices)
		invoices.POST("/sweep-overdue", s.sweepOverdue)
		invoices.GET("/:id", s.getInvoice)
		invoices.PATCH("/:id", s.updateInvoice)
		invoices.POST("/:id/state", s.setInvoiceState)
		invoices.POST("/:id/send", s.sendInvoice)
		invoices.POST("/:id/payments", s.registerPayment)
		invoices.GET("/:id/payments", s.listPayments)
		invoices.POST("/:id/refresh", s.refreshInvoice)
	}

	rates := scoped.Group("/rates")
	{
		rates.PUT("/materials", s.saveMaterial)
		rates.GET("/materials/:id", s.getMaterial)
		rates.PUT("/personnel", s.savePersonnel)
		rates.GET("/personnel/:id", s.getPersonnel)
	}

	scoped.POST("/exports/ledger", s.exportLedger)
}

func (s *Server) health(c *gin.Context) {
	if err := s.engine.Store().Ping(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestLogger logs one line per request after it was served.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"tenant_id", c.GetString(tenantKey),
			"duration", time.Since(start),
		)
	}
}
