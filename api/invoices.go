package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xraph/faktura"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/invoice"
)

func (s *Server) createInvoice(c *gin.Context) {
	var req InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid invoice", err)
		return
	}
	inv, err := s.engine.CreateInvoice(c.Request.Context(), req.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// listInvoices accepts state=sent,overdue and due_before=YYYY-MM-DD filters.
func (s *Server) listInvoices(c *gin.Context) {
	limit, offset, err := paging(c)
	if err != nil {
		badRequest(c, "invalid query", err)
		return
	}
	opts := invoice.ListOpts{
		States: states(c.Query("state")),
		Limit:  limit,
		Offset: offset,
	}
	if raw := c.Query("due_before"); raw != "" {
		if opts.DueBefore, err = time.Parse(time.DateOnly, raw); err != nil {
			badRequest(c, "invalid query", err)
			return
		}
	}

	list, err := s.engine.ListInvoices(c.Request.Context(), opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getInvoice(c *gin.Context) {
	invoiceID, ok := pathID(c, id.ParseInvoiceID)
	if !ok {
		return
	}
	inv, err := s.engine.GetInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) updateInvoice(c *gin.Context) {
	invoiceID, ok := pathID(c, id.ParseInvoiceID)
	if !ok {
		return
	}
	var req InvoicePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid invoice patch", err)
		return
	}
	inv, err := s.engine.UpdateInvoice(c.Request.Context(), invoiceID, faktura.InvoicePatch{
		DocumentPatch: req.patch(),
		DueDate:       req.DueDate,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) setInvoiceState(c *gin.Context) {
	invoiceID, ok := pathID(c, id.ParseInvoiceID)
	if !ok {
		return
	}
	var req StateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid state", err)
		return
	}
	inv, err := s.engine.SetInvoiceState(c.Request.Context(), invoiceID, req.State)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) sendInvoice(c *gin.Context) {
	invoiceID, ok := pathID(c, id.ParseInvoiceID)
	if !ok {
		return
	}
	inv, err := s.engine.SendInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) refreshInvoice(c *gin.Context) {
	invoiceID, ok := pathID(c, id.ParseInvoiceID)
	if !ok {
		return
	}
	inv, err := s.engine.RefreshInvoicePaymentState(c.Request.Context(), invoiceID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// ──────────────────────────────────────────────────
// Payments
// ──────────────────────────────────────────────────

func (s *Server) registerPayment(c *gin.Context) {
	invoiceID, ok := pathID(c, id.ParseInvoiceID)
	if !ok {
		return
	}
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payment", err)
		return
	}

	p, inv, err := s.engine.RegisterPayment(c.Request.Context(), invoiceID, req.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, PaymentResponse{Payment: p, Invoice: inv})
}

func (s *Server) listPayments(c *gin.Context) {
	invoiceID, ok := pathID(c, id.ParseInvoiceID)
	if !ok {
		return
	}
	list, err := s.engine.ListPayments(c.Request.Context(), invoiceID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// sweepOverdue runs the overdue sweep for the request tenant. Failures on
// single invoices are reported next to the result rather than failing the
// whole request.
func (s *Server) sweepOverdue(c *gin.Context) {
	res, err := s.engine.RefreshOverdueStatuses(c.Request.Context())
	var multi faktura.MultiError
	if err != nil && !errors.As(err, &multi) {
		s.fail(c, err)
		return
	}

	resp := SweepResponse{
		Checked:      res.Checked,
		Transitioned: make([]string, 0, len(res.Transitioned)),
		Skipped:      res.Skipped,
	}
	for _, invID := range res.Transitioned {
		resp.Transitioned = append(resp.Transitioned, invID.String())
	}
	if err != nil {
		resp.Errors = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
