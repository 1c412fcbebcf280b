package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xraph/faktura"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/order"
)

func (s *Server) createOrder(c *gin.Context) {
	var req DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid order", err)
		return
	}
	o, err := s.engine.CreateOrder(c.Request.Context(), req.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (s *Server) listOrders(c *gin.Context) {
	limit, offset, err := paging(c)
	if err != nil {
		badRequest(c, "invalid query", err)
		return
	}
	list, err := s.engine.ListOrders(c.Request.Context(), order.ListOpts{
		State:  faktura.State(c.Query("state")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getOrder(c *gin.Context) {
	orderID, ok := pathID(c, id.ParseOrderID)
	if !ok {
		return
	}
	o, err := s.engine.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) updateOrder(c *gin.Context) {
	orderID, ok := pathID(c, id.ParseOrderID)
	if !ok {
		return
	}
	var req PatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid order patch", err)
		return
	}
	o, err := s.engine.UpdateOrder(c.Request.Context(), orderID, req.patch())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) setOrderState(c *gin.Context) {
	orderID, ok := pathID(c, id.ParseOrderID)
	if !ok {
		return
	}
	var req StateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid state", err)
		return
	}
	o, err := s.engine.SetOrderState(c.Request.Context(), orderID, req.State)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// convertOrder creates an invoice from an order. The body is optional and
// may set the due date.
func (s *Server) convertOrder(c *gin.Context) {
	orderID, ok := pathID(c, id.ParseOrderID)
	if !ok {
		return
	}
	var req ConvertRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid conversion", err)
			return
		}
	}

	var due time.Time
	if req.DueDate != nil {
		due = *req.DueDate
	}
	inv, err := s.engine.ConvertOrderToInvoice(c.Request.Context(), orderID, due)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}
