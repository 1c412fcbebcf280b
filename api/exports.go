package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xraph/faktura/ledgerexport"
)

// exportLedger answers with the ledger batch as a CSV attachment.
func (s *Server) exportLedger(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid export", err)
		return
	}

	data, err := s.engine.ExportInvoicesToLedgerCSV(c.Request.Context(), req.InvoiceIDs, req.options())
	if err != nil {
		s.fail(c, err)
		return
	}

	name := ledgerexport.FileName(c.GetString(tenantKey), time.Now().UTC().Format("20060102T150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
