package faktura

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/ledgerexport"
	"github.com/xraph/faktura/plugin"
)

// ExportInvoicesToLedgerCSV renders the given invoices of the context tenant
// as a ledger import batch. Unknown ids and drafts are skipped. If nothing
// can be exported ErrNoInvoices is returned.
func (e *Engine) ExportInvoicesToLedgerCSV(ctx context.Context, invoiceIDs []id.InvoiceID, opts ledgerexport.Options) ([]byte, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]ledgerexport.Entry, 0, len(invoiceIDs))
	for _, invID := range invoiceIDs {
		inv, err := e.store.GetInvoice(ctx, tenantID, invID)
		if IsNotFound(err) {
			e.logger.Warn("ledger export: invoice not found", "tenant_id", tenantID, "invoice_id", invID.String())
			continue
		}
		if err != nil {
			return nil, err
		}

		entry := ledgerexport.Entry{Invoice: inv}
		if opts.IncludePayments {
			if entry.Payments, err = e.store.ListPayments(ctx, tenantID, invID); err != nil {
				return nil, fmt.Errorf("faktura: list payments: %w", err)
			}
		}
		entries = append(entries, entry)
	}

	var buf bytes.Buffer
	written, skipped, err := ledgerexport.Write(&buf, entries, opts)
	if err != nil {
		return nil, fmt.Errorf("faktura: ledger export: %w", err)
	}
	skipped += len(invoiceIDs) - len(entries)
	if written == 0 {
		return nil, ErrNoInvoices
	}

	e.plugins.EmitLedgerExported(ctx, plugin.Export{
		TenantID: tenantID,
		Invoices: written,
		Skipped:  skipped,
		Bytes:    buf.Len(),
	})
	e.logger.Info("ledger export created",
		"tenant_id", tenantID,
		"invoices", written,
		"skipped", skipped,
		"bytes", buf.Len(),
	)
	return buf.Bytes(), nil
}

// ExportTo renders an export and hands it to sink under the default file
// name. It returns the location reported by the sink.
func (e *Engine) ExportTo(ctx context.Context, invoiceIDs []id.InvoiceID, opts ledgerexport.Options, sink ledgerexport.Sink) (string, error) {
	data, err := e.ExportInvoicesToLedgerCSV(ctx, invoiceIDs, opts)
	if err != nil {
		return "", err
	}

	name := ledgerexport.FileName(TenantFrom(ctx), e.now().UTC().Format("20060102T150405"))
	loc, err := sink.Put(ctx, name, data)
	if err != nil {
		return "", fmt.Errorf("faktura: store ledger export: %w", err)
	}
	return loc, nil
}
