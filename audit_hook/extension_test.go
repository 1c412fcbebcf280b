package audithook_test

import (
	"context"
	"errors"
	"testing"

	audithook "github.com/xraph/faktura/audit_hook"
	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/plugin"
	"github.com/xraph/faktura/types"
)

func collect() (*[]*audithook.AuditEvent, audithook.RecorderFunc) {
	var events []*audithook.AuditEvent
	return &events, func(_ context.Context, e *audithook.AuditEvent) error {
		events = append(events, e)
		return nil
	}
}

func TestExtensionRecords(t *testing.T) {
	events, rec := collect()
	ext := audithook.New(rec)
	ctx := context.Background()

	inv := &invoice.Invoice{ID: id.NewInvoiceID()}
	inv.TenantID = "acme"
	inv.Number = "2026-0004"
	inv.OpenAmount = types.EUR(5000)

	_ = ext.OnInvoiceOverdue(ctx, inv)
	_ = ext.OnStateChanged(ctx, plugin.StateChange{TenantID: "acme", DocType: document.TypeOrder, DocID: id.NewOrderID(), From: "open", To: "done"})
	_ = ext.OnLedgerExported(ctx, plugin.Export{TenantID: "acme", Invoices: 3, Skipped: 1})

	if len(*events) != 3 {
		t.Fatalf("got %d events, want 3", len(*events))
	}

	overdue := (*events)[0]
	if overdue.Action != audithook.ActionInvoiceOverdue || overdue.Severity != audithook.SeverityWarning {
		t.Errorf("overdue: %+v", overdue)
	}
	if overdue.TenantID != "acme" || overdue.ResourceID != inv.ID.String() {
		t.Errorf("overdue ids: %+v", overdue)
	}
	if overdue.Metadata["open_amount"] != "€50.00" {
		t.Errorf("open_amount: %v", overdue.Metadata["open_amount"])
	}

	if got := (*events)[1]; got.Resource != audithook.ResourceOrder || got.Metadata["to"] != "done" {
		t.Errorf("state change: %+v", got)
	}
	if got := (*events)[2]; got.Outcome != audithook.OutcomePartial {
		t.Errorf("export outcome: %s", got.Outcome)
	}
}

func TestExtensionFilters(t *testing.T) {
	events, rec := collect()
	ext := audithook.New(rec, audithook.WithDisabledActions(audithook.ActionStateChanged))

	_ = ext.OnStateChanged(context.Background(), plugin.StateChange{DocType: document.TypeOffer})
	_ = ext.OnLedgerExported(context.Background(), plugin.Export{})
	if len(*events) != 1 || (*events)[0].Action != audithook.ActionLedgerExported {
		t.Errorf("got %d events", len(*events))
	}

	events, rec = collect()
	ext = audithook.New(rec, audithook.WithEnabledActions(audithook.ActionInvoicePaid))
	_ = ext.OnLedgerExported(context.Background(), plugin.Export{})
	if len(*events) != 0 {
		t.Errorf("disabled action recorded")
	}

	events, rec = collect()
	ext = audithook.New(rec, audithook.WithCategories(audithook.CategoryAccounting))
	_ = ext.OnStateChanged(context.Background(), plugin.StateChange{DocType: document.TypeInvoice})
	_ = ext.OnLedgerExported(context.Background(), plugin.Export{})
	if len(*events) != 1 || (*events)[0].Category != audithook.CategoryAccounting {
		t.Errorf("category filter: got %d events", len(*events))
	}
}

func TestExtensionSwallowsRecorderErrors(t *testing.T) {
	ext := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	}))
	if err := ext.OnLedgerExported(context.Background(), plugin.Export{}); err != nil {
		t.Errorf("got %v, want nil", err)
	}
}
