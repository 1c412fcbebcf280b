package ledgerexport_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/ledgerexport"
	"github.com/xraph/faktura/payment"
	"github.com/xraph/faktura/types"
)

func testInvoice(number, name string, state invoice.Invoice) *invoice.Invoice {
	inv := state
	inv.ID = id.NewInvoiceID()
	inv.Number = number
	inv.Client = document.ClientSnapshot{Name: name}
	inv.IssueDate = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	inv.Totals.GrandTotalGross = types.EUR(21420)
	return &inv
}

func TestWrite(t *testing.T) {
	sent := testInvoice("2026-0001", `Müller "Bau" GmbH`, invoice.Invoice{State: invoice.StateSent})
	draft := testInvoice("2026-0002", "Draft AG", invoice.Invoice{State: invoice.StateDraft})
	paid := testInvoice("2026-0003", "Paid KG", invoice.Invoice{State: invoice.StatePaid})
	paid.Totals.GrandTotalGross = types.EUR(19040)

	var b strings.Builder
	written, skipped, err := ledgerexport.Write(&b, []ledgerexport.Entry{
		{Invoice: sent},
		{Invoice: draft},
		{Invoice: nil},
		{Invoice: paid},
	}, ledgerexport.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if written != 2 || skipped != 2 {
		t.Errorf("written=%d skipped=%d, want 2/2", written, skipped)
	}

	want := `"EXTF";"510";"21";"Buchungsstapel";"1"` + "\n" +
		`"2026-0001";"INVOICE 2026-0001";"10000";"8400";"214.20";"20260314";"Müller Bau GmbH"` + "\n" +
		`"2026-0003";"INVOICE 2026-0003";"10000";"8400";"190.40";"20260314";"Paid KG"` + "\n"
	if b.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", b.String(), want)
	}
}

func TestWriteOptions(t *testing.T) {
	inv := testInvoice("2026-0007", "Kunde", invoice.Invoice{State: invoice.StatePaid})
	inv.LineItems = []document.LineItem{{TaxKey: "V7"}, {TaxKey: "V7"}}
	pay := &payment.Payment{Amount: types.EUR(10000), Date: time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)}

	var b strings.Builder
	_, _, err := ledgerexport.Write(&b, []ledgerexport.Entry{{Invoice: inv, Payments: []*payment.Payment{pay}}}, ledgerexport.Options{
		DebtorAccount:   "10100",
		AccountMapping:  map[string]string{"V7": "8300"},
		IncludePayments: true,
		ColumnHeader:    true,
	})
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), b.String())
	}
	if !strings.HasPrefix(lines[1], `"Belegfeld1";`) {
		t.Errorf("column header: got %s", lines[1])
	}
	if lines[2] != `"2026-0007";"INVOICE 2026-0007";"10100";"8300";"214.20";"20260314";"Kunde"` {
		t.Errorf("invoice record: got %s", lines[2])
	}
	if lines[3] != `"2026-0007";"PAYMENT 2026-0007";"1200";"10100";"100.00";"20260320";"Kunde"` {
		t.Errorf("payment record: got %s", lines[3])
	}
}

func TestWriteContraOverrideAndMixedKeys(t *testing.T) {
	inv := testInvoice("2026-0008", "Kunde", invoice.Invoice{State: invoice.StateSent})
	inv.LineItems = []document.LineItem{{TaxKey: "V7"}, {TaxKey: "V19"}}

	var b strings.Builder
	_, _, err := ledgerexport.Write(&b, []ledgerexport.Entry{{Invoice: inv}}, ledgerexport.Options{
		ContraAccount:  "8401",
		AccountMapping: map[string]string{"V7": "8300"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), `"10000";"8401";`) {
		t.Errorf("mixed tax keys must use the contra account:\n%s", b.String())
	}
}

func TestWriteAmountsHaveTwoDecimals(t *testing.T) {
	tests := []struct {
		name  string
		gross types.Money
		want  string
	}{
		{"eur", types.EUR(21420), `"214.20"`},
		{"eur whole", types.EUR(5000), `"50.00"`},
		{"jpy", types.JPY(100), `"100.00"`},
		{"negative", types.EUR(-285), `"-2.85"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := testInvoice("2026-0009", "Kunde", invoice.Invoice{State: invoice.StateSent})
			inv.Totals.GrandTotalGross = tt.gross

			var b strings.Builder
			if _, _, err := ledgerexport.Write(&b, []ledgerexport.Entry{{Invoice: inv}}, ledgerexport.Options{}); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(b.String(), ";"+tt.want+";") {
				t.Errorf("got:\n%s\nwant amount %s", b.String(), tt.want)
			}
		})
	}
}

func TestDirSink(t *testing.T) {
	dir := t.TempDir()
	loc, err := ledgerexport.DirSink{Dir: dir}.Put(context.Background(), ledgerexport.FileName("acme", "20260314"), []byte("x\n"))
	if err != nil {
		t.Fatal(err)
	}
	if loc != filepath.Join(dir, "EXTF_Buchungsstapel_acme_20260314.csv") {
		t.Errorf("got %q", loc)
	}
	data, err := os.ReadFile(loc)
	if err != nil || string(data) != "x\n" {
		t.Errorf("read back %q, %v", data, err)
	}
}
