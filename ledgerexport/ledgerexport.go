// Package ledgerexport renders finalized invoices as an accounting import
// batch: a DATEV-style "EXTF" Buchungsstapel with semicolon-delimited,
// double-quoted fields and one record per line.
//
// Amounts are taken as-is from the invoice totals; no rounding happens here.
package ledgerexport

import (
	"io"
	"strings"
	"time"

	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/payment"
	"github.com/xraph/faktura/types"
)

const (
	DefaultContraAccount = "8400"  // revenue account (SKR03)
	DefaultDebtorAccount = "10000" // collective debtor account
	DefaultBankAccount   = "1200"  // bank account for payment records
)

// header is the fixed batch header record.
var header = []string{"EXTF", "510", "21", "Buchungsstapel", "1"}

// columns names the data record fields, written only when requested.
var columns = []string{"Belegfeld1", "Buchungstext", "Konto", "Gegenkonto", "Umsatz", "Belegdatum", "Name"}

// Options controls the accounts and extra records of an export.
type Options struct {
	// ContraAccount overrides the revenue account (default 8400).
	ContraAccount string
	// DebtorAccount overrides the debtor account (default 10000).
	DebtorAccount string
	// BankAccount is the account payments are booked to (default 1200).
	BankAccount string
	// AccountMapping maps a tax key to a revenue account. It applies to
	// invoices whose lines all use one tax key.
	AccountMapping map[string]string
	// IncludePayments adds one record per payment after its invoice.
	IncludePayments bool
	// ColumnHeader writes a field-name record after the batch header.
	ColumnHeader bool
}

func (o Options) withDefaults() Options {
	if o.ContraAccount == "" {
		o.ContraAccount = DefaultContraAccount
	}
	if o.DebtorAccount == "" {
		o.DebtorAccount = DefaultDebtorAccount
	}
	if o.BankAccount == "" {
		o.BankAccount = DefaultBankAccount
	}
	return o
}

// Entry is one invoice to export with its payments, if any.
type Entry struct {
	Invoice  *invoice.Invoice
	Payments []*payment.Payment
}

// Write renders entries to w. Draft invoices are skipped; the count of
// written and skipped invoices is returned.
func Write(w io.Writer, entries []Entry, opts Options) (written, skipped int, err error) {
	opts = opts.withDefaults()

	var b strings.Builder
	writeRecord(&b, header)
	if opts.ColumnHeader {
		writeRecord(&b, columns)
	}

	for _, e := range entries {
		inv := e.Invoice
		if inv == nil || !inv.Finalized() {
			skipped++
			continue
		}

		ref := inv.Number
		if ref == "" {
			ref = inv.ID.String()
		}
		name := inv.Client.Name
		if name == "" {
			name = inv.Client.ClientID.String()
		}

		writeRecord(&b, []string{
			ref,
			strings.ToUpper(string(document.TypeInvoice)) + " " + ref,
			opts.DebtorAccount,
			contraFor(inv, opts),
			amount(inv.Totals.GrandTotalGross),
			bookingDate(inv.IssueDate),
			name,
		})

		if opts.IncludePayments {
			for _, p := range e.Payments {
				writeRecord(&b, []string{
					ref,
					"PAYMENT " + ref,
					opts.BankAccount,
					opts.DebtorAccount,
					amount(p.Amount),
					bookingDate(p.Date),
					name,
				})
			}
		}
		written++
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return written, skipped, err
	}
	return written, skipped, nil
}

// contraFor picks the mapped revenue account when every line shares one
// mapped tax key, else the configured contra account.
func contraFor(inv *invoice.Invoice, opts Options) string {
	if len(opts.AccountMapping) == 0 || len(inv.LineItems) == 0 {
		return opts.ContraAccount
	}
	key := inv.LineItems[0].TaxKey
	for _, li := range inv.LineItems[1:] {
		if li.TaxKey != key {
			return opts.ContraAccount
		}
	}
	if acct, ok := opts.AccountMapping[key]; ok && acct != "" {
		return acct
	}
	return opts.ContraAccount
}

// amount renders m with a dot and always two decimals, whatever the
// currency's minor unit.
func amount(m types.Money) string {
	return m.Decimal().StringFixed(2)
}

func bookingDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("20060102")
}

// writeRecord writes fields quoted and joined by ';'. Quotes and line
// breaks inside a field are dropped so every record stays on one line.
func writeRecord(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteByte('"')
		b.WriteString(sanitize.Replace(f))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}

var sanitize = strings.NewReplacer(`"`, "", "\r", " ", "\n", " ")
