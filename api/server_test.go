package api_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/faktura"
	"github.com/xraph/faktura/api"
	"github.com/xraph/faktura/id"
	"github.com/xraph/faktura/invoice"
	"github.com/xraph/faktura/offer"
	"github.com/xraph/faktura/order"
	"github.com/xraph/faktura/payment"
	"github.com/xraph/faktura/rate"
	"github.com/xraph/faktura/store/memory"
	"github.com/xraph/faktura/types"
)

var today = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

const documentBody = `{
	"client": {"name": "Müller Bau GmbH"},
	"line_items": [{
		"type": "material",
		"description": "Fliesen",
		"quantity": "2",
		"unit_price": "100",
		"discount_pct": "10",
		"tax_key": "V19"
	}],
	"tax_keys": [{"key": "V19", "rate_pct": "19"}]
}`

func setup(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e := faktura.New(memory.New(),
		faktura.WithClock(func() time.Time { return today }),
		faktura.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() { _ = e.Stop() })

	return api.New(e, api.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(api.HeaderTenant, "acme")
	req.Header.Set(api.HeaderActor, "u_anna")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestMissingTenant(t *testing.T) {
	h := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/offers", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[api.ErrorResponse](t, w)
	assert.Equal(t, "missing tenant", resp.Message)
}

func TestHealth(t *testing.T) {
	h := setup(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOfferToPaidInvoice(t *testing.T) {
	h := setup(t)

	w := do(t, h, http.MethodPost, "/offers", documentBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	o := decode[offer.Offer](t, w)
	assert.Equal(t, "2026-0001", o.Number)
	assert.Equal(t, types.EUR(21420), o.Totals.GrandTotalGross)
	assert.Equal(t, "u_anna", o.CreatedBy)

	w = do(t, h, http.MethodPost, "/offers/"+o.ID.String()+"/lock", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodPatch, "/offers/"+o.ID.String(), `{"additional_discount_abs": "5"}`)
	assert.Equal(t, http.StatusConflict, w.Code, "locked snapshot must refuse financial changes")

	w = do(t, h, http.MethodPatch, "/offers/"+o.ID.String(), `{"note_customer": "Danke"}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/offers/"+o.ID.String()+"/convert", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ord := decode[order.Order](t, w)
	assert.Equal(t, o.ID.String(), ord.RelatedOfferID.String())

	w = do(t, h, http.MethodPost, "/orders/"+ord.ID.String()+"/convert", `{"due_date": "2026-04-01T00:00:00Z"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inv := decode[invoice.Invoice](t, w)
	assert.Equal(t, invoice.StateDraft, inv.State)
	assert.Equal(t, o.ID.String(), inv.RelatedOfferID.String())
	assert.True(t, inv.DueDate.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))

	w = do(t, h, http.MethodPost, "/invoices/"+inv.ID.String()+"/send", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/invoices/"+inv.ID.String()+"/payments", `{"amount": "100", "method": "bank"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	paid := decode[api.PaymentResponse](t, w)
	assert.Equal(t, invoice.StateSent, paid.Invoice.State)
	assert.Equal(t, types.EUR(11420), paid.Invoice.OpenAmount)

	w = do(t, h, http.MethodPost, "/invoices/"+inv.ID.String()+"/payments", `{"amount": "114.20"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	paid = decode[api.PaymentResponse](t, w)
	assert.Equal(t, invoice.StatePaid, paid.Invoice.State)
	assert.True(t, paid.Invoice.OpenAmount.IsZero())

	w = do(t, h, http.MethodGet, "/invoices/"+inv.ID.String()+"/payments", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]payment.Payment](t, w), 2)

	w = do(t, h, http.MethodPost, "/exports/ledger",
		`{"invoice_ids": ["`+inv.ID.String()+`"], "include_payments": true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "EXTF_Buchungsstapel_acme_")
	lines := strings.Split(strings.TrimSuffix(w.Body.String(), "\n"), "\n")
	require.Len(t, lines, 4, "header, invoice and two payments")
	assert.Equal(t, `"EXTF";"510";"21";"Buchungsstapel";"1"`, lines[0])
	assert.Contains(t, lines[1], `"214.20"`)
}

func TestErrorMapping(t *testing.T) {
	h := setup(t)

	w := do(t, h, http.MethodPost, "/invoices", documentBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inv := decode[invoice.Invoice](t, w)

	w = do(t, h, http.MethodPost, "/offers", documentBody)
	require.Equal(t, http.StatusCreated, w.Code)
	o := decode[offer.Offer](t, w)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed id", http.MethodGet, "/invoices/nope", "", http.StatusBadRequest},
		{"wrong id kind", http.MethodGet, "/invoices/" + o.ID.String(), "", http.StatusBadRequest},
		{"unknown invoice", http.MethodGet, "/invoices/" + id.NewInvoiceID().String(), "", http.StatusNotFound},
		{"bad json", http.MethodPost, "/offers", "{", http.StatusBadRequest},
		{"missing state", http.MethodPost, "/offers/" + o.ID.String() + "/state", `{}`, http.StatusBadRequest},
		{"illegal transition", http.MethodPost, "/offers/" + o.ID.String() + "/state", `{"state": "accepted"}`, http.StatusConflict},
		{"unknown state", http.MethodPost, "/invoices/" + inv.ID.String() + "/state", `{"state": "bogus"}`, http.StatusConflict},
		{"zero payment", http.MethodPost, "/invoices/" + inv.ID.String() + "/payments", `{"amount": "0"}`, http.StatusUnprocessableEntity},
		{"unknown method", http.MethodPost, "/invoices/" + inv.ID.String() + "/payments", `{"amount": "1", "method": "gold"}`, http.StatusUnprocessableEntity},
		{"discount above 100", http.MethodPatch, "/invoices/" + inv.ID.String(), `{"line_items": [{"quantity": "1", "unit_price": "1", "discount_pct": "120"}]}`, http.StatusUnprocessableEntity},
		{"unlock when unlocked", http.MethodPost, "/offers/" + o.ID.String() + "/unlock", "", http.StatusOK},
		{"empty export", http.MethodPost, "/exports/ledger", `{"invoice_ids": []}`, http.StatusUnprocessableEntity},
		{"bad paging", http.MethodGet, "/invoices?limit=-1", "", http.StatusBadRequest},
		{"bad due filter", http.MethodGet, "/invoices?due_before=yesterday", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestSweepOverdue(t *testing.T) {
	h := setup(t)

	create := func(due string) invoice.Invoice {
		body := strings.Replace(documentBody, `"client"`, `"due_date": "`+due+`", "client"`, 1)
		w := do(t, h, http.MethodPost, "/invoices", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return decode[invoice.Invoice](t, w)
	}
	late := create("2026-03-13T00:00:00Z")
	create("2026-03-14T00:00:00Z")

	w := do(t, h, http.MethodPost, "/invoices/sweep-overdue", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[api.SweepResponse](t, w)
	assert.Equal(t, 1, res.Checked)
	assert.Equal(t, []string{late.ID.String()}, res.Transitioned)

	w = do(t, h, http.MethodGet, "/invoices?state=overdue", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]invoice.Invoice](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, late.Number, list[0].Number)

	w = do(t, h, http.MethodPost, "/invoices/sweep-overdue", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[api.SweepResponse](t, w).Transitioned, "second sweep is a no-op")
}

func TestRates(t *testing.T) {
	h := setup(t)

	w := do(t, h, http.MethodPut, "/rates/materials", `{"name": "Fliesenkleber", "unit": "kg", "unit_price": "3.40"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	m := decode[rate.Material](t, w)
	require.False(t, m.ID.IsNil())
	assert.Equal(t, "acme", m.TenantID)

	w = do(t, h, http.MethodGet, "/rates/materials/"+m.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3.4", decode[rate.Material](t, w).UnitPrice.String())

	w = do(t, h, http.MethodPut, "/rates/personnel", `{"hourly_rate": "45"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "name is required")

	w = do(t, h, http.MethodPut, "/rates/personnel", `{"name": "Geselle", "hourly_rate": "45"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p := decode[rate.Personnel](t, w)

	w = do(t, h, http.MethodGet, "/rates/personnel/"+p.ID.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, http.MethodGet, "/rates/personnel/"+id.NewPersonnelID().String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
