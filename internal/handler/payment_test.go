package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// The create endpoint rejects bad payloads before any service call, so a
// handler with no service wired is enough to exercise the validation.
func newPaymentRouter() chi.Router {
	r := chi.NewRouter()
	PaymentHandler{}.RegisterRoutes(r)
	return r
}

func postPayment(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/orders/1/payments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	newPaymentRouter().ServeHTTP(rec, req)
	return rec
}

func TestCreatePayment_RejectsLedgerOnlyStatuses(t *testing.T) {
	for _, status := range []string{"refunded", "partially_refunded", "failed", "cancelled", "junk"} {
		rec := postPayment(t, `{"amount": 1000, "method": "cash", "status": "`+status+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "status %q must be rejected", status)
		assert.Contains(t, rec.Body.String(), "status must be pending or completed")
	}
}

func TestCreatePayment_RejectsBadAmountAndMethod(t *testing.T) {
	rec := postPayment(t, `{"amount": 0, "method": "cash"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postPayment(t, `{"amount": 500, "method": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postPayment(t, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
