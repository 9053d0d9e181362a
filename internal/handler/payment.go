package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"tailorpos-backend/internal/domain"
	"tailorpos-backend/internal/repository"
	"tailorpos-backend/internal/service"
)

// PaymentHandler manages the append-only payment ledger of an order.
// Refunds never delete a record; they accumulate against it.
type PaymentHandler struct {
	Service  *service.OrderService
	Currency string
}

func (h PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/payments", h.list)
	r.Get("/orders/{id}/payments", h.listByOrder)
	r.Post("/orders/{id}/payments", h.create)
	r.Post("/payments/{id}/complete", h.complete)
	r.Post("/payments/{id}/fail", h.fail)
	r.Post("/payments/{id}/cancel", h.cancel)
	r.Post("/payments/{id}/refund", h.refund)
}

func (h PaymentHandler) list(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Service.Payments.List(r.Context(), 200)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponses(payments))
}

func (h PaymentHandler) listByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	payments, err := h.Service.Payments.ListByOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponses(payments))
}

func (h PaymentHandler) create(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Amount    int64   `json:"amount"`
		Method    string  `json:"method"`
		IntentID  *string `json:"intentId"`
		Reference *string `json:"reference"`
		Status    string  `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, "method is required")
		return
	}
	// Only pending or completed may be set at creation; refunds and
	// failures go through their own endpoints.
	status := domain.PaymentRecordStatus(req.Status)
	switch status {
	case "", domain.PaymentPending, domain.PaymentCompleted:
	default:
		writeError(w, http.StatusBadRequest, "status must be pending or completed")
		return
	}
	payment, err := h.Service.RecordPayment(r.Context(), repository.CreatePaymentInput{
		OrderID:     orderID,
		AmountCents: req.Amount,
		Method:      req.Method,
		IntentID:    req.IntentID,
		Reference:   req.Reference,
		Status:      status,
	}, actorName(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(*payment))
}

func (h PaymentHandler) complete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Reference *string `json:"reference"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	payment, err := h.Service.Payments.Complete(r.Context(), id, req.Reference)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusConflict, "payment is not pending")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(*payment))
}

func (h PaymentHandler) fail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	payment, err := h.Service.Payments.Fail(r.Context(), id, req.Reason)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusConflict, "payment is not pending")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(*payment))
}

func (h PaymentHandler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	payment, err := h.Service.Payments.Cancel(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusConflict, "payment is not pending")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(*payment))
}

func (h PaymentHandler) refund(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Amount int64  `json:"amount"`
		Note   string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	payment, err := h.Service.RecordRefund(r.Context(), id, req.Amount, req.Note, actorName(r))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRefundTooLarge):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "payment not found")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(*payment))
}

func toPaymentResponses(payments []domain.Payment) []map[string]any {
	out := make([]map[string]any, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	return out
}

func toPaymentResponse(p domain.Payment) map[string]any {
	return map[string]any{
		"id":            strconv.FormatInt(p.ID, 10),
		"orderId":       strconv.FormatInt(p.OrderID, 10),
		"amount":        p.Amount.Amount,
		"refunded":      p.RefundedCents,
		"method":        p.Method,
		"intentId":      p.IntentID,
		"reference":     p.Reference,
		"status":        string(p.Status),
		"failureReason": p.FailureReason,
		"refundNote":    p.RefundNote,
		"createdAt":     p.CreatedAt.Format(time.RFC3339),
	}
}
