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
)

type AppointmentHandler struct {
	Repo repository.AppointmentRepository
}

func (h AppointmentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/appointments", h.list)
	r.Post("/appointments", h.create)
	r.Put("/appointments/{id}/status", h.setStatus)
	r.Put("/appointments/{id}/reschedule", h.reschedule)
	r.Delete("/appointments/{id}", h.delete)
}

func (h AppointmentHandler) list(w http.ResponseWriter, r *http.Request) {
	startDate, err := parseDateQuery(r, "startDate")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid startDate")
		return
	}
	endDate, err := parseDateQuery(r, "endDate")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid endDate")
		return
	}
	start := time.Now().Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, 14)
	if startDate != nil {
		start = *startDate
	}
	if endDate != nil {
		end = endDate.AddDate(0, 0, 1)
	}

	items, err := h.Repo.ListRange(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, a := range items {
		resp = append(resp, toAppointmentResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h AppointmentHandler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID  *int64 `json:"customerId"`
		Customer    string `json:"customer"`
		OrderID     *int64 `json:"orderId"`
		Type        string `json:"type"`
		ScheduledAt string `json:"scheduledAt"`
		DurationMin int    `json:"durationMin"`
		Notes       string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Customer == "" {
		writeError(w, http.StatusBadRequest, "customer is required")
		return
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scheduledAt")
		return
	}
	if req.DurationMin <= 0 {
		req.DurationMin = 30
	}
	a, err := h.Repo.Create(r.Context(), repository.CreateAppointmentInput{
		CustomerID:  req.CustomerID,
		Customer:    req.Customer,
		OrderID:     req.OrderID,
		Type:        domain.AppointmentType(req.Type),
		ScheduledAt: scheduledAt,
		DurationMin: req.DurationMin,
		Notes:       req.Notes,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(*a))
}

func (h AppointmentHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.Repo.SetStatus(r.Context(), id, domain.AppointmentStatus(req.Status)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h AppointmentHandler) reschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		ScheduledAt string `json:"scheduledAt"`
		DurationMin int    `json:"durationMin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scheduledAt")
		return
	}
	if req.DurationMin <= 0 {
		req.DurationMin = 30
	}
	a, err := h.Repo.Reschedule(r.Context(), id, scheduledAt, req.DurationMin)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusConflict, "appointment is not scheduled")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(*a))
}

func (h AppointmentHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toAppointmentResponse(a domain.Appointment) map[string]any {
	return map[string]any{
		"id":          strconv.FormatInt(a.ID, 10),
		"customerId":  a.CustomerID,
		"customer":    a.Customer,
		"orderId":     a.OrderID,
		"type":        string(a.Type),
		"status":      string(a.Status),
		"scheduledAt": a.ScheduledAt.UTC().Format(time.RFC3339),
		"durationMin": a.DurationMin,
		"notes":       a.Notes,
	}
}
