package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tailorpos-backend/internal/repository"
	"tailorpos-backend/internal/service"
)

// GarmentHandler exposes per-garment work tracking: the service line list
// and the stage that is derived from it.
type GarmentHandler struct {
	Service *service.OrderService
}

func (h GarmentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/garments/{id}", h.get)
	r.Post("/garments/{id}/services", h.addService)
	r.Put("/garments/{id}/services/{lineId}", h.editService)
	r.Delete("/garments/{id}/services/{lineId}", h.removeService)
	r.Post("/garments/{id}/services/{lineId}/restore", h.restoreService)
	r.Put("/garments/{id}/services/{lineId}/done", h.toggleDone)
	r.Post("/garments/{id}/pickup", h.pickup)
}

func (h GarmentHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	garment, err := h.Service.Orders.GetGarment(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "garment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toGarmentResponse(*garment))
}

func (h GarmentHandler) addService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req serviceLinePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	line, err := h.Service.AddServiceLine(r.Context(), id, repository.CreateServiceLineInput{
		CatalogID:      req.CatalogID,
		Name:           req.Name,
		Quantity:       req.Quantity,
		Unit:           req.Unit,
		UnitPriceCents: req.UnitPrice,
		LineTotalCents: req.LineTotal,
	}, actorName(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toServiceLineResponse(*line))
}

func (h GarmentHandler) editService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := pathID(w, r, "lineId")
	if !ok {
		return
	}
	var req serviceLinePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	line, err := h.Service.UpdateServiceLine(r.Context(), id, lineID, repository.UpdateServiceLineInput{
		Name:           req.Name,
		Quantity:       req.Quantity,
		UnitPriceCents: req.UnitPrice,
		LineTotalCents: req.LineTotal,
	}, actorName(r))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusConflict, "line is done or missing")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toServiceLineResponse(*line))
}

func (h GarmentHandler) removeService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := pathID(w, r, "lineId")
	if !ok {
		return
	}
	if err := h.Service.RemoveServiceLine(r.Context(), id, lineID, actorName(r)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusConflict, "line is done or missing")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h GarmentHandler) restoreService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := pathID(w, r, "lineId")
	if !ok {
		return
	}
	if err := h.Service.RestoreServiceLine(r.Context(), id, lineID, actorName(r)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "line not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h GarmentHandler) toggleDone(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := pathID(w, r, "lineId")
	if !ok {
		return
	}
	var req struct {
		Done bool `json:"done"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	garment, err := h.Service.SetServiceLineDone(r.Context(), id, lineID, req.Done, actorName(r))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "line not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toGarmentResponse(*garment))
}

func (h GarmentHandler) pickup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		AcknowledgeBalance bool `json:"acknowledgeBalance"`
	}
	// Body is optional; a missing body means no acknowledgement.
	_ = json.NewDecoder(r.Body).Decode(&req)

	garment, err := h.Service.MarkPickedUp(r.Context(), service.PickupInput{
		GarmentID:          id,
		AcknowledgeBalance: req.AcknowledgeBalance,
		Actor:              actorName(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotReadyForPickup):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrOutstandingBalance):
			writeError(w, http.StatusPaymentRequired, err.Error())
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "garment not found")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, toGarmentResponse(*garment))
}

func pathID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+key)
		return 0, false
	}
	return id, true
}
