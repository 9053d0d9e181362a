package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tailorpos-backend/internal/domain"
	"tailorpos-backend/internal/repository"
)

// CatalogHandler is the read-only view of the alteration catalog for staff
// building an order.
type CatalogHandler struct {
	Repo     repository.CatalogRepository
	Currency string
}

func (h CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/catalog", h.list)
	r.Get("/catalog/{id}", h.get)
}

func (h CatalogHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toCatalogResponses(items))
}

func (h CatalogHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	s, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "service not found")
		return
	}
	writeJSON(w, http.StatusOK, toCatalogResponse(*s))
}

func toCatalogResponses(items []domain.CatalogService) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, s := range items {
		out = append(out, toCatalogResponse(s))
	}
	return out
}

func toCatalogResponse(s domain.CatalogService) map[string]any {
	return map[string]any{
		"id":          strconv.FormatInt(s.ID, 10),
		"name":        s.Name,
		"category":    s.Category,
		"categoryId":  s.CategoryID,
		"unitPrice":   s.UnitPriceCents,
		"unit":        s.Unit,
		"description": s.Description,
	}
}
