package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tailorpos-backend/internal/domain"
	"tailorpos-backend/internal/repository"
)

// CatalogAdminHandler manages the priced catalog itself.
type CatalogAdminHandler struct {
	Repo repository.CatalogRepository
}

func (h CatalogAdminHandler) RegisterRoutes(r chi.Router) {
	r.Post("/catalog", h.save)
	r.Put("/catalog/{id}", h.update)
	r.Delete("/catalog/{id}", h.delete)
}

type catalogPayload struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	CategoryID  int64  `json:"categoryId"`
	UnitPrice   int64  `json:"unitPrice"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

func (h CatalogAdminHandler) save(w http.ResponseWriter, r *http.Request) {
	var req catalogPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	saved, err := h.Repo.Save(r.Context(), domain.CatalogService{
		Name:           req.Name,
		Category:       req.Category,
		CategoryID:     req.CategoryID,
		UnitPriceCents: req.UnitPrice,
		Unit:           req.Unit,
		Description:    req.Description,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toCatalogResponse(*saved))
}

func (h CatalogAdminHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req catalogPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	saved, err := h.Repo.Save(r.Context(), domain.CatalogService{
		ID:             id,
		Name:           req.Name,
		Category:       req.Category,
		CategoryID:     req.CategoryID,
		UnitPriceCents: req.UnitPrice,
		Unit:           req.Unit,
		Description:    req.Description,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "service not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toCatalogResponse(*saved))
}

func (h CatalogAdminHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
