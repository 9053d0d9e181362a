package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tailorpos-backend/internal/repository"
)

type DashboardHandler struct {
	Repo repository.DashboardRepository
}

func (h DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard/summary", h.summary)
	r.Get("/dashboard/top-services", h.topServices)
	r.Get("/dashboard/top-tailors", h.topTailors)
	r.Get("/dashboard/revenue", h.revenue)
	r.Get("/dashboard/outstanding", h.outstanding)
}

func (h DashboardHandler) summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.Repo.Summary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalRevenue":    s.TotalRevenue,
		"totalRefunded":   s.TotalRefunded,
		"totalOrders":     s.TotalOrders,
		"openOrders":      s.OpenOrders,
		"todayRevenue":    s.TodayRevenue,
		"garmentsDueSoon": s.GarmentsDueSoon,
	})
}

func (h DashboardHandler) topServices(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.TopServices(r.Context(), queryLimit(r, 5))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toDashboardItems(items))
}

func (h DashboardHandler) topTailors(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.TopTailors(r.Context(), queryLimit(r, 5))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toDashboardItems(items))
}

func (h DashboardHandler) revenue(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 365 {
			days = parsed
		}
	}
	points, err := h.Repo.RevenueSeries(r.Context(), days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(points))
	for _, p := range points {
		resp = append(resp, map[string]any{
			"date":   p.Label,
			"amount": p.Amount,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h DashboardHandler) outstanding(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.OutstandingBalances(r.Context(), queryLimit(r, 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, o := range items {
		resp = append(resp, map[string]any{
			"orderId":     strconv.FormatInt(o.OrderID, 10),
			"code":        o.Code,
			"customer":    o.CustomerName,
			"activeTotal": o.ActiveTotal,
			"netPaid":     o.NetPaid,
			"amountDue":   o.ActiveTotal - o.NetPaid,
			"since":       o.OutstandingAt.Format(dateLayout),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func toDashboardItems(items []repository.DashboardItem) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]any{
			"name":   it.Name,
			"amount": it.Amount,
			"count":  it.Count,
		})
	}
	return out
}

func queryLimit(r *http.Request, fallback int) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			return parsed
		}
	}
	return fallback
}
