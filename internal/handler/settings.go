package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tailorpos-backend/internal/domain"
	"tailorpos-backend/internal/repository"
)

type SettingsHandler struct {
	Repo repository.SettingsRepository
}

func (h SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/settings", h.get)
	r.Put("/settings", h.save)
}

func (h SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	s, err := h.Repo.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(s))
}

func (h SettingsHandler) save(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BusinessName         string `json:"businessName"`
		BusinessAddress      string `json:"businessAddress"`
		BusinessPhone        string `json:"businessPhone"`
		ReceiptFooter        string `json:"receiptFooter"`
		DefaultPaymentMethod string `json:"defaultPaymentMethod"`
		TaxRateBasisPoints   int    `json:"taxRateBp"`
		InvoicePrefix        string `json:"invoicePrefix"`
		AppointmentLeadDays  int    `json:"appointmentLeadDays"`
		Notifications        bool   `json:"notifications"`
		CurrencyCode         string `json:"currencyCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.CurrencyCode == "" {
		if current, err := h.Repo.Get(r.Context()); err == nil {
			req.CurrencyCode = current.CurrencyCode
		}
	}
	s, err := h.Repo.Save(r.Context(), domain.Settings{
		BusinessName:         req.BusinessName,
		BusinessAddress:      req.BusinessAddress,
		BusinessPhone:        req.BusinessPhone,
		ReceiptFooter:        req.ReceiptFooter,
		DefaultPaymentMethod: req.DefaultPaymentMethod,
		TaxRateBasisPoints:   req.TaxRateBasisPoints,
		InvoicePrefix:        req.InvoicePrefix,
		AppointmentLeadDays:  req.AppointmentLeadDays,
		Notifications:        req.Notifications,
		CurrencyCode:         req.CurrencyCode,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(s))
}

func toSettingsResponse(s *domain.Settings) map[string]any {
	return map[string]any{
		"businessName":         s.BusinessName,
		"businessAddress":      s.BusinessAddress,
		"businessPhone":        s.BusinessPhone,
		"receiptFooter":        s.ReceiptFooter,
		"defaultPaymentMethod": s.DefaultPaymentMethod,
		"taxRateBp":            s.TaxRateBasisPoints,
		"invoicePrefix":        s.InvoicePrefix,
		"appointmentLeadDays":  s.AppointmentLeadDays,
		"notifications":        s.Notifications,
		"currencyCode":         s.CurrencyCode,
	}
}
