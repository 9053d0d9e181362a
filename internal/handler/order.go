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
	"tailorpos-backend/internal/server/authctx"
	"tailorpos-backend/internal/service"
)

type OrderHandler struct {
	Service  *service.OrderService
	Currency string
}

func (h OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.create)
	r.Get("/orders", h.list)
	r.Get("/orders/{id}", h.get)
	r.Get("/orders/{id}/billing", h.billing)
	r.Put("/orders/{id}/status", h.setStatus)
}

type orderPayload struct {
	CustomerID      *int64           `json:"customerId"`
	CustomerName    string           `json:"customerName"`
	CustomerPhone   string           `json:"customerPhone"`
	CustomerEmail   string           `json:"customerEmail"`
	CustomerAddress string           `json:"customerAddress"`
	Discount        int64            `json:"discount"`
	Tax             int64            `json:"tax"`
	Notes           string           `json:"notes"`
	TailorID        *int64           `json:"tailorId"`
	Tailor          string           `json:"tailor"`
	Garments        []garmentPayload `json:"garments"`
}

type garmentPayload struct {
	Name     string               `json:"name"`
	DueDate  string               `json:"dueDate"`
	Notes    string               `json:"notes"`
	ImageKey string               `json:"imageKey"`
	Services []serviceLinePayload `json:"services"`
}

type serviceLinePayload struct {
	CatalogID *int64  `json:"catalogId"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"`
	UnitPrice int64   `json:"unitPrice"`
	LineTotal *int64  `json:"lineTotal"`
}

func (h OrderHandler) create(w http.ResponseWriter, r *http.Request) {
	var req orderPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.CustomerName == "" {
		writeError(w, http.StatusBadRequest, "customerName is required")
		return
	}
	if len(req.Garments) == 0 {
		writeError(w, http.StatusBadRequest, "at least one garment is required")
		return
	}

	garments := make([]repository.CreateGarmentInput, 0, len(req.Garments))
	for _, g := range req.Garments {
		var due *time.Time
		if g.DueDate != "" {
			parsed, err := time.Parse(dateLayout, g.DueDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid dueDate")
				return
			}
			due = &parsed
		}
		services := make([]repository.CreateServiceLineInput, 0, len(g.Services))
		for _, s := range g.Services {
			services = append(services, repository.CreateServiceLineInput{
				CatalogID:      s.CatalogID,
				Name:           s.Name,
				Quantity:       s.Quantity,
				Unit:           s.Unit,
				UnitPriceCents: s.UnitPrice,
				LineTotalCents: s.LineTotal,
			})
		}
		garments = append(garments, repository.CreateGarmentInput{
			Name:     g.Name,
			DueDate:  due,
			Notes:    g.Notes,
			ImageKey: g.ImageKey,
			Services: services,
		})
	}

	order, err := h.Service.Create(r.Context(), repository.CreateOrderInput{
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		CustomerAddr:  req.CustomerAddress,
		DiscountCents: req.Discount,
		TaxCents:      req.Tax,
		Notes:         req.Notes,
		TailorID:      req.TailorID,
		Tailor:        req.Tailor,
		Garments:      garments,
	}, actorName(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Service.List(r.Context(), 200)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h OrderHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	order, err := h.Service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// billing returns the derived totals and payment state for an order.
func (h OrderHandler) billing(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	order, b, err := h.Service.Billing(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orderId":       strconv.FormatInt(order.ID, 10),
		"code":          order.Code,
		"subtotal":      b.SubtotalCents,
		"discount":      b.DiscountCents,
		"tax":           b.TaxCents,
		"activeTotal":   b.ActiveTotalCents,
		"totalPaid":     b.Summary.TotalPaidCents,
		"totalRefunded": b.Summary.TotalRefundedCents,
		"netPaid":       b.Summary.NetPaidCents,
		"amountDue":     b.Summary.AmountDueCents,
		"percentage":    b.Summary.Percentage,
		"balanceStatus": string(b.Summary.Status),
	})
}

func (h OrderHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.Service.Orders.SetStatus(r.Context(), id, domain.OrderStatus(req.Status)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toOrderResponse(o domain.Order) map[string]any {
	garments := make([]map[string]any, 0, len(o.Garments))
	for _, g := range o.Garments {
		garments = append(garments, toGarmentResponse(g))
	}
	payments := make([]map[string]any, 0, len(o.Payments))
	for _, p := range o.Payments {
		payments = append(payments, toPaymentResponse(p))
	}
	customer := map[string]any{
		"name":    "",
		"phone":   "",
		"email":   "",
		"address": "",
	}
	if o.Customer != nil {
		customer["name"] = o.Customer.Name
		customer["phone"] = o.Customer.Phone
		customer["email"] = o.Customer.Email
		customer["address"] = o.Customer.Address
	}
	return map[string]any{
		"id":         strconv.FormatInt(o.ID, 10),
		"code":       o.Code,
		"status":     string(o.Status),
		"customerId": o.CustomerID,
		"customer":   customer,
		"discount":   o.DiscountCents,
		"tax":        o.TaxCents,
		"notes":      o.Notes,
		"tailorId":   o.TailorID,
		"tailor":     o.Tailor,
		"garments":   garments,
		"payments":   payments,
		"createdAt":  o.CreatedAt.Format(time.RFC3339),
	}
}

func toGarmentResponse(g domain.Garment) map[string]any {
	services := make([]map[string]any, 0, len(g.Services))
	for _, s := range g.Services {
		services = append(services, toServiceLineResponse(s))
	}
	resp := map[string]any{
		"id":       strconv.FormatInt(g.ID, 10),
		"orderId":  strconv.FormatInt(g.OrderID, 10),
		"name":     g.Name,
		"stage":    string(g.Stage),
		"notes":    g.Notes,
		"imageKey": g.ImageKey,
		"services": services,
	}
	if g.DueDate != nil {
		resp["dueDate"] = g.DueDate.Format(dateLayout)
	}
	if g.PickedUpAt != nil {
		resp["pickedUpAt"] = g.PickedUpAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toServiceLineResponse(s domain.ServiceLine) map[string]any {
	return map[string]any{
		"id":        strconv.FormatInt(s.ID, 10),
		"catalogId": s.CatalogID,
		"name":      s.Name,
		"quantity":  s.Quantity,
		"unit":      s.Unit,
		"unitPrice": s.UnitPriceCents,
		"lineTotal": s.LineTotalCents,
		"isRemoved": s.IsRemoved,
		"isDone":    s.IsDone,
	}
}

func actorName(r *http.Request) string {
	if user := authctx.FromContext(r.Context()); user != nil {
		return user.Email
	}
	return ""
}
