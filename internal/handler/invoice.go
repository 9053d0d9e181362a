package handler

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"tailorpos-backend/internal/domain"
	"tailorpos-backend/internal/repository"
	"tailorpos-backend/internal/service"
)

type InvoiceHandler struct {
	Repo          repository.InvoiceRepository
	Orders        *service.OrderService
	InvoicePrefix string
}

func (h InvoiceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/invoices", h.list)
	r.Get("/invoices/export", h.export)
	r.Get("/invoices/{id}", h.get)
	r.Post("/orders/{id}/invoices", h.issue)
	r.Put("/invoices/{id}/status", h.setStatus)
}

// issue freezes the order's current derived totals into a new invoice.
func (h InvoiceHandler) issue(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		DueDate string `json:"dueDate"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	var due *time.Time
	if req.DueDate != "" {
		parsed, err := time.Parse(dateLayout, req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid dueDate")
			return
		}
		due = &parsed
	}

	_, b, err := h.Orders.Billing(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	inv, err := h.Repo.Create(r.Context(), repository.CreateInvoiceInput{
		OrderID:       orderID,
		Prefix:        h.InvoicePrefix,
		SubtotalCents: b.SubtotalCents,
		DiscountCents: b.DiscountCents,
		TaxCents:      b.TaxCents,
		TotalCents:    b.ActiveTotalCents,
		DueDate:       due,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(*inv))
}

func (h InvoiceHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	inv, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "invoice not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(*inv))
}

func (h InvoiceHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.filteredList(r, 200)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, inv := range items {
		resp = append(resp, toInvoiceResponse(inv))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h InvoiceHandler) setStatus(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Repo.SetStatus(r.Context(), id, domain.InvoiceStatus(req.Status)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "invoice not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h InvoiceHandler) export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	items, err := h.filteredList(r, 2000)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filenameSuffix := time.Now().Format("20060102_150405")

	switch format {
	case "csv":
		data, err := exportInvoicesCSV(items)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"invoices_%s.csv\"", filenameSuffix))
		_, _ = w.Write(data)
	case "xlsx", "excel":
		data, err := exportInvoicesXLSX(items)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"invoices_%s.xlsx\"", filenameSuffix))
		_, _ = w.Write(data)
	default:
		writeError(w, http.StatusBadRequest, "invalid format (use csv or xlsx)")
	}
}

func (h InvoiceHandler) filteredList(r *http.Request, limit int) ([]domain.Invoice, error) {
	startDate, err := parseDateQuery(r, "startDate")
	if err != nil {
		return nil, errors.New("invalid startDate")
	}
	endDate, err := parseDateQuery(r, "endDate")
	if err != nil {
		return nil, errors.New("invalid endDate")
	}
	if startDate != nil && endDate != nil && startDate.After(*endDate) {
		return nil, errors.New("startDate must be before endDate")
	}
	if startDate != nil || endDate != nil {
		return h.Repo.ListFiltered(r.Context(), startDate, endDate)
	}
	return h.Repo.List(r.Context(), limit)
}

func exportInvoicesCSV(items []domain.Invoice) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"id", "number", "order_id", "status", "subtotal", "discount", "tax", "total", "due_date", "issued_at"})
	for _, inv := range items {
		_ = w.Write([]string{
			strconv.FormatInt(inv.ID, 10),
			inv.Number,
			strconv.FormatInt(inv.OrderID, 10),
			string(inv.Status),
			strconv.FormatInt(inv.SubtotalCents, 10),
			strconv.FormatInt(inv.DiscountCents, 10),
			strconv.FormatInt(inv.TaxCents, 10),
			strconv.FormatInt(inv.TotalCents, 10),
			formatDate(inv.DueDate),
			formatDate(inv.IssuedAt),
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func exportInvoicesXLSX(items []domain.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Invoices"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	header := []string{"ID", "Number", "Order", "Status", "Subtotal", "Discount", "Tax", "Total", "Due Date", "Issued At"}
	for c, v := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for r, inv := range items {
		row := r + 2
		values := []any{
			inv.ID,
			inv.Number,
			inv.OrderID,
			string(inv.Status),
			inv.SubtotalCents,
			inv.DiscountCents,
			inv.TaxCents,
			inv.TotalCents,
			formatDate(inv.DueDate),
			formatDate(inv.IssuedAt),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 10)
	_ = f.SetColWidth(sheet, "B", "B", 22)
	_ = f.SetColWidth(sheet, "C", "C", 10)
	_ = f.SetColWidth(sheet, "D", "D", 12)
	_ = f.SetColWidth(sheet, "E", "H", 14)
	_ = f.SetColWidth(sheet, "I", "J", 14)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	_ = f.SetCellStyle(sheet, "A1", "J1", style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func toInvoiceResponse(inv domain.Invoice) map[string]any {
	resp := map[string]any{
		"id":       strconv.FormatInt(inv.ID, 10),
		"orderId":  strconv.FormatInt(inv.OrderID, 10),
		"number":   inv.Number,
		"status":   string(inv.Status),
		"subtotal": inv.SubtotalCents,
		"discount": inv.DiscountCents,
		"tax":      inv.TaxCents,
		"total":    inv.TotalCents,
	}
	if inv.DueDate != nil {
		resp["dueDate"] = inv.DueDate.Format(dateLayout)
	}
	if inv.IssuedAt != nil {
		resp["issuedAt"] = inv.IssuedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
