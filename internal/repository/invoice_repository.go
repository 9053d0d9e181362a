package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"tailorpos-backend/internal/db"
	"tailorpos-backend/internal/domain"
)

type InvoiceRepository struct {
	DB *db.Postgres
}

type CreateInvoiceInput struct {
	OrderID       int64
	Prefix        string
	SubtotalCents int64
	DiscountCents int64
	TaxCents      int64
	TotalCents    int64
	DueDate       *time.Time
}

// Create issues an invoice with amounts frozen at issue time. The order's
// balance keeps evolving with the service lines; the invoice does not.
func (r InvoiceRepository) Create(ctx context.Context, in CreateInvoiceInput) (*domain.Invoice, error) {
	prefix := in.Prefix
	if prefix == "" {
		prefix = "INV"
	}
	number := fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano()/1e6)
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO invoices (order_id, number, status, subtotal, discount, tax, total, due_date, issued_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8, now(), now(), now())
		RETURNING id, order_id, number, status, subtotal, discount, tax, total, due_date, issued_at, created_at, updated_at
	`, in.OrderID, number, domain.InvoiceIssued, in.SubtotalCents, in.DiscountCents, in.TaxCents, in.TotalCents, in.DueDate)
	return scanInvoice(row)
}

func (r InvoiceRepository) Get(ctx context.Context, id int64) (*domain.Invoice, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, order_id, number, status, subtotal, discount, tax, total, due_date, issued_at, created_at, updated_at
		FROM invoices
		WHERE id=$1 AND deleted_at IS NULL
	`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r InvoiceRepository) List(ctx context.Context, limit int) ([]domain.Invoice, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, order_id, number, status, subtotal, discount, tax, total, due_date, issued_at, created_at, updated_at
		FROM invoices
		WHERE deleted_at IS NULL
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *inv)
	}
	return items, rows.Err()
}

func (r InvoiceRepository) ListFiltered(ctx context.Context, startDate, endDate *time.Time) ([]domain.Invoice, error) {
	query := `
		SELECT id, order_id, number, status, subtotal, discount, tax, total, due_date, issued_at, created_at, updated_at
		FROM invoices
		WHERE deleted_at IS NULL
	`
	args := []any{}
	idx := 1
	if startDate != nil {
		query += fmt.Sprintf(" AND issued_at >= $%d", idx)
		args = append(args, *startDate)
		idx++
	}
	if endDate != nil {
		query += fmt.Sprintf(" AND issued_at < $%d + interval '1 day'", idx)
		args = append(args, *endDate)
		idx++
	}
	query += " ORDER BY id DESC"

	rows, err := r.DB.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *inv)
	}
	return items, rows.Err()
}

func (r InvoiceRepository) SetStatus(ctx context.Context, id int64, status domain.InvoiceStatus) error {
	ct, err := r.DB.Pool.Exec(ctx, `
		UPDATE invoices SET status=$1, updated_at=now() WHERE id=$2 AND deleted_at IS NULL
	`, status, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanInvoice(row interface{ Scan(dest ...any) error }) (*domain.Invoice, error) {
	var (
		inv    domain.Invoice
		status string
	)
	if err := row.Scan(
		&inv.ID, &inv.OrderID, &inv.Number, &status,
		&inv.SubtotalCents, &inv.DiscountCents, &inv.TaxCents, &inv.TotalCents,
		&inv.DueDate, &inv.IssuedAt, &inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	inv.Status = domain.InvoiceStatus(status)
	return &inv, nil
}
