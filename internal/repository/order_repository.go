package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"tailorpos-backend/internal/db"
	"tailorpos-backend/internal/domain"
)

type OrderRepository struct {
	DB *db.Postgres
}

type CreateOrderInput struct {
	CustomerID    *int64
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	CustomerAddr  string
	DiscountCents int64
	TaxCents      int64
	Notes         string
	TailorID      *int64
	Tailor        string
	Garments      []CreateGarmentInput
}

type CreateGarmentInput struct {
	Name     string
	DueDate  *time.Time
	Notes    string
	ImageKey string
	Services []CreateServiceLineInput
}

type CreateServiceLineInput struct {
	CatalogID      *int64
	Name           string
	Quantity       float64
	Unit           string
	UnitPriceCents int64
	LineTotalCents *int64
}

func (r OrderRepository) Create(ctx context.Context, in CreateOrderInput, after func(context.Context, pgx.Tx) error) (*domain.Order, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	code := fmt.Sprintf("ORD-%d", time.Now().UnixNano()/1e6)
	now := time.Now()
	var orderID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO orders
		(code, customer_id, customer_name, customer_phone, customer_email, customer_address,
		 status, discount, tax, notes, tailor_id, tailor, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, now(), now())
		RETURNING id
	`, code, in.CustomerID, in.CustomerName, in.CustomerPhone, in.CustomerEmail, in.CustomerAddr,
		domain.OrderActive, in.DiscountCents, in.TaxCents, in.Notes, in.TailorID, in.Tailor).Scan(&orderID)
	if err != nil {
		return nil, err
	}

	garments := make([]domain.Garment, 0, len(in.Garments))
	for _, g := range in.Garments {
		var garmentID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO garments (order_id, name, stage, due_date, notes, image_key, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6, now(), now())
			RETURNING id
		`, orderID, g.Name, domain.StageNew, g.DueDate, g.Notes, g.ImageKey).Scan(&garmentID)
		if err != nil {
			return nil, err
		}

		lines := make([]domain.ServiceLine, 0, len(g.Services))
		for _, s := range g.Services {
			var lineID int64
			err := tx.QueryRow(ctx, `
				INSERT INTO service_lines
				(garment_id, catalog_id, name, quantity, unit, unit_price, line_total, created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7, now(), now())
				RETURNING id
			`, garmentID, s.CatalogID, s.Name, s.Quantity, s.Unit, s.UnitPriceCents, s.LineTotalCents).Scan(&lineID)
			if err != nil {
				return nil, err
			}
			lines = append(lines, domain.ServiceLine{
				ID:             lineID,
				GarmentID:      garmentID,
				CatalogID:      s.CatalogID,
				Name:           s.Name,
				Quantity:       s.Quantity,
				Unit:           s.Unit,
				UnitPriceCents: s.UnitPriceCents,
				LineTotalCents: s.LineTotalCents,
				CreatedAt:      now,
				UpdatedAt:      now,
			})
		}
		garments = append(garments, domain.Garment{
			ID:        garmentID,
			OrderID:   orderID,
			Name:      g.Name,
			Stage:     domain.StageNew,
			DueDate:   g.DueDate,
			Notes:     g.Notes,
			ImageKey:  g.ImageKey,
			Services:  lines,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if after != nil {
		if err := after(ctx, tx); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &domain.Order{
		ID:         orderID,
		Code:       code,
		CustomerID: in.CustomerID,
		Customer: &domain.OrderCustomerSnapshot{
			Name:    in.CustomerName,
			Phone:   in.CustomerPhone,
			Email:   in.CustomerEmail,
			Address: in.CustomerAddr,
		},
		Status:        domain.OrderActive,
		DiscountCents: in.DiscountCents,
		TaxCents:      in.TaxCents,
		Notes:         in.Notes,
		TailorID:      in.TailorID,
		Tailor:        in.Tailor,
		Garments:      garments,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (r OrderRepository) Get(ctx context.Context, id int64) (*domain.Order, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, code, customer_id, customer_name, customer_phone, customer_email, customer_address,
		       status, discount, tax, notes, tailor_id, tailor, created_at, updated_at
		FROM orders
		WHERE id=$1 AND deleted_at IS NULL
	`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	garments, err := r.garmentsByOrders(ctx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Garments = garments[o.ID]

	payments, err := r.paymentsByOrders(ctx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Payments = payments[o.ID]
	return o, nil
}

func (r OrderRepository) List(ctx context.Context, limit int) ([]domain.Order, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, code, customer_id, customer_name, customer_phone, customer_email, customer_address,
		       status, discount, tax, notes, tailor_id, tailor, created_at, updated_at
		FROM orders
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	var ids []int64
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		ids = append(ids, o.ID)
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return orders, nil
	}

	garments, err := r.garmentsByOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	payments, err := r.paymentsByOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Garments = garments[orders[i].ID]
		orders[i].Payments = payments[orders[i].ID]
	}
	return orders, nil
}

func (r OrderRepository) SetStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	ct, err := r.DB.Pool.Exec(ctx, `
		UPDATE orders SET status=$1, updated_at=now() WHERE id=$2 AND deleted_at IS NULL
	`, status, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r OrderRepository) GetGarment(ctx context.Context, garmentID int64) (*domain.Garment, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, order_id, name, stage, due_date, notes, image_key, picked_up_at, created_at, updated_at
		FROM garments
		WHERE id=$1 AND deleted_at IS NULL
	`, garmentID)
	g, err := scanGarment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lines, err := r.linesByGarments(ctx, []int64{g.ID})
	if err != nil {
		return nil, err
	}
	g.Services = lines[g.ID]
	return g, nil
}

func (r OrderRepository) SetGarmentStage(ctx context.Context, garmentID int64, stage domain.GarmentStage) error {
	ct, err := r.DB.Pool.Exec(ctx, `
		UPDATE garments SET stage=$1, updated_at=now() WHERE id=$2 AND deleted_at IS NULL
	`, stage, garmentID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkGarmentPickedUp moves a garment to Done. The stage guard lives in the
// query so a concurrent edit cannot slip a pickup through from the wrong
// stage.
func (r OrderRepository) MarkGarmentPickedUp(ctx context.Context, garmentID int64) (*domain.Garment, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE garments
		SET stage=$1, picked_up_at=now(), updated_at=now()
		WHERE id=$2 AND stage=$3 AND deleted_at IS NULL
		RETURNING id, order_id, name, stage, due_date, notes, image_key, picked_up_at, created_at, updated_at
	`, domain.StageDone, garmentID, domain.StageReadyForPickup)
	g, err := scanGarment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r OrderRepository) AddServiceLine(ctx context.Context, garmentID int64, in CreateServiceLineInput) (*domain.ServiceLine, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO service_lines
		(garment_id, catalog_id, name, quantity, unit, unit_price, line_total, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7, now(), now())
		RETURNING id, garment_id, catalog_id, name, quantity, unit, unit_price, line_total,
		          is_removed, removed_at, is_done, done_at, created_at, updated_at
	`, garmentID, in.CatalogID, in.Name, in.Quantity, in.Unit, in.UnitPriceCents, in.LineTotalCents)
	return scanServiceLine(row)
}

func (r OrderRepository) GetServiceLine(ctx context.Context, lineID int64) (*domain.ServiceLine, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, garment_id, catalog_id, name, quantity, unit, unit_price, line_total,
		       is_removed, removed_at, is_done, done_at, created_at, updated_at
		FROM service_lines
		WHERE id=$1
	`, lineID)
	line, err := scanServiceLine(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return line, nil
}

type UpdateServiceLineInput struct {
	Name           string
	Quantity       float64
	UnitPriceCents int64
	LineTotalCents *int64
}

// UpdateServiceLine edits a line's billable fields. Done lines are guarded
// in the query; the caller distinguishes done from missing via GetServiceLine.
func (r OrderRepository) UpdateServiceLine(ctx context.Context, lineID int64, in UpdateServiceLineInput) (*domain.ServiceLine, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE service_lines
		SET name=$1, quantity=$2, unit_price=$3, line_total=$4, updated_at=now()
		WHERE id=$5 AND is_done=false
		RETURNING id, garment_id, catalog_id, name, quantity, unit, unit_price, line_total,
		          is_removed, removed_at, is_done, done_at, created_at, updated_at
	`, in.Name, in.Quantity, in.UnitPriceCents, in.LineTotalCents, lineID)
	line, err := scanServiceLine(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return line, nil
}

// RemoveServiceLine soft-deletes; the record stays for history and audit.
func (r OrderRepository) RemoveServiceLine(ctx context.Context, lineID int64) error {
	ct, err := r.DB.Pool.Exec(ctx, `
		UPDATE service_lines
		SET is_removed=true, removed_at=now(), updated_at=now()
		WHERE id=$1 AND is_done=false AND is_removed=false
	`, lineID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r OrderRepository) RestoreServiceLine(ctx context.Context, lineID int64) error {
	ct, err := r.DB.Pool.Exec(ctx, `
		UPDATE service_lines
		SET is_removed=false, removed_at=NULL, updated_at=now()
		WHERE id=$1 AND is_removed=true
	`, lineID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r OrderRepository) SetServiceLineDone(ctx context.Context, lineID int64, done bool) error {
	query := `
		UPDATE service_lines
		SET is_done=true, done_at=now(), updated_at=now()
		WHERE id=$1 AND is_removed=false
	`
	if !done {
		query = `
			UPDATE service_lines
			SET is_done=false, done_at=NULL, updated_at=now()
			WHERE id=$1 AND is_removed=false
		`
	}
	ct, err := r.DB.Pool.Exec(ctx, query, lineID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- scan helpers ---

func scanOrder(row interface{ Scan(dest ...any) error }) (*domain.Order, error) {
	var (
		o        domain.Order
		status   string
		custID   pgtype.Int8
		tailorID pgtype.Int8
		name     pgtype.Text
		phone    pgtype.Text
		email    pgtype.Text
		address  pgtype.Text
	)
	if err := row.Scan(
		&o.ID, &o.Code, &custID, &name, &phone, &email, &address,
		&status, &o.DiscountCents, &o.TaxCents, &o.Notes, &tailorID, &o.Tailor,
		&o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	if custID.Valid {
		o.CustomerID = &custID.Int64
	}
	if tailorID.Valid {
		o.TailorID = &tailorID.Int64
	}
	o.Customer = &domain.OrderCustomerSnapshot{
		Name:    name.String,
		Phone:   phone.String,
		Email:   email.String,
		Address: address.String,
	}
	return &o, nil
}

func scanGarment(row interface{ Scan(dest ...any) error }) (*domain.Garment, error) {
	var (
		g     domain.Garment
		stage string
	)
	if err := row.Scan(
		&g.ID, &g.OrderID, &g.Name, &stage, &g.DueDate, &g.Notes, &g.ImageKey, &g.PickedUpAt,
		&g.CreatedAt, &g.UpdatedAt,
	); err != nil {
		return nil, err
	}
	g.Stage = domain.GarmentStage(stage)
	return &g, nil
}

func scanServiceLine(row interface{ Scan(dest ...any) error }) (*domain.ServiceLine, error) {
	var (
		s         domain.ServiceLine
		catalogID pgtype.Int8
		lineTotal pgtype.Int8
	)
	if err := row.Scan(
		&s.ID, &s.GarmentID, &catalogID, &s.Name, &s.Quantity, &s.Unit, &s.UnitPriceCents, &lineTotal,
		&s.IsRemoved, &s.RemovedAt, &s.IsDone, &s.DoneAt, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if catalogID.Valid {
		s.CatalogID = &catalogID.Int64
	}
	if lineTotal.Valid {
		s.LineTotalCents = &lineTotal.Int64
	}
	return &s, nil
}

func (r OrderRepository) garmentsByOrders(ctx context.Context, orderIDs []int64) (map[int64][]domain.Garment, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, order_id, name, stage, due_date, notes, image_key, picked_up_at, created_at, updated_at
		FROM garments
		WHERE order_id = ANY($1) AND deleted_at IS NULL
		ORDER BY id ASC
	`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byOrder := make(map[int64][]domain.Garment)
	var garmentIDs []int64
	for rows.Next() {
		g, err := scanGarment(rows)
		if err != nil {
			return nil, err
		}
		garmentIDs = append(garmentIDs, g.ID)
		byOrder[g.OrderID] = append(byOrder[g.OrderID], *g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(garmentIDs) == 0 {
		return byOrder, nil
	}

	lines, err := r.linesByGarments(ctx, garmentIDs)
	if err != nil {
		return nil, err
	}
	for orderID, garments := range byOrder {
		for i := range garments {
			garments[i].Services = lines[garments[i].ID]
		}
		byOrder[orderID] = garments
	}
	return byOrder, nil
}

func (r OrderRepository) linesByGarments(ctx context.Context, garmentIDs []int64) (map[int64][]domain.ServiceLine, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, garment_id, catalog_id, name, quantity, unit, unit_price, line_total,
		       is_removed, removed_at, is_done, done_at, created_at, updated_at
		FROM service_lines
		WHERE garment_id = ANY($1)
		ORDER BY id ASC
	`, garmentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byGarment := make(map[int64][]domain.ServiceLine)
	for rows.Next() {
		line, err := scanServiceLine(rows)
		if err != nil {
			return nil, err
		}
		byGarment[line.GarmentID] = append(byGarment[line.GarmentID], *line)
	}
	return byGarment, rows.Err()
}

func (r OrderRepository) paymentsByOrders(ctx context.Context, orderIDs []int64) (map[int64][]domain.Payment, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, order_id, amount, refunded, method, intent_id, reference, status, failure_reason, refund_note, created_at, updated_at
		FROM payments
		WHERE order_id = ANY($1)
		ORDER BY id ASC
	`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byOrder := make(map[int64][]domain.Payment)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		byOrder[p.OrderID] = append(byOrder[p.OrderID], *p)
	}
	return byOrder, rows.Err()
}
