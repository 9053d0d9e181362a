package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"tailorpos-backend/internal/db"
	"tailorpos-backend/internal/domain"
)

type AppointmentRepository struct {
	DB *db.Postgres
}

type CreateAppointmentInput struct {
	CustomerID  *int64
	Customer    string
	OrderID     *int64
	Type        domain.AppointmentType
	ScheduledAt time.Time
	DurationMin int
	Notes       string
}

func (r AppointmentRepository) Create(ctx context.Context, in CreateAppointmentInput) (*domain.Appointment, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO appointments (customer_id, customer, order_id, type, status, scheduled_at, duration_min, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8, now(), now())
		RETURNING id, customer_id, customer, order_id, type, status, scheduled_at, duration_min, notes, created_at, updated_at
	`, in.CustomerID, in.Customer, in.OrderID, in.Type, domain.AppointmentScheduled, in.ScheduledAt, in.DurationMin, in.Notes)
	return scanAppointment(row)
}

func (r AppointmentRepository) ListRange(ctx context.Context, start, end time.Time) ([]domain.Appointment, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, customer_id, customer, order_id, type, status, scheduled_at, duration_min, notes, created_at, updated_at
		FROM appointments
		WHERE deleted_at IS NULL AND scheduled_at >= $1 AND scheduled_at < $2
		ORDER BY scheduled_at ASC
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

func (r AppointmentRepository) SetStatus(ctx context.Context, id int64, status domain.AppointmentStatus) error {
	ct, err := r.DB.Pool.Exec(ctx, `
		UPDATE appointments SET status=$1, updated_at=now() WHERE id=$2 AND deleted_at IS NULL
	`, status, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r AppointmentRepository) Reschedule(ctx context.Context, id int64, scheduledAt time.Time, durationMin int) (*domain.Appointment, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE appointments
		SET scheduled_at=$1, duration_min=$2, updated_at=now()
		WHERE id=$3 AND deleted_at IS NULL AND status=$4
		RETURNING id, customer_id, customer, order_id, type, status, scheduled_at, duration_min, notes, created_at, updated_at
	`, scheduledAt, durationMin, id, domain.AppointmentScheduled)
	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r AppointmentRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.DB.Pool.Exec(ctx, `UPDATE appointments SET deleted_at = now() WHERE id=$1`, id)
	return err
}

func scanAppointment(row interface{ Scan(dest ...any) error }) (*domain.Appointment, error) {
	var (
		a       domain.Appointment
		typ     string
		status  string
		custID  pgtype.Int8
		orderID pgtype.Int8
	)
	if err := row.Scan(
		&a.ID, &custID, &a.Customer, &orderID, &typ, &status,
		&a.ScheduledAt, &a.DurationMin, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Type = domain.AppointmentType(typ)
	a.Status = domain.AppointmentStatus(status)
	if custID.Valid {
		a.CustomerID = &custID.Int64
	}
	if orderID.Valid {
		a.OrderID = &orderID.Int64
	}
	return &a, nil
}
