package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"tailorpos-backend/internal/db"
	"tailorpos-backend/internal/domain"
)

// ErrRefundTooLarge is returned when a refund would exceed the remaining
// refundable amount of a payment.
var ErrRefundTooLarge = errors.New("refund exceeds remaining payment amount")

type PaymentRepository struct {
	DB *db.Postgres
}

type CreatePaymentInput struct {
	OrderID     int64
	AmountCents int64
	Method      string
	IntentID    *string
	Reference   *string
	Status      domain.PaymentRecordStatus
}

func (r PaymentRepository) Create(ctx context.Context, in CreatePaymentInput) (*domain.Payment, error) {
	status := in.Status
	if status == "" {
		status = domain.PaymentPending
	}
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO payments (order_id, amount, refunded, method, intent_id, reference, status, created_at, updated_at)
		VALUES ($1,$2, 0, $3,$4,$5,$6, now(), now())
		RETURNING id, order_id, amount, refunded, method, intent_id, reference, status, failure_reason, refund_note, created_at, updated_at
	`, in.OrderID, in.AmountCents, in.Method, in.IntentID, in.Reference, status)
	return scanPayment(row)
}

func (r PaymentRepository) Get(ctx context.Context, id int64) (*domain.Payment, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, order_id, amount, refunded, method, intent_id, reference, status, failure_reason, refund_note, created_at, updated_at
		FROM payments
		WHERE id=$1
	`, id)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r PaymentRepository) ListByOrder(ctx context.Context, orderID int64) ([]domain.Payment, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, order_id, amount, refunded, method, intent_id, reference, status, failure_reason, refund_note, created_at, updated_at
		FROM payments
		WHERE order_id=$1
		ORDER BY id ASC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

func (r PaymentRepository) List(ctx context.Context, limit int) ([]domain.Payment, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, order_id, amount, refunded, method, intent_id, reference, status, failure_reason, refund_note, created_at, updated_at
		FROM payments
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// Complete moves a pending payment to completed on processor confirmation.
func (r PaymentRepository) Complete(ctx context.Context, id int64, reference *string) (*domain.Payment, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE payments
		SET status=$1, reference=COALESCE($2, reference), updated_at=now()
		WHERE id=$3 AND status=$4
		RETURNING id, order_id, amount, refunded, method, intent_id, reference, status, failure_reason, refund_note, created_at, updated_at
	`, domain.PaymentCompleted, reference, id, domain.PaymentPending)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r PaymentRepository) Fail(ctx context.Context, id int64, reason string) (*domain.Payment, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE payments
		SET status=$1, failure_reason=$2, updated_at=now()
		WHERE id=$3 AND status=$4
		RETURNING id, order_id, amount, refunded, method, intent_id, reference, status, failure_reason, refund_note, created_at, updated_at
	`, domain.PaymentFailed, reason, id, domain.PaymentPending)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r PaymentRepository) Cancel(ctx context.Context, id int64) (*domain.Payment, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE payments
		SET status=$1, updated_at=now()
		WHERE id=$2 AND status=$3
		RETURNING id, order_id, amount, refunded, method, intent_id, reference, status, failure_reason, refund_note, created_at, updated_at
	`, domain.PaymentCancelled, id, domain.PaymentPending)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// ApplyRefund increases the cumulative refunded amount of a completed or
// partially refunded payment, bounded by the original amount, and derives
// the new record status. Runs in a transaction with a row lock so two
// refunds cannot race past the bound.
func (r PaymentRepository) ApplyRefund(ctx context.Context, id int64, amountCents int64, note string) (*domain.Payment, error) {
	if amountCents <= 0 {
		return nil, ErrRefundTooLarge
	}

	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var amount, refunded int64
	var status string
	err = tx.QueryRow(ctx, `
		SELECT amount, refunded, status
		FROM payments
		WHERE id=$1
		FOR UPDATE
	`, id).Scan(&amount, &refunded, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	current := domain.PaymentRecordStatus(status)
	if current != domain.PaymentCompleted && current != domain.PaymentPartiallyRefunded {
		return nil, ErrNotFound
	}
	if refunded+amountCents > amount {
		return nil, ErrRefundTooLarge
	}

	newStatus := domain.PaymentPartiallyRefunded
	if refunded+amountCents == amount {
		newStatus = domain.PaymentRefunded
	}

	row := tx.QueryRow(ctx, `
		UPDATE payments
		SET refunded=refunded+$1, status=$2, refund_note=$3, updated_at=now()
		WHERE id=$4
		RETURNING id, order_id, amount, refunded, method, intent_id, reference, status, failure_reason, refund_note, created_at, updated_at
	`, amountCents, newStatus, note, id)
	p, err := scanPayment(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func scanPayment(row interface{ Scan(dest ...any) error }) (*domain.Payment, error) {
	var (
		p         domain.Payment
		status    string
		intentID  pgtype.Text
		reference pgtype.Text
	)
	if err := row.Scan(
		&p.ID, &p.OrderID, &p.Amount.Amount, &p.RefundedCents, &p.Method,
		&intentID, &reference, &status, &p.FailureReason, &p.RefundNote,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = domain.PaymentRecordStatus(status)
	if intentID.Valid {
		p.IntentID = &intentID.String
	}
	if reference.Valid {
		p.Reference = &reference.String
	}
	return &p, nil
}
