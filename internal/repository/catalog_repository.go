package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"tailorpos-backend/internal/db"
	"tailorpos-backend/internal/domain"
)

// CatalogRepository stores the shop's priced alteration catalog.
type CatalogRepository struct {
	DB *db.Postgres
}

func (r CatalogRepository) List(ctx context.Context) ([]domain.CatalogService, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, name, category, category_id, unit_price, unit, description
		FROM catalog_services
		WHERE deleted_at IS NULL
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CatalogService
	for rows.Next() {
		var s domain.CatalogService
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.CategoryID, &s.UnitPriceCents, &s.Unit, &s.Description); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r CatalogRepository) GetByID(ctx context.Context, id int64) (*domain.CatalogService, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, name, category, category_id, unit_price, unit, description
		FROM catalog_services
		WHERE id=$1 AND deleted_at IS NULL
	`, id)

	var s domain.CatalogService
	if err := row.Scan(&s.ID, &s.Name, &s.Category, &s.CategoryID, &s.UnitPriceCents, &s.Unit, &s.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r CatalogRepository) Save(ctx context.Context, s domain.CatalogService) (*domain.CatalogService, error) {
	if s.ID == 0 {
		err := r.DB.Pool.QueryRow(ctx, `
			INSERT INTO catalog_services (name, category, category_id, unit_price, unit, description, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6, now(), now())
			RETURNING id, name, category, category_id, unit_price, unit, description, created_at, updated_at
		`, s.Name, s.Category, s.CategoryID, s.UnitPriceCents, s.Unit, s.Description).
			Scan(&s.ID, &s.Name, &s.Category, &s.CategoryID, &s.UnitPriceCents, &s.Unit, &s.Description, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, err
		}
		return &s, nil
	}

	err := r.DB.Pool.QueryRow(ctx, `
		UPDATE catalog_services
		SET name=$1,
			category=$2,
			category_id=$3,
			unit_price=$4,
			unit=$5,
			description=$6,
			updated_at=now(),
			deleted_at=NULL
		WHERE id=$7
		RETURNING id, name, category, category_id, unit_price, unit, description, created_at, updated_at
	`, s.Name, s.Category, s.CategoryID, s.UnitPriceCents, s.Unit, s.Description, s.ID).
		Scan(&s.ID, &s.Name, &s.Category, &s.CategoryID, &s.UnitPriceCents, &s.Unit, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r CatalogRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.DB.Pool.Exec(ctx, `UPDATE catalog_services SET deleted_at = now() WHERE id=$1`, id)
	return err
}
