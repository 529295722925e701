package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/upbank/core-banking/internal/domain"
)

type TelcoProviderRepository struct {
	db *sql.DB
}

func NewTelcoProviderRepository(db *sql.DB) *TelcoProviderRepository {
	return &TelcoProviderRepository{db: db}
}

func (r *TelcoProviderRepository) GetByID(ctx context.Context, id int64) (*domain.TelcoProvider, error) {
	var p domain.TelcoProvider
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, account_id FROM telco_providers WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.AccountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return &p, nil
}

func (r *TelcoProviderRepository) List(ctx context.Context) ([]domain.TelcoProvider, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, account_id FROM telco_providers ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var providers []domain.TelcoProvider
	for rows.Next() {
		var p domain.TelcoProvider
		if err := rows.Scan(&p.ID, &p.Name, &p.AccountID); err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		providers = append(providers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return providers, nil
}
