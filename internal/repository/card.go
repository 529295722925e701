package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/upbank/core-banking/internal/domain"
)

type CardRepository struct {
	db *sql.DB
}

func NewCardRepository(db *sql.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) Create(ctx context.Context, tx *sql.Tx, c *domain.Card) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO cards (name, kind, expiry_date, pin_code, online_payments, nfc_payments, account_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		c.Name, c.Kind, c.ExpiryDate, c.PINCode, c.OnlinePayments, c.NFCPayments, c.AccountID,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *CardRepository) ListByAccount(ctx context.Context, accountID int64) ([]domain.Card, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, kind, expiry_date, pin_code, online_payments, nfc_payments, account_id, created_at
		 FROM cards WHERE account_id = $1 ORDER BY id`, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByAccount: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		var c domain.Card
		err := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.ExpiryDate, &c.PINCode,
			&c.OnlinePayments, &c.NFCPayments, &c.AccountID, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ListByAccount: scan: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByAccount: rows: %w", err)
	}
	return cards, nil
}
