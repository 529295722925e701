package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/upbank/core-banking/internal/domain"
)

const transferColumns = `id, date, sender_id, receiver_id, amount, metadata, notes`

type TransferRepository struct {
	db *sql.DB
}

func NewTransferRepository(db *sql.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// Create appends the immutable ledger entry. There is no update or delete
// counterpart on purpose.
func (r *TransferRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.Transfer) error {
	meta, err := json.Marshal(t.Metadata)
	if err != nil {
		return fmt.Errorf("Create: marshal metadata: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO transfers (sender_id, receiver_id, amount, metadata, notes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, date`,
		t.SenderID, t.ReceiverID, t.Amount, meta, t.Notes,
	).Scan(&t.ID, &t.Date)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransferRepository) GetByID(ctx context.Context, id int64) (*domain.Transfer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE id = $1`, id,
	)
	t, err := scanTransfer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

// ListFilter narrows ListForAccount. Zero values mean "no constraint".
type ListFilter struct {
	Direction string // "SEND", "RECEIVE" or empty for both
	MinDate   *time.Time
	MaxDate   *time.Time
}

func (r *TransferRepository) ListForAccount(ctx context.Context, accountID int64, f ListFilter) ([]domain.Transfer, error) {
	q := `SELECT ` + transferColumns + ` FROM transfers WHERE `
	args := []any{accountID}

	switch f.Direction {
	case "SEND":
		q += `sender_id = $1`
	case "RECEIVE":
		q += `receiver_id = $1`
	default:
		q += `(sender_id = $1 OR receiver_id = $1)`
	}

	if f.MinDate != nil {
		args = append(args, *f.MinDate)
		q += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if f.MaxDate != nil {
		args = append(args, *f.MaxDate)
		q += fmt.Sprintf(` AND date <= $%d`, len(args))
	}
	q += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("ListForAccount: %w", err)
	}
	defer rows.Close()

	var transfers []domain.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("ListForAccount: scan: %w", err)
		}
		transfers = append(transfers, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListForAccount: rows: %w", err)
	}
	return transfers, nil
}

func scanTransfer(s scanner) (*domain.Transfer, error) {
	var (
		t    domain.Transfer
		meta []byte
	)
	if err := s.Scan(&t.ID, &t.Date, &t.SenderID, &t.ReceiverID, &t.Amount, &meta, &t.Notes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(meta, &t.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &t, nil
}
