package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/upbank/core-banking/internal/domain"
)

const directDebitColumns = `id, active, next_date, sender_id, receiver_id,
	amount, last_debit_id, created_at`

type DirectDebitRepository struct {
	db *sql.DB
}

func NewDirectDebitRepository(db *sql.DB) *DirectDebitRepository {
	return &DirectDebitRepository{db: db}
}

func (r *DirectDebitRepository) Create(ctx context.Context, dd *domain.DirectDebit) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO direct_debits (active, next_date, sender_id, receiver_id, amount)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		dd.Active, dd.NextDate, dd.SenderID, dd.ReceiverID, dd.Amount,
	).Scan(&dd.ID, &dd.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *DirectDebitRepository) GetByID(ctx context.Context, id int64) (*domain.DirectDebit, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+directDebitColumns+` FROM direct_debits WHERE id = $1`, id,
	)
	dd, err := scanDirectDebit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return dd, nil
}

func (r *DirectDebitRepository) ListBySender(ctx context.Context, senderID int64) ([]domain.DirectDebit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+directDebitColumns+` FROM direct_debits WHERE sender_id = $1 ORDER BY id`, senderID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListBySender: %w", err)
	}
	defer rows.Close()
	return collectDirectDebits(rows, "ListBySender")
}

func (r *DirectDebitRepository) ListDue(ctx context.Context, asOf time.Time) ([]domain.DirectDebit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+directDebitColumns+` FROM direct_debits
		 WHERE active AND next_date <= $1 ORDER BY id`, asOf,
	)
	if err != nil {
		return nil, fmt.Errorf("ListDue: %w", err)
	}
	defer rows.Close()
	return collectDirectDebits(rows, "ListDue")
}

// SetActive is the only mutation the account holder may apply to a pull
// mandate, and only to their own.
func (r *DirectDebitRepository) SetActive(ctx context.Context, senderID, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE direct_debits SET active = $1 WHERE id = $2 AND sender_id = $3`,
		active, id, senderID,
	)
	if err != nil {
		return fmt.Errorf("SetActive: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("SetActive: rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("SetActive: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *DirectDebitRepository) UpdateAfterDebit(ctx context.Context, tx *sql.Tx, id, transferID int64, nextDate time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE direct_debits SET last_debit_id = $1, next_date = $2 WHERE id = $3`,
		transferID, nextDate, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateAfterDebit: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("UpdateAfterDebit: rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("UpdateAfterDebit: %w", domain.ErrNotFound)
	}
	return nil
}

func collectDirectDebits(rows *sql.Rows, op string) ([]domain.DirectDebit, error) {
	var debits []domain.DirectDebit
	for rows.Next() {
		dd, err := scanDirectDebit(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		debits = append(debits, *dd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return debits, nil
}

func scanDirectDebit(s scanner) (*domain.DirectDebit, error) {
	var dd domain.DirectDebit
	err := s.Scan(&dd.ID, &dd.Active, &dd.NextDate, &dd.SenderID, &dd.ReceiverID,
		&dd.Amount, &dd.LastDebitID, &dd.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &dd, nil
}
