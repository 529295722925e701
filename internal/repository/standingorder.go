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

const standingOrderColumns = `id, frequency, next_date, sender_id, receiver_id,
	amount, metadata, last_debit_id, created_at`

type StandingOrderRepository struct {
	db *sql.DB
}

func NewStandingOrderRepository(db *sql.DB) *StandingOrderRepository {
	return &StandingOrderRepository{db: db}
}

// Create inserts a mandate. Runs in a caller-owned transaction so the
// per-sender cap check and the insert are serialized by the sender lock.
func (r *StandingOrderRepository) Create(ctx context.Context, tx *sql.Tx, so *domain.StandingOrder) error {
	meta, err := json.Marshal(so.Metadata)
	if err != nil {
		return fmt.Errorf("Create: marshal metadata: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO standing_orders (frequency, next_date, sender_id, receiver_id, amount, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		so.Frequency, so.NextDate, so.SenderID, so.ReceiverID, so.Amount, meta,
	).Scan(&so.ID, &so.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *StandingOrderRepository) GetByID(ctx context.Context, id int64) (*domain.StandingOrder, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+standingOrderColumns+` FROM standing_orders WHERE id = $1`, id,
	)
	so, err := scanStandingOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return so, nil
}

func (r *StandingOrderRepository) CountBySender(ctx context.Context, tx *sql.Tx, senderID int64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM standing_orders WHERE sender_id = $1`, senderID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountBySender: %w", err)
	}
	return n, nil
}

func (r *StandingOrderRepository) ListBySender(ctx context.Context, senderID int64) ([]domain.StandingOrder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+standingOrderColumns+` FROM standing_orders WHERE sender_id = $1 ORDER BY id`, senderID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListBySender: %w", err)
	}
	defer rows.Close()
	return collectStandingOrders(rows, "ListBySender")
}

// ListDue returns orders whose next date is on or before asOf.
func (r *StandingOrderRepository) ListDue(ctx context.Context, asOf time.Time) ([]domain.StandingOrder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+standingOrderColumns+` FROM standing_orders WHERE next_date <= $1 ORDER BY id`, asOf,
	)
	if err != nil {
		return nil, fmt.Errorf("ListDue: %w", err)
	}
	defer rows.Close()
	return collectStandingOrders(rows, "ListDue")
}

// UpdateAfterDebit records the produced transfer and the advanced due date.
// Runs in the same transaction as the debit itself.
func (r *StandingOrderRepository) UpdateAfterDebit(ctx context.Context, tx *sql.Tx, id, transferID int64, nextDate time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE standing_orders SET last_debit_id = $1, next_date = $2 WHERE id = $3`,
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

func (r *StandingOrderRepository) Delete(ctx context.Context, senderID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM standing_orders WHERE id = $1 AND sender_id = $2`, id, senderID,
	)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func collectStandingOrders(rows *sql.Rows, op string) ([]domain.StandingOrder, error) {
	var orders []domain.StandingOrder
	for rows.Next() {
		so, err := scanStandingOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		orders = append(orders, *so)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return orders, nil
}

func scanStandingOrder(s scanner) (*domain.StandingOrder, error) {
	var (
		so   domain.StandingOrder
		meta []byte
	)
	err := s.Scan(&so.ID, &so.Frequency, &so.NextDate, &so.SenderID, &so.ReceiverID,
		&so.Amount, &meta, &so.LastDebitID, &so.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(meta, &so.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &so, nil
}
