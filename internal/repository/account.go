package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/upbank/core-banking/internal/domain"
)

const accountColumns = `id, full_name, birthdate, address_id, tax_number, id_number,
	balance, user_id, created_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1`, userID,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByUserID: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetByUserID: %w", err)
	}
	return a, nil
}

// GetForUpdate acquires an exclusive row lock on the account for the
// duration of the enclosing transaction. The sole caller-facing blocking
// point of the engine; waits are bounded by the transaction's lock_timeout
// and surface as ErrLockTimeout.
//
// If a future operation ever locks more than one account row, locks must be
// acquired in ascending account-id order to stay deadlock-free.
func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", mapLockError(err))
	}
	return a, nil
}

// SetBalance writes an absolute balance. Only valid while the caller holds
// the row lock taken by GetForUpdate in the same transaction.
func (r *AccountRepository) SetBalance(ctx context.Context, tx *sql.Tx, id int64, balance int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = $1 WHERE id = $2`, balance, id,
	)
	if err != nil {
		return fmt.Errorf("SetBalance: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("SetBalance: rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("SetBalance: %w", domain.ErrAccountNotFound)
	}
	return nil
}

// Credit is a pure balance increment. It needs no prior read and therefore
// no row lock; the store's atomic update keeps concurrent credits race-free.
func (r *AccountRepository) Credit(ctx context.Context, tx *sql.Tx, id int64, amount int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + $1 WHERE id = $2`, amount, id,
	)
	if err != nil {
		return fmt.Errorf("Credit: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("Credit: rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("Credit: %w", domain.ErrAccountNotFound)
	}
	return nil
}

func (r *AccountRepository) Create(ctx context.Context, tx *sql.Tx, a *domain.Account) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO accounts (full_name, birthdate, address_id, tax_number, id_number, balance, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		a.FullName, a.Birthdate, a.AddressID, a.TaxNumber, a.IDNumber, a.Balance, a.UserID,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrAccountNotFound)
	}
	return nil
}

func (r *AccountRepository) CreateAddress(ctx context.Context, tx *sql.Tx, addr *domain.Address) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO addresses (line_one, line_two, postal_code, city, district)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		addr.LineOne, addr.LineTwo, addr.PostalCode, addr.City, addr.District,
	).Scan(&addr.ID)
	if err != nil {
		return fmt.Errorf("CreateAddress: %w", err)
	}
	return nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(
		&a.ID, &a.FullName, &a.Birthdate, &a.AddressID, &a.TaxNumber, &a.IDNumber,
		&a.Balance, &a.UserID, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
