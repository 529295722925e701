package transfer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/upbank/core-banking/internal/domain"
	"github.com/upbank/core-banking/internal/logging"
)

// ExecuteRequest is the canonical shape every transfer variant resolves to.
type ExecuteRequest struct {
	SenderID   int64
	ReceiverID int64
	Amount     int64
	Metadata   domain.TransferMetadata
	Notes      *string

	// RequireDistinct rejects sender == receiver for the variants that
	// forbid it.
	RequireDistinct bool
}

// Execute runs the atomic debit/credit in its own transaction: lock the
// sender row, validate, move the funds, append the ledger entry. Any failure
// rolls the whole transaction back; no partial effect is ever visible.
func (s *Service) Execute(ctx context.Context, req ExecuteRequest) (*domain.Transfer, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Execute: %w", err)
	}
	defer tx.Rollback()

	t, err := s.ExecuteTx(ctx, tx, req)
	if err != nil {
		return nil, fmt.Errorf("Execute: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Execute: commit: %w", err)
	}

	logging.FromContext(ctx).Info("transfer executed",
		"transfer_id", t.ID,
		"sender", t.SenderID,
		"receiver", t.ReceiverID,
		"amount", t.Amount,
		"type", t.Metadata.Type,
	)
	return t, nil
}

// ExecuteTx is Execute inside a caller-owned transaction, so mandate
// execution can update its last-debit pointer atomically with the debit.
// The caller commits or rolls back.
func (s *Service) ExecuteTx(ctx context.Context, tx *sql.Tx, req ExecuteRequest) (*domain.Transfer, error) {
	// Bound the wait on the sender-row lock; expiry surfaces as the
	// retryable ErrLockTimeout, distinct from any business rejection.
	ms := s.lockTimeout.Milliseconds()
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", ms)); err != nil {
		return nil, fmt.Errorf("ExecuteTx: set lock_timeout: %w", err)
	}

	// The exclusive sender lock is the sole mechanism serializing debits
	// from one account; it must be taken before the balance is read.
	sender, err := s.accounts.GetForUpdate(ctx, tx, req.SenderID)
	if err != nil {
		return nil, fmt.Errorf("ExecuteTx: %w", err)
	}

	if req.Amount <= 0 {
		return nil, fmt.Errorf("ExecuteTx: %w", domain.ErrInvalidAmount)
	}
	if sender.Balance < req.Amount {
		return nil, fmt.Errorf("ExecuteTx: %w", domain.ErrInsufficientBalance)
	}
	if req.RequireDistinct && req.SenderID == req.ReceiverID {
		return nil, fmt.Errorf("ExecuteTx: %w", domain.ErrSelfTransfer)
	}

	if err := s.accounts.SetBalance(ctx, tx, sender.ID, sender.Balance-req.Amount); err != nil {
		return nil, fmt.Errorf("ExecuteTx: debit: %w", err)
	}
	// The credit is an atomic increment; the receiver row is not locked
	// but shares the transaction, so debit and credit land together or not
	// at all. Also proves the receiver exists.
	if err := s.accounts.Credit(ctx, tx, req.ReceiverID, req.Amount); err != nil {
		return nil, fmt.Errorf("ExecuteTx: credit: %w", err)
	}

	t := &domain.Transfer{
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Amount:     req.Amount,
		Metadata:   req.Metadata,
		Notes:      req.Notes,
	}
	if err := s.transfers.Create(ctx, tx, t); err != nil {
		return nil, fmt.Errorf("ExecuteTx: record: %w", err)
	}

	return t, nil
}
