// Package mandate executes recurring-payment mandates: given a due standing
// order or direct debit, run exactly one debit through the transfer engine
// and advance the mandate's pointer, atomically.
package mandate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/upbank/core-banking/internal/domain"
	"github.com/upbank/core-banking/internal/logging"
	"github.com/upbank/core-banking/internal/repository"
	"github.com/upbank/core-banking/internal/service/transfer"
)

type standingOrderRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.StandingOrder, error)
	ListBySender(ctx context.Context, senderID int64) ([]domain.StandingOrder, error)
	ListDue(ctx context.Context, asOf time.Time) ([]domain.StandingOrder, error)
	UpdateAfterDebit(ctx context.Context, tx *sql.Tx, id, transferID int64, nextDate time.Time) error
	Delete(ctx context.Context, senderID, id int64) error
}

type directDebitRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.DirectDebit, error)
	ListBySender(ctx context.Context, senderID int64) ([]domain.DirectDebit, error)
	ListDue(ctx context.Context, asOf time.Time) ([]domain.DirectDebit, error)
	UpdateAfterDebit(ctx context.Context, tx *sql.Tx, id, transferID int64, nextDate time.Time) error
	SetActive(ctx context.Context, senderID, id int64, active bool) error
}

type engine interface {
	ExecuteTx(ctx context.Context, tx *sql.Tx, req transfer.ExecuteRequest) (*domain.Transfer, error)
}

type Service struct {
	standingOrders standingOrderRepo
	directDebits   directDebitRepo
	engine         engine
	db             *repository.DB
}

func NewService(standingOrders standingOrderRepo, directDebits directDebitRepo, eng engine, db *repository.DB) *Service {
	return &Service{
		standingOrders: standingOrders,
		directDebits:   directDebits,
		engine:         eng,
		db:             db,
	}
}

// ExecuteStandingOrder runs one debit for the order and advances its due
// date, in a single transaction. On InsufficientBalance the order is left
// untouched and stays active; the failure propagates so the owner can be
// notified out of band.
func (s *Service) ExecuteStandingOrder(ctx context.Context, id int64) (*domain.Transfer, error) {
	so, err := s.standingOrders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ExecuteStandingOrder: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ExecuteStandingOrder: %w", err)
	}
	defer tx.Rollback()

	t, err := s.engine.ExecuteTx(ctx, tx, transfer.ExecuteRequest{
		SenderID:        so.SenderID,
		ReceiverID:      so.ReceiverID,
		Amount:          so.Amount,
		Metadata:        so.Metadata,
		RequireDistinct: true,
	})
	if err != nil {
		return nil, fmt.Errorf("ExecuteStandingOrder: %w", err)
	}

	next := so.Frequency.Next(so.NextDate)
	if err := s.standingOrders.UpdateAfterDebit(ctx, tx, so.ID, t.ID, next); err != nil {
		return nil, fmt.Errorf("ExecuteStandingOrder: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ExecuteStandingOrder: commit: %w", err)
	}
	return t, nil
}

// ExecuteDirectDebit runs one pull for an active mandate. The merchant-side
// cadence is monthly; the mandate stays active on InsufficientBalance.
func (s *Service) ExecuteDirectDebit(ctx context.Context, id int64) (*domain.Transfer, error) {
	dd, err := s.directDebits.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ExecuteDirectDebit: %w", err)
	}
	if !dd.Active {
		return nil, fmt.Errorf("ExecuteDirectDebit: %w", domain.ErrMandateInactive)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ExecuteDirectDebit: %w", err)
	}
	defer tx.Rollback()

	t, err := s.engine.ExecuteTx(ctx, tx, transfer.ExecuteRequest{
		SenderID:        dd.SenderID,
		ReceiverID:      dd.ReceiverID,
		Amount:          dd.Amount,
		Metadata:        domain.TransferMetadata{Type: domain.TransferTypeDirectDebit},
		RequireDistinct: true,
	})
	if err != nil {
		return nil, fmt.Errorf("ExecuteDirectDebit: %w", err)
	}

	next := domain.FrequencyMonthly.Next(dd.NextDate)
	if err := s.directDebits.UpdateAfterDebit(ctx, tx, dd.ID, t.ID, next); err != nil {
		return nil, fmt.Errorf("ExecuteDirectDebit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ExecuteDirectDebit: commit: %w", err)
	}
	return t, nil
}

// RunResult counts one scheduler pass.
type RunResult struct {
	Executed int
	Failed   int
}

// RunDue executes every due mandate independently. Business failures are
// logged and skipped, never retried within the pass, and never deactivate
// the mandate.
func (s *Service) RunDue(ctx context.Context, asOf time.Time) (RunResult, error) {
	log := logging.FromContext(ctx)
	var res RunResult

	orders, err := s.standingOrders.ListDue(ctx, asOf)
	if err != nil {
		return res, fmt.Errorf("RunDue: %w", err)
	}
	for _, so := range orders {
		if _, err := s.ExecuteStandingOrder(ctx, so.ID); err != nil {
			res.Failed++
			log.Warn("standing order execution failed",
				"standing_order_id", so.ID, "sender", so.SenderID, "error", err)
			continue
		}
		res.Executed++
	}

	debits, err := s.directDebits.ListDue(ctx, asOf)
	if err != nil {
		return res, fmt.Errorf("RunDue: %w", err)
	}
	for _, dd := range debits {
		if _, err := s.ExecuteDirectDebit(ctx, dd.ID); err != nil {
			res.Failed++
			log.Warn("direct debit execution failed",
				"direct_debit_id", dd.ID, "sender", dd.SenderID, "error", err)
			continue
		}
		res.Executed++
	}

	return res, nil
}

func (s *Service) ListStandingOrders(ctx context.Context, senderID int64) ([]domain.StandingOrder, error) {
	orders, err := s.standingOrders.ListBySender(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("ListStandingOrders: %w", err)
	}
	return orders, nil
}

func (s *Service) DeleteStandingOrder(ctx context.Context, senderID, id int64) error {
	if err := s.standingOrders.Delete(ctx, senderID, id); err != nil {
		return fmt.Errorf("DeleteStandingOrder: %w", err)
	}
	return nil
}

func (s *Service) ListDirectDebits(ctx context.Context, senderID int64) ([]domain.DirectDebit, error) {
	debits, err := s.directDebits.ListBySender(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("ListDirectDebits: %w", err)
	}
	return debits, nil
}

// SetDirectDebitActive toggles a pull mandate on the holder's behalf.
func (s *Service) SetDirectDebitActive(ctx context.Context, senderID, id int64, active bool) error {
	if err := s.directDebits.SetActive(ctx, senderID, id, active); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("SetDirectDebitActive: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("SetDirectDebitActive: %w", err)
	}
	return nil
}
