// Package transfer holds the ledger transfer engine and the classifier that
// maps caller-facing payment intents onto it.
package transfer

import (
	"context"
	"database/sql"
	"time"

	"github.com/upbank/core-banking/internal/domain"
	"github.com/upbank/core-banking/internal/repository"
)

type accountRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Account, error)
	SetBalance(ctx context.Context, tx *sql.Tx, id int64, balance int64) error
	Credit(ctx context.Context, tx *sql.Tx, id int64, amount int64) error
}

type transferRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transfer) error
}

type standingOrderRepo interface {
	Create(ctx context.Context, tx *sql.Tx, so *domain.StandingOrder) error
	CountBySender(ctx context.Context, tx *sql.Tx, senderID int64) (int, error)
}

type telcoRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.TelcoProvider, error)
}

type Service struct {
	accounts       accountRepo
	transfers      transferRepo
	standingOrders standingOrderRepo
	telcos         telcoRepo
	db             *repository.DB
	system         domain.SystemAccounts
	lockTimeout    time.Duration
}

func NewService(
	accounts accountRepo,
	transfers transferRepo,
	standingOrders standingOrderRepo,
	telcos telcoRepo,
	db *repository.DB,
	system domain.SystemAccounts,
	lockTimeout time.Duration,
) *Service {
	return &Service{
		accounts:       accounts,
		transfers:      transfers,
		standingOrders: standingOrders,
		telcos:         telcos,
		db:             db,
		system:         system,
		lockTimeout:    lockTimeout,
	}
}

// SystemAccounts exposes the resolved system-account ids to collaborating
// services.
func (s *Service) SystemAccounts() domain.SystemAccounts {
	return s.system
}
