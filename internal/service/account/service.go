// Package account covers account provisioning, closure and derived card
// identity. Balance mutation stays with the transfer engine.
package account

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/upbank/core-banking/internal/codec"
	"github.com/upbank/core-banking/internal/domain"
	"github.com/upbank/core-banking/internal/repository"
	"github.com/upbank/core-banking/internal/validate"
)

type accountRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Account, error)
	Create(ctx context.Context, tx *sql.Tx, a *domain.Account) error
	Delete(ctx context.Context, tx *sql.Tx, id int64) error
	CreateAddress(ctx context.Context, tx *sql.Tx, addr *domain.Address) error
}

type userRepo interface {
	Create(ctx context.Context, tx *sql.Tx, u *domain.User) error
	Delete(ctx context.Context, tx *sql.Tx, id int64) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type cardRepo interface {
	Create(ctx context.Context, tx *sql.Tx, c *domain.Card) error
	ListByAccount(ctx context.Context, accountID int64) ([]domain.Card, error)
}

// WelcomeFunc runs the welcome grant through the transfer engine inside the
// provisioning transaction, so signup and grant commit or roll back together.
type WelcomeFunc func(ctx context.Context, tx *sql.Tx, receiverID, amount int64) (*domain.Transfer, error)

type Service struct {
	accounts accountRepo
	users    userRepo
	cards    cardRepo
	db       *repository.DB

	welcomeAmount int64
	welcome       WelcomeFunc
}

func NewService(
	accounts accountRepo,
	users userRepo,
	cards cardRepo,
	db *repository.DB,
	welcomeAmount int64,
	welcome WelcomeFunc,
) *Service {
	return &Service{
		accounts:      accounts,
		users:         users,
		cards:         cards,
		db:            db,
		welcomeAmount: welcomeAmount,
		welcome:       welcome,
	}
}

type CreateRequest struct {
	Email     string
	Password  string
	FullName  string
	Birthdate *time.Time
	TaxNumber string
	Address   domain.Address
}

// Create provisions a user, address, account and two cards, and books the
// welcome grant from the designated system account, all in one transaction.
// All validation errors surface before anything is written.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Account, error) {
	if err := validate.FullName(req.FullName); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	if err := validate.Birthdate(req.Birthdate, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	if err := validate.TaxNumber(req.TaxNumber); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	if err := validate.PostalCode(req.Address.PostalCode); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("Create: hash password: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	defer tx.Rollback()

	user := &domain.User{Email: req.Email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, tx, user); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	addr := req.Address
	if err := s.accounts.CreateAddress(ctx, tx, &addr); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	acct := &domain.Account{
		FullName:  req.FullName,
		Birthdate: req.Birthdate,
		AddressID: &addr.ID,
		TaxNumber: &req.TaxNumber,
		UserID:    &user.ID,
	}
	if err := s.accounts.Create(ctx, tx, acct); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	for _, kind := range []domain.CardKind{domain.CardKindPhysical, domain.CardKindVirtual} {
		pin, err := randomPIN()
		if err != nil {
			return nil, fmt.Errorf("Create: %w", err)
		}
		card := &domain.Card{
			Name:           req.FullName,
			Kind:           kind,
			ExpiryDate:     time.Now().UTC().AddDate(5, 0, 0),
			PINCode:        pin,
			OnlinePayments: kind == domain.CardKindVirtual,
			NFCPayments:    true,
			AccountID:      acct.ID,
		}
		if err := s.cards.Create(ctx, tx, card); err != nil {
			return nil, fmt.Errorf("Create: %w", err)
		}
	}

	// The grant is a regular engine transfer riding this transaction, so
	// the audit trail stays complete and a grant failure undoes the whole
	// signup. No account ever comes back ungranted.
	if _, err := s.welcome(ctx, tx, acct.ID, s.welcomeAmount); err != nil {
		return nil, fmt.Errorf("Create: welcome grant: %w", err)
	}
	acct.Balance = s.welcomeAmount

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Create: commit: %w", err)
	}

	return acct, nil
}

// Close deletes an account. The row lock keeps a concurrent transfer from
// landing funds mid-closure; any non-zero balance rejects the close.
func (s *Service) Close(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	defer tx.Rollback()

	acct, err := s.accounts.GetForUpdate(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	if acct.Balance != 0 {
		return fmt.Errorf("Close: %w", domain.ErrAccountHasBalance)
	}

	// Dropping the login cascades to the account, its cards and mandates.
	// Accounts with no login (system, providers) are deleted directly.
	if acct.UserID != nil {
		if err := s.users.Delete(ctx, tx, *acct.UserID); err != nil {
			return fmt.Errorf("Close: %w", err)
		}
	} else if err := s.accounts.Delete(ctx, tx, id); err != nil {
		return fmt.Errorf("Close: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Close: commit: %w", err)
	}
	return nil
}

// Authenticate checks credentials and returns the caller's account. The
// session layer turns this into a token carrying the account id.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("Authenticate: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("Authenticate: %w", domain.ErrNotFound)
	}

	acct, err := s.accounts.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("Authenticate: %w", err)
	}
	return acct, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

// CardWithNumber pairs a stored card row with its derived number.
type CardWithNumber struct {
	domain.Card
	Number string
}

// Cards lists an account's cards with their numbers computed from the
// account id. Numbers are never persisted.
func (s *Service) Cards(ctx context.Context, accountID int64) ([]CardWithNumber, error) {
	cards, err := s.cards.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("Cards: %w", err)
	}

	number, err := codec.CardNumberOf(accountID)
	if err != nil {
		return nil, fmt.Errorf("Cards: %w", err)
	}

	out := make([]CardWithNumber, 0, len(cards))
	for _, c := range cards {
		out = append(out, CardWithNumber{Card: c, Number: number})
	}
	return out, nil
}

// AccountNumber derives the presentable account number for an account.
func (s *Service) AccountNumber(accountID int64) (string, error) {
	n, err := codec.AccountNumberOf(accountID)
	if err != nil {
		return "", fmt.Errorf("AccountNumber: %w", err)
	}
	return n, nil
}

func randomPIN() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return 0, fmt.Errorf("randomPIN: %w", err)
	}
	return int(n.Int64()), nil
}
