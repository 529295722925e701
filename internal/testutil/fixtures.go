package testutil

import (
	"database/sql"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/upbank/core-banking/internal/domain"
)

// SeedHolder creates a user and their account with the given balance and
// returns the account. The password is always "password123".
func SeedHolder(t *testing.T, db *sql.DB, email, fullName string, balance int64) *domain.Account {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var userID int64
	err = db.QueryRow(
		`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id`,
		email, string(hash),
	).Scan(&userID)
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}

	birthdate := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	a := &domain.Account{
		FullName:  fullName,
		Birthdate: &birthdate,
		Balance:   balance,
		UserID:    &userID,
	}
	err = db.QueryRow(
		`INSERT INTO accounts (full_name, birthdate, balance, user_id)
		 VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		a.FullName, a.Birthdate, a.Balance, a.UserID,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		t.Fatalf("seed account for %s: %v", email, err)
	}
	return a
}

// SeedBareAccount creates an account with no backing user, the shape system
// and provider accounts take.
func SeedBareAccount(t *testing.T, db *sql.DB, fullName string, balance int64) *domain.Account {
	t.Helper()

	a := &domain.Account{FullName: fullName, Balance: balance}
	err := db.QueryRow(
		`INSERT INTO accounts (full_name, balance) VALUES ($1, $2) RETURNING id, created_at`,
		a.FullName, a.Balance,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		t.Fatalf("seed bare account %s: %v", fullName, err)
	}
	return a
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID int64) int64 {
	t.Helper()

	var balance int64
	if err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance); err != nil {
		t.Fatalf("get balance of account %d: %v", accountID, err)
	}
	return balance
}

// SystemAccountID looks up the account bound to a seeded system role.
func SystemAccountID(t *testing.T, db *sql.DB, role domain.SystemRole) int64 {
	t.Helper()

	var id int64
	if err := db.QueryRow(`SELECT account_id FROM system_accounts WHERE role = $1`, role).Scan(&id); err != nil {
		t.Fatalf("resolve system account %s: %v", role, err)
	}
	return id
}

func CountTransfers(t *testing.T, db *sql.DB, senderID int64) int {
	t.Helper()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM transfers WHERE sender_id = $1`, senderID).Scan(&n); err != nil {
		t.Fatalf("count transfers of account %d: %v", senderID, err)
	}
	return n
}

// SeedDirectDebit inserts a pull mandate due at nextDate.
func SeedDirectDebit(t *testing.T, db *sql.DB, senderID, receiverID, amount int64, active bool, nextDate time.Time) *domain.DirectDebit {
	t.Helper()

	dd := &domain.DirectDebit{
		Active:     active,
		NextDate:   nextDate,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
	}
	err := db.QueryRow(
		`INSERT INTO direct_debits (active, next_date, sender_id, receiver_id, amount)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		dd.Active, dd.NextDate, dd.SenderID, dd.ReceiverID, dd.Amount,
	).Scan(&dd.ID, &dd.CreatedAt)
	if err != nil {
		t.Fatalf("seed direct debit: %v", err)
	}
	return dd
}
