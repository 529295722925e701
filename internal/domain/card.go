package domain

import "time"

type CardKind string

const (
	CardKindPhysical CardKind = "physical"
	CardKindVirtual  CardKind = "virtual"
)

// Card is derived identity for an account. The externally visible card
// number is never stored; it is computed on demand from the account id.
type Card struct {
	ID             int64
	Name           string
	Kind           CardKind
	ExpiryDate     time.Time
	PINCode        int
	OnlinePayments bool
	NFCPayments    bool
	AccountID      int64
	CreatedAt      time.Time
}

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
