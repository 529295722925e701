package domain

import "errors"

// Validation and business-rule errors are terminal: the caller gets a
// rejected request, never a retry. ErrLockTimeout is the one transient
// failure and may be retried with backoff.
var (
	ErrNotFound        = errors.New("not found")
	ErrAccountNotFound = errors.New("account not found")

	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrSelfTransfer         = errors.New("cannot transfer to same account")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrAccountHasBalance    = errors.New("account balance must be zero to close")
	ErrTooManyStandingOrders = errors.New("too many standing orders")
	ErrMandateInactive      = errors.New("direct debit mandate is inactive")

	ErrInvalidPhoneNumber = errors.New("invalid phone number")
	ErrInvalidEntity      = errors.New("invalid entity code")
	ErrInvalidReference   = errors.New("invalid payment reference")
	ErrInvalidPostalCode  = errors.New("invalid postal code")
	ErrInvalidTaxNumber   = errors.New("invalid tax number")
	ErrUnderage           = errors.New("account holder must be 18 or older")
	ErrIllegalCharacter   = errors.New("illegal character in name")
	ErrInvalidFrequency   = errors.New("invalid frequency")

	ErrInvalidFormat      = errors.New("malformed account identifier")
	ErrInvalidChecksum    = errors.New("account identifier checksum mismatch")
	ErrExternalAccount    = errors.New("account identifier belongs to another bank")
	ErrIdentifierOverflow = errors.New("id does not fit identifier field")

	ErrEmailTaken     = errors.New("email already registered")
	ErrInvalidRequest = errors.New("invalid request")

	ErrLockTimeout = errors.New("row lock wait timed out")
)
