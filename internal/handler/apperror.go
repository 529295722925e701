package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInsufficientBalance   = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", "Insufficient balance"}
	ErrInvalidAmount         = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrSelfTransfer          = &AppError{http.StatusUnprocessableEntity, "SELF_TRANSFER_NOT_ALLOWED", "Cannot transfer to the same account"}
	ErrAccountNotFound       = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrAccountHasBalance     = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_HAS_BALANCE", "Account balance must be zero before closing"}
	ErrTooManyStandingOrders = &AppError{http.StatusUnprocessableEntity, "TOO_MANY_STANDING_ORDERS", "Standing order limit reached"}
	ErrMandateInactive       = &AppError{http.StatusUnprocessableEntity, "MANDATE_INACTIVE", "Direct debit mandate is inactive"}

	ErrInvalidPhoneNumber = &AppError{http.StatusBadRequest, "INVALID_PHONE_NUMBER", "Invalid phone number"}
	ErrInvalidEntity      = &AppError{http.StatusBadRequest, "INVALID_ENTITY", "Entity code must be 5 digits"}
	ErrInvalidReference   = &AppError{http.StatusBadRequest, "INVALID_REFERENCE", "Payment reference has the wrong shape"}
	ErrInvalidPostalCode  = &AppError{http.StatusBadRequest, "INVALID_POSTAL_CODE", "Invalid postal code"}
	ErrInvalidTaxNumber   = &AppError{http.StatusBadRequest, "INVALID_TAX_NUMBER", "Invalid tax number"}
	ErrUnderage           = &AppError{http.StatusBadRequest, "UNDERAGE", "Account holder must be 18 or older"}
	ErrIllegalCharacter   = &AppError{http.StatusBadRequest, "ILLEGAL_CHARACTER", "Name contains an illegal character"}
	ErrInvalidFrequency   = &AppError{http.StatusBadRequest, "INVALID_FREQUENCY", "Frequency must be DAILY, WEEKLY, MONTHLY or YEARLY"}

	ErrInvalidAccountNumber  = &AppError{http.StatusBadRequest, "INVALID_ACCOUNT_NUMBER", "Malformed account number"}
	ErrInvalidChecksum       = &AppError{http.StatusBadRequest, "INVALID_CHECKSUM", "Account number checksum mismatch"}
	ErrEmailTaken            = &AppError{http.StatusConflict, "EMAIL_TAKEN", "Email already registered"}
	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}

	// Transient: the caller may retry with backoff, unlike every rejection
	// above.
	ErrLockTimeout = &AppError{http.StatusServiceUnavailable, "LOCK_TIMEOUT", "Operation timed out waiting on a busy account, retry later"}
)
