package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/upbank/core-banking/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// RespondDomainError maps engine errors onto the stable wire codes.
// Everything terminal is a rejection; only the lock timeout is retryable.
func RespondDomainError(w http.ResponseWriter, err error) {
	var appErr *AppError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		appErr = ErrResourceNotFound
	case errors.Is(err, domain.ErrAccountNotFound):
		appErr = ErrAccountNotFound
	case errors.Is(err, domain.ErrInsufficientBalance):
		appErr = ErrInsufficientBalance
	case errors.Is(err, domain.ErrInvalidAmount):
		appErr = ErrInvalidAmount
	case errors.Is(err, domain.ErrSelfTransfer):
		appErr = ErrSelfTransfer
	case errors.Is(err, domain.ErrAccountHasBalance):
		appErr = ErrAccountHasBalance
	case errors.Is(err, domain.ErrTooManyStandingOrders):
		appErr = ErrTooManyStandingOrders
	case errors.Is(err, domain.ErrMandateInactive):
		appErr = ErrMandateInactive
	case errors.Is(err, domain.ErrInvalidPhoneNumber):
		appErr = ErrInvalidPhoneNumber
	case errors.Is(err, domain.ErrInvalidEntity):
		appErr = ErrInvalidEntity
	case errors.Is(err, domain.ErrInvalidReference):
		appErr = ErrInvalidReference
	case errors.Is(err, domain.ErrInvalidPostalCode):
		appErr = ErrInvalidPostalCode
	case errors.Is(err, domain.ErrInvalidTaxNumber):
		appErr = ErrInvalidTaxNumber
	case errors.Is(err, domain.ErrUnderage):
		appErr = ErrUnderage
	case errors.Is(err, domain.ErrIllegalCharacter):
		appErr = ErrIllegalCharacter
	case errors.Is(err, domain.ErrInvalidFrequency):
		appErr = ErrInvalidFrequency
	case errors.Is(err, domain.ErrInvalidFormat):
		appErr = ErrInvalidAccountNumber
	case errors.Is(err, domain.ErrInvalidChecksum):
		appErr = ErrInvalidChecksum
	case errors.Is(err, domain.ErrIdentifierOverflow):
		appErr = ErrInvalidAccountNumber
	case errors.Is(err, domain.ErrEmailTaken):
		appErr = ErrEmailTaken
	case errors.Is(err, domain.ErrInvalidRequest):
		appErr = ErrInvalidRequest
	case errors.Is(err, domain.ErrLockTimeout):
		appErr = ErrLockTimeout
	default:
		slog.Error("unhandled domain error", "error", err)
		appErr = ErrInternalError
	}

	RespondAppError(w, appErr, nil)
}
