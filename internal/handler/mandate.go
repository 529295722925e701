package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/upbank/core-banking/internal/auth"
	"github.com/upbank/core-banking/internal/domain"
	"github.com/upbank/core-banking/internal/logging"
)

type standingOrderCreator interface {
	SetupStandingOrder(ctx context.Context, senderID int64, accountNumber string, amount int64, frequency domain.Frequency, start time.Time) (*domain.StandingOrder, error)
}

type mandateService interface {
	ListStandingOrders(ctx context.Context, senderID int64) ([]domain.StandingOrder, error)
	DeleteStandingOrder(ctx context.Context, senderID, id int64) error
	ListDirectDebits(ctx context.Context, senderID int64) ([]domain.DirectDebit, error)
	SetDirectDebitActive(ctx context.Context, senderID, id int64, active bool) error
}

type MandateHandler struct {
	orders   standingOrderCreator
	mandates mandateService
}

func NewMandateHandler(orders standingOrderCreator, mandates mandateService) *MandateHandler {
	return &MandateHandler{orders: orders, mandates: mandates}
}

type standingOrderDTO struct {
	ID          int64     `json:"id"`
	ReceiverID  int64     `json:"receiver_id"`
	Amount      int64     `json:"amount"`
	Frequency   string    `json:"frequency"`
	NextDate    time.Time `json:"next_date"`
	LastDebitID *int64    `json:"last_debit_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toStandingOrderDTO(so *domain.StandingOrder) standingOrderDTO {
	return standingOrderDTO{
		ID:          so.ID,
		ReceiverID:  so.ReceiverID,
		Amount:      so.Amount,
		Frequency:   string(so.Frequency),
		NextDate:    so.NextDate,
		LastDebitID: so.LastDebitID,
		CreatedAt:   so.CreatedAt,
	}
}

type createStandingOrderRequest struct {
	AccountNumber string `json:"account_number"`
	Amount        int64  `json:"amount"`
	Frequency     string `json:"frequency"`
	StartDate     string `json:"start_date"`
}

func (h *MandateHandler) CreateStandingOrder(w http.ResponseWriter, r *http.Request) {
	senderID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createStandingOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	start := time.Now()
	if req.StartDate != "" {
		d, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "start_date", Message: "must be YYYY-MM-DD"}})
			return
		}
		start = d
	}

	so, err := h.orders.SetupStandingOrder(r.Context(), senderID, req.AccountNumber, req.Amount, domain.Frequency(req.Frequency), start)
	if err != nil {
		logging.FromContext(r.Context()).Warn("standing order rejected", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toStandingOrderDTO(so))
}

func (h *MandateHandler) ListStandingOrders(w http.ResponseWriter, r *http.Request) {
	senderID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	orders, err := h.mandates.ListStandingOrders(r.Context(), senderID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]standingOrderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, toStandingOrderDTO(&orders[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *MandateHandler) DeleteStandingOrder(w http.ResponseWriter, r *http.Request) {
	senderID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	if err := h.mandates.DeleteStandingOrder(r.Context(), senderID, id); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, nil)
}

type directDebitDTO struct {
	ID          int64     `json:"id"`
	ReceiverID  int64     `json:"receiver_id"`
	Amount      int64     `json:"amount"`
	Active      bool      `json:"active"`
	NextDate    time.Time `json:"next_date"`
	LastDebitID *int64    `json:"last_debit_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *MandateHandler) ListDirectDebits(w http.ResponseWriter, r *http.Request) {
	senderID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	debits, err := h.mandates.ListDirectDebits(r.Context(), senderID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]directDebitDTO, 0, len(debits))
	for _, dd := range debits {
		dtos = append(dtos, directDebitDTO{
			ID:          dd.ID,
			ReceiverID:  dd.ReceiverID,
			Amount:      dd.Amount,
			Active:      dd.Active,
			NextDate:    dd.NextDate,
			LastDebitID: dd.LastDebitID,
			CreatedAt:   dd.CreatedAt,
		})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type setDirectDebitActiveRequest struct {
	Active bool `json:"active"`
}

func (h *MandateHandler) SetDirectDebitActive(w http.ResponseWriter, r *http.Request) {
	senderID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req setDirectDebitActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if err := h.mandates.SetDirectDebitActive(r.Context(), senderID, id, req.Active); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, nil)
}
