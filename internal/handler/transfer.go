package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/upbank/core-banking/internal/auth"
	"github.com/upbank/core-banking/internal/domain"
	"github.com/upbank/core-banking/internal/logging"
	"github.com/upbank/core-banking/internal/repository"
)

type transferService interface {
	Peer(ctx context.Context, senderID, receiverID, amount int64, notes *string) (*domain.Transfer, error)
	Bank(ctx context.Context, senderID int64, accountNumber string, amount int64, notes *string) (*domain.Transfer, error)
	ServicePayment(ctx context.Context, senderID int64, entity, reference string, amount int64) (*domain.Transfer, error)
	GovernmentPayment(ctx context.Context, senderID int64, reference string, amount int64) (*domain.Transfer, error)
	TelcoPayment(ctx context.Context, senderID, providerID int64, phoneNumber string, amount int64) (*domain.Transfer, error)
}

type transferLister interface {
	ListForAccount(ctx context.Context, accountID int64, f repository.ListFilter) ([]domain.Transfer, error)
}

type TransferHandler struct {
	transfers transferService
	history   transferLister
}

func NewTransferHandler(transfers transferService, history transferLister) *TransferHandler {
	return &TransferHandler{transfers: transfers, history: history}
}

type transferDTO struct {
	ID         int64                   `json:"id"`
	SenderID   int64                   `json:"sender_id"`
	ReceiverID int64                   `json:"receiver_id"`
	Amount     int64                   `json:"amount"`
	Metadata   domain.TransferMetadata `json:"metadata"`
	Notes      *string                 `json:"notes,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}

func toTransferDTO(t *domain.Transfer) transferDTO {
	return transferDTO{
		ID:         t.ID,
		SenderID:   t.SenderID,
		ReceiverID: t.ReceiverID,
		Amount:     t.Amount,
		Metadata:   t.Metadata,
		Notes:      t.Notes,
		CreatedAt:  t.Date,
	}
}

type peerTransferRequest struct {
	ReceiverID int64   `json:"receiver_id"`
	Amount     int64   `json:"amount"`
	Notes      *string `json:"notes"`
}

func (h *TransferHandler) Peer(w http.ResponseWriter, r *http.Request) {
	senderID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req peerTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	t, err := h.transfers.Peer(r.Context(), senderID, req.ReceiverID, req.Amount, req.Notes)
	if err != nil {
		logging.FromContext(r.Context()).Warn("peer transfer rejected", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toTransferDTO(t))
}

type bankTransferRequest struct {
	AccountNumber string  `json:"account_number"`
	Amount        int64   `json:"amount"`
	Notes         *string `json:"notes"`
}

func (h *TransferHandler) Bank(w http.ResponseWriter, r *http.Request) {
	senderID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req bankTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	t, err := h.transfers.Bank(r.Context(), senderID, req.AccountNumber, req.Amount, req.Notes)
	if err != nil {
		logging.FromContext(r.Context()).Warn("bank transfer rejected", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toTransferDTO(t))
}

type servicePaymentRequest struct {
	Entity    string `json:"entity"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
}

func (h *TransferHandler) ServicePayment(w http.ResponseWriter, r *http.Request) {
	senderID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req servicePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	t, err := h.transfers.ServicePayment(r.Context(), senderID, req.Entity, req.Reference, req.Amount)
	if err != nil {
		logging.FromContext(r.Context()).Warn("service payment rejected", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toTransferDTO(t))
}

type governmentPaymentRequest struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
}

func (h *TransferHandler) GovernmentPayment(w http.ResponseWriter, r *http.Request) {
	senderID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req governmentPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	t, err := h.transfers.GovernmentPayment(r.Context(), senderID, req.Reference, req.Amount)
	if err != nil {
		logging.FromContext(r.Context()).Warn("government payment rejected", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toTransferDTO(t))
}

type telcoPaymentRequest struct {
	ProviderID  int64  `json:"provider_id"`
	PhoneNumber string `json:"phone_number"`
	Amount      int64  `json:"amount"`
}

func (h *TransferHandler) TelcoPayment(w http.ResponseWriter, r *http.Request) {
	senderID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req telcoPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	t, err := h.transfers.TelcoPayment(r.Context(), senderID, req.ProviderID, req.PhoneNumber, req.Amount)
	if err != nil {
		logging.FromContext(r.Context()).Warn("telco payment rejected", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toTransferDTO(t))
}

// History lists the authenticated account's transfers, filterable by
// direction and date range via query parameters.
func (h *TransferHandler) History(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var f repository.ListFilter
	switch d := r.URL.Query().Get("direction"); d {
	case "", "SEND", "RECEIVE":
		f.Direction = d
	default:
		RespondValidationError(w, []FieldError{{Field: "direction", Message: "must be SEND or RECEIVE"}})
		return
	}
	if v := r.URL.Query().Get("min_date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "min_date", Message: "must be YYYY-MM-DD"}})
			return
		}
		f.MinDate = &d
	}
	if v := r.URL.Query().Get("max_date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "max_date", Message: "must be YYYY-MM-DD"}})
			return
		}
		// Upper bound is inclusive of the whole day.
		end := d.Add(24*time.Hour - time.Nanosecond)
		f.MaxDate = &end
	}

	transfers, err := h.history.ListForAccount(r.Context(), accountID, f)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transferDTO, 0, len(transfers))
	for i := range transfers {
		dtos = append(dtos, toTransferDTO(&transfers[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
