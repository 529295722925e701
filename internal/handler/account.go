package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/upbank/core-banking/internal/auth"
	"github.com/upbank/core-banking/internal/domain"
	"github.com/upbank/core-banking/internal/logging"
	"github.com/upbank/core-banking/internal/service/account"
)

type accountService interface {
	Create(ctx context.Context, req account.CreateRequest) (*domain.Account, error)
	Authenticate(ctx context.Context, email, password string) (*domain.Account, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	Close(ctx context.Context, id int64) error
	Cards(ctx context.Context, accountID int64) ([]account.CardWithNumber, error)
	AccountNumber(accountID int64) (string, error)
}

type AccountHandler struct {
	accounts  accountService
	jwtSecret string
}

func NewAccountHandler(accounts accountService, jwtSecret string) *AccountHandler {
	return &AccountHandler{accounts: accounts, jwtSecret: jwtSecret}
}

type addressRequest struct {
	LineOne    string  `json:"line_one"`
	LineTwo    *string `json:"line_two"`
	PostalCode string  `json:"postal_code"`
	City       string  `json:"city"`
	District   string  `json:"district"`
}

type createAccountRequest struct {
	Email     string         `json:"email"`
	Password  string         `json:"password"`
	FullName  string         `json:"full_name"`
	Birthdate string         `json:"birthdate"`
	TaxNumber string         `json:"tax_number"`
	Address   addressRequest `json:"address"`
}

func (r createAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	if len(r.Password) < 8 {
		errs = append(errs, FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	if r.FullName == "" {
		errs = append(errs, FieldError{Field: "full_name", Message: "required"})
	}
	if r.Birthdate == "" {
		errs = append(errs, FieldError{Field: "birthdate", Message: "required"})
	}
	if r.TaxNumber == "" {
		errs = append(errs, FieldError{Field: "tax_number", Message: "required"})
	}
	if r.Address.LineOne == "" {
		errs = append(errs, FieldError{Field: "address.line_one", Message: "required"})
	}
	if r.Address.PostalCode == "" {
		errs = append(errs, FieldError{Field: "address.postal_code", Message: "required"})
	}
	if r.Address.City == "" {
		errs = append(errs, FieldError{Field: "address.city", Message: "required"})
	}
	if r.Address.District == "" {
		errs = append(errs, FieldError{Field: "address.district", Message: "required"})
	}
	return errs
}

type accountDTO struct {
	ID            int64     `json:"id"`
	FullName      string    `json:"full_name"`
	Balance       int64     `json:"balance"`
	AccountNumber string    `json:"account_number"`
	TaxNumber     *string   `json:"tax_number,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (h *AccountHandler) toDTO(a *domain.Account) accountDTO {
	dto := accountDTO{
		ID:        a.ID,
		FullName:  a.FullName,
		Balance:   a.Balance,
		TaxNumber: a.TaxNumber,
		CreatedAt: a.CreatedAt,
	}
	if n, err := h.accounts.AccountNumber(a.ID); err == nil {
		dto.AccountNumber = n
	}
	return dto
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	var birthdate *time.Time
	if d, err := time.Parse("2006-01-02", req.Birthdate); err == nil {
		birthdate = &d
	} else {
		RespondValidationError(w, []FieldError{{Field: "birthdate", Message: "must be YYYY-MM-DD"}})
		return
	}

	acct, err := h.accounts.Create(r.Context(), account.CreateRequest{
		Email:     req.Email,
		Password:  req.Password,
		FullName:  req.FullName,
		Birthdate: birthdate,
		TaxNumber: req.TaxNumber,
		Address: domain.Address{
			LineOne:    req.Address.LineOne,
			LineTwo:    req.Address.LineTwo,
			PostalCode: req.Address.PostalCode,
			City:       req.Address.City,
			District:   req.Address.District,
		},
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("account creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, h.toDTO(acct))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	acct, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		RespondAppError(w, ErrInvalidCredentials, nil)
		return
	}

	token, err := auth.GenerateToken(acct.ID, req.Email, h.jwtSecret, 24*time.Hour)
	if err != nil {
		logging.FromContext(r.Context()).Error("token generation failed", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"token":   token,
		"account": h.toDTO(acct),
	})
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	acct, err := h.accounts.GetByID(r.Context(), accountID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, h.toDTO(acct))
}

func (h *AccountHandler) Close(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	if err := h.accounts.Close(r.Context(), accountID); err != nil {
		logging.FromContext(r.Context()).Warn("account closure rejected", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, nil)
}

type cardDTO struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	Number         string `json:"number"`
	ExpiryDate     string `json:"expiry_date"`
	OnlinePayments bool   `json:"online_payments"`
	NFCPayments    bool   `json:"nfc_payments"`
}

func (h *AccountHandler) Cards(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	cards, err := h.accounts.Cards(r.Context(), accountID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]cardDTO, 0, len(cards))
	for _, c := range cards {
		dtos = append(dtos, cardDTO{
			ID:             c.ID,
			Name:           c.Name,
			Kind:           string(c.Kind),
			Number:         c.Number,
			ExpiryDate:     c.ExpiryDate.Format("2006-01-02"),
			OnlinePayments: c.OnlinePayments,
			NFCPayments:    c.NFCPayments,
		})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
