package handler

import (
	"context"
	"net/http"

	"github.com/upbank/core-banking/internal/domain"
)

type telcoLister interface {
	List(ctx context.Context) ([]domain.TelcoProvider, error)
}

type TelcoHandler struct {
	providers telcoLister
}

func NewTelcoHandler(providers telcoLister) *TelcoHandler {
	return &TelcoHandler{providers: providers}
}

type telcoProviderDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (h *TelcoHandler) List(w http.ResponseWriter, r *http.Request) {
	providers, err := h.providers.List(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]telcoProviderDTO, 0, len(providers))
	for _, p := range providers {
		dtos = append(dtos, telcoProviderDTO{ID: p.ID, Name: p.Name})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
