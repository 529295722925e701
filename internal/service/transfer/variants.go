package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/upbank/core-banking/internal/codec"
	"github.com/upbank/core-banking/internal/domain"
	"github.com/upbank/core-banking/internal/validate"
)

// Each variant below resolves its receiver and metadata tag, then delegates
// to Execute. None of them touch balances directly.

// Peer transfers between two accounts of this bank, receiver given by id.
func (s *Service) Peer(ctx context.Context, senderID, receiverID, amount int64, notes *string) (*domain.Transfer, error) {
	t, err := s.Execute(ctx, ExecuteRequest{
		SenderID:        senderID,
		ReceiverID:      receiverID,
		Amount:          amount,
		Metadata:        domain.TransferMetadata{Type: domain.TransferTypePeer},
		Notes:           notes,
		RequireDistinct: true,
	})
	if err != nil {
		return nil, fmt.Errorf("Peer: %w", err)
	}
	return t, nil
}

// Bank transfers to a presented account number. Numbers that parse but do
// not resolve to an account here are routed to the outbound suspense
// account; malformed or checksum-failing numbers are rejected.
func (s *Service) Bank(ctx context.Context, senderID int64, accountNumber string, amount int64, notes *string) (*domain.Transfer, error) {
	receiverID, err := s.resolveAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("Bank: %w", err)
	}

	t, err := s.Execute(ctx, ExecuteRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Metadata:   domain.TransferMetadata{Type: domain.TransferTypeNational, Number: accountNumber},
		Notes:      notes,
	})
	if err != nil {
		return nil, fmt.Errorf("Bank: %w", err)
	}
	return t, nil
}

// ServicePayment pays a service entity into the designated sink account.
func (s *Service) ServicePayment(ctx context.Context, senderID int64, entity, reference string, amount int64) (*domain.Transfer, error) {
	if err := validate.EntityCode(entity); err != nil {
		return nil, fmt.Errorf("ServicePayment: %w", err)
	}
	if err := validate.ServiceReference(reference); err != nil {
		return nil, fmt.Errorf("ServicePayment: %w", err)
	}

	t, err := s.Execute(ctx, ExecuteRequest{
		SenderID:   senderID,
		ReceiverID: s.system.ServicePayments,
		Amount:     amount,
		Metadata: domain.TransferMetadata{
			Type:      domain.TransferTypeService,
			Entity:    entity,
			Reference: reference,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ServicePayment: %w", err)
	}
	return t, nil
}

// GovernmentPayment pays a state reference into the designated sink account.
func (s *Service) GovernmentPayment(ctx context.Context, senderID int64, reference string, amount int64) (*domain.Transfer, error) {
	if err := validate.GovernmentReference(reference); err != nil {
		return nil, fmt.Errorf("GovernmentPayment: %w", err)
	}

	t, err := s.Execute(ctx, ExecuteRequest{
		SenderID:   senderID,
		ReceiverID: s.system.GovernmentPayments,
		Amount:     amount,
		Metadata: domain.TransferMetadata{
			Type:      domain.TransferTypeGovernment,
			Reference: reference,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("GovernmentPayment: %w", err)
	}
	return t, nil
}

// TelcoPayment tops up a phone number through the provider's bound account.
func (s *Service) TelcoPayment(ctx context.Context, senderID, providerID int64, phoneNumber string, amount int64) (*domain.Transfer, error) {
	if err := validate.PhoneNumber(phoneNumber); err != nil {
		return nil, fmt.Errorf("TelcoPayment: %w", err)
	}

	provider, err := s.telcos.GetByID(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("TelcoPayment: %w", err)
	}

	t, err := s.Execute(ctx, ExecuteRequest{
		SenderID:   senderID,
		ReceiverID: provider.AccountID,
		Amount:     amount,
		Metadata: domain.TransferMetadata{
			Type:        domain.TransferTypeTelco,
			PhoneNumber: phoneNumber,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("TelcoPayment: %w", err)
	}
	return t, nil
}

// SetupStandingOrder creates a push mandate. No funds move at setup; the
// first debit happens when the scheduler finds the order due.
func (s *Service) SetupStandingOrder(ctx context.Context, senderID int64, accountNumber string, amount int64, frequency domain.Frequency, start time.Time) (*domain.StandingOrder, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("SetupStandingOrder: %w", domain.ErrInvalidAmount)
	}
	if !frequency.IsValid() {
		return nil, fmt.Errorf("SetupStandingOrder: %w", domain.ErrInvalidFrequency)
	}

	receiverID, err := s.resolveAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("SetupStandingOrder: %w", err)
	}
	if receiverID == senderID {
		return nil, fmt.Errorf("SetupStandingOrder: %w", domain.ErrSelfTransfer)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("SetupStandingOrder: %w", err)
	}
	defer tx.Rollback()

	// The sender row lock serializes concurrent setups, so the cap count
	// and the insert cannot interleave with another setup for the same
	// sender.
	if _, err := s.accounts.GetForUpdate(ctx, tx, senderID); err != nil {
		return nil, fmt.Errorf("SetupStandingOrder: %w", err)
	}

	n, err := s.standingOrders.CountBySender(ctx, tx, senderID)
	if err != nil {
		return nil, fmt.Errorf("SetupStandingOrder: %w", err)
	}
	if n >= domain.MaxStandingOrdersPerSender {
		return nil, fmt.Errorf("SetupStandingOrder: %w", domain.ErrTooManyStandingOrders)
	}

	so := &domain.StandingOrder{
		Frequency:  frequency,
		NextDate:   start,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Metadata: domain.TransferMetadata{
			Type:   domain.TransferTypeStandingOrder,
			Number: accountNumber,
		},
	}
	if err := s.standingOrders.Create(ctx, tx, so); err != nil {
		return nil, fmt.Errorf("SetupStandingOrder: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("SetupStandingOrder: commit: %w", err)
	}
	return so, nil
}

// resolveAccountNumber maps a presented account number to a receiver id.
// Unresolvable but well-formed numbers land on the outbound suspense
// account: checksum-valid numbers of other banks, and checksum-valid numbers
// of this bank whose id is not provisioned.
func (s *Service) resolveAccountNumber(ctx context.Context, accountNumber string) (int64, error) {
	id, err := codec.ParseAccountNumber(accountNumber)
	switch {
	case errors.Is(err, domain.ErrExternalAccount):
		return s.system.OutboundSuspense, nil
	case err != nil:
		return 0, err
	}

	if _, err := s.accounts.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return s.system.OutboundSuspense, nil
		}
		return 0, err
	}
	return id, nil
}
