package transfer_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upbank/core-banking/internal/codec"
	"github.com/upbank/core-banking/internal/domain"
	"github.com/upbank/core-banking/internal/repository"
	"github.com/upbank/core-banking/internal/service/transfer"
	"github.com/upbank/core-banking/internal/testutil"
)

// Checksum-valid number issued by another bank (branch code 12345678).
const externalAccountNumber = "PT50123456780000000004224"

func setupTransferService(t *testing.T, db *sql.DB) *transfer.Service {
	t.Helper()

	system, err := repository.ResolveSystemAccounts(context.Background(), db)
	require.NoError(t, err)

	return transfer.NewService(
		repository.NewAccountRepository(db),
		repository.NewTransferRepository(db),
		repository.NewStandingOrderRepository(db),
		repository.NewTelcoProviderRepository(db),
		repository.NewDB(db),
		system,
		3*time.Second,
	)
}

func TestPeerTransfer_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	sender := testutil.SeedHolder(t, db, "sender@test.com", "Ana Silva", 10000)
	receiver := testutil.SeedHolder(t, db, "receiver@test.com", "Rui Costa", 5000)

	notes := "rent"
	tr, err := svc.Peer(ctx, sender.ID, receiver.ID, 3000, &notes)

	require.NoError(t, err)
	assert.Equal(t, sender.ID, tr.SenderID)
	assert.Equal(t, receiver.ID, tr.ReceiverID)
	assert.Equal(t, int64(3000), tr.Amount)
	assert.Equal(t, domain.TransferTypePeer, tr.Metadata.Type)
	require.NotNil(t, tr.Notes)
	assert.Equal(t, "rent", *tr.Notes)

	assert.Equal(t, int64(7000), testutil.GetAccountBalance(t, db, sender.ID))
	assert.Equal(t, int64(8000), testutil.GetAccountBalance(t, db, receiver.ID))
}

func TestPeerTransfer_InsufficientBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	sender := testutil.SeedHolder(t, db, "sender@test.com", "Ana Silva", 1000)
	receiver := testutil.SeedHolder(t, db, "receiver@test.com", "Rui Costa", 5000)

	_, err := svc.Peer(ctx, sender.ID, receiver.ID, 5000, nil)

	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, int64(1000), testutil.GetAccountBalance(t, db, sender.ID))
	assert.Equal(t, int64(5000), testutil.GetAccountBalance(t, db, receiver.ID))
	assert.Equal(t, 0, testutil.CountTransfers(t, db, sender.ID))
}

func TestPeerTransfer_Rejections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	sender := testutil.SeedHolder(t, db, "sender@test.com", "Ana Silva", 10000)
	receiver := testutil.SeedHolder(t, db, "receiver@test.com", "Rui Costa", 0)

	_, err := svc.Peer(ctx, sender.ID, sender.ID, 100, nil)
	require.ErrorIs(t, err, domain.ErrSelfTransfer)

	_, err = svc.Peer(ctx, sender.ID, receiver.ID, 0, nil)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Peer(ctx, sender.ID, receiver.ID, -50, nil)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Peer(ctx, sender.ID, receiver.ID+99999, 100, nil)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	assert.Equal(t, int64(10000), testutil.GetAccountBalance(t, db, sender.ID))
	assert.Equal(t, 0, testutil.CountTransfers(t, db, sender.ID))
}

func TestPeerTransfer_ConcurrentOverdraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	sender := testutil.SeedHolder(t, db, "sender@test.com", "Ana Silva", 10000)
	receiver := testutil.SeedHolder(t, db, "receiver@test.com", "Rui Costa", 0)

	const attempts = 4
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Peer(ctx, sender.ID, receiver.ID, 10000, nil)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, overdrawn int
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, domain.ErrInsufficientBalance)
			overdrawn++
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, overdrawn)
	assert.Equal(t, int64(0), testutil.GetAccountBalance(t, db, sender.ID))
	assert.Equal(t, int64(10000), testutil.GetAccountBalance(t, db, receiver.ID))
	assert.Equal(t, 1, testutil.CountTransfers(t, db, sender.ID))
}

func TestBankTransfer_ResolvesLocalAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	sender := testutil.SeedHolder(t, db, "sender@test.com", "Ana Silva", 10000)
	receiver := testutil.SeedHolder(t, db, "receiver@test.com", "Rui Costa", 0)

	number, err := codec.AccountNumberOf(receiver.ID)
	require.NoError(t, err)

	tr, err := svc.Bank(ctx, sender.ID, number, 2500, nil)

	require.NoError(t, err)
	assert.Equal(t, receiver.ID, tr.ReceiverID)
	assert.Equal(t, domain.TransferTypeNational, tr.Metadata.Type)
	assert.Equal(t, number, tr.Metadata.Number)
	assert.Equal(t, int64(2500), testutil.GetAccountBalance(t, db, receiver.ID))
}

func TestBankTransfer_UnknownLocalAccountGoesToSuspense(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	sender := testutil.SeedHolder(t, db, "sender@test.com", "Ana Silva", 10000)
	suspenseID := testutil.SystemAccountID(t, db, domain.RoleOutboundSuspense)
	suspenseBefore := testutil.GetAccountBalance(t, db, suspenseID)

	number, err := codec.AccountNumberOf(99_999_999)
	require.NoError(t, err)

	tr, err := svc.Bank(ctx, sender.ID, number, 4000, nil)

	require.NoError(t, err)
	assert.Equal(t, suspenseID, tr.ReceiverID)
	assert.Equal(t, int64(6000), testutil.GetAccountBalance(t, db, sender.ID))
	assert.Equal(t, suspenseBefore+4000, testutil.GetAccountBalance(t, db, suspenseID))
}

func TestBankTransfer_ExternalBankGoesToSuspense(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	sender := testutil.SeedHolder(t, db, "sender@test.com", "Ana Silva", 10000)
	suspenseID := testutil.SystemAccountID(t, db, domain.RoleOutboundSuspense)

	tr, err := svc.Bank(ctx, sender.ID, externalAccountNumber, 1500, nil)

	require.NoError(t, err)
	assert.Equal(t, suspenseID, tr.ReceiverID)
	assert.Equal(t, externalAccountNumber, tr.Metadata.Number)
	assert.Equal(t, int64(8500), testutil.GetAccountBalance(t, db, sender.ID))
}

func TestBankTransfer_BadNumbersRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	sender := testutil.SeedHolder(t, db, "sender@test.com", "Ana Silva", 10000)

	valid, err := codec.AccountNumberOf(sender.ID)
	require.NoError(t, err)

	_, err = svc.Bank(ctx, sender.ID, "PT50", 100, nil)
	require.ErrorIs(t, err, domain.ErrInvalidFormat)

	_, err = svc.Bank(ctx, sender.ID, valid[:23]+"00", 100, nil)
	require.ErrorIs(t, err, domain.ErrInvalidChecksum)

	assert.Equal(t, int64(10000), testutil.GetAccountBalance(t, db, sender.ID))
	assert.Equal(t, 0, testutil.CountTransfers(t, db, sender.ID))
}

func TestServicePayment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	sender := testutil.SeedHolder(t, db, "sender@test.com", "Ana Silva", 10000)
	sinkID := testutil.SystemAccountID(t, db, domain.RoleServicePayments)

	tr, err := svc.ServicePayment(ctx, sender.ID, "21312", "123456789", 3000)

	require.NoError(t, err)
	assert.Equal(t, sinkID, tr.ReceiverID)
	assert.Equal(t, domain.TransferTypeService, tr.Metadata.Type)
	assert.Equal(t, "21312", tr.Metadata.Entity)
	assert.Equal(t, "123456789", tr.Metadata.Reference)
	assert.Equal(t, int64(3000), testutil.GetAccountBalance(t, db, sinkID))

	_, err = svc.ServicePayment(ctx, sender.ID, "2131", "123456789", 100)
	require.ErrorIs(t, err, domain.ErrInvalidEntity)

	_, err = svc.ServicePayment(ctx, sender.ID, "21312", "12345678", 100)
	require.ErrorIs(t, err, domain.ErrInvalidReference)
}

func TestGovernmentPayment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	sender := testutil.SeedHolder(t, db, "sender@test.com", "Ana Silva", 10000)
	sinkID := testutil.SystemAccountID(t, db, domain.RoleGovernmentPayments)

	tr, err := svc.GovernmentPayment(ctx, sender.ID, "123456789012345", 2000)

	require.NoError(t, err)
	assert.Equal(t, sinkID, tr.ReceiverID)
	assert.Equal(t, domain.TransferTypeGovernment, tr.Metadata.Type)
	assert.Equal(t, int64(2000), testutil.GetAccountBalance(t, db, sinkID))

	_, err = svc.GovernmentPayment(ctx, sender.ID, "12345", 100)
	require.ErrorIs(t, err, domain.ErrInvalidReference)
}

func TestTelcoPayment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	sender := testutil.SeedHolder(t, db, "sender@test.com", "Ana Silva", 10000)

	var providerID, providerAccountID int64
	err := db.QueryRow(`SELECT id, account_id FROM telco_providers ORDER BY id LIMIT 1`).
		Scan(&providerID, &providerAccountID)
	require.NoError(t, err)

	tr, err := svc.TelcoPayment(ctx, sender.ID, providerID, "961234567", 1500)

	require.NoError(t, err)
	assert.Equal(t, providerAccountID, tr.ReceiverID)
	assert.Equal(t, domain.TransferTypeTelco, tr.Metadata.Type)
	assert.Equal(t, "961234567", tr.Metadata.PhoneNumber)
	assert.Equal(t, int64(1500), testutil.GetAccountBalance(t, db, providerAccountID))

	_, err = svc.TelcoPayment(ctx, sender.ID, providerID, "861234567", 100)
	require.ErrorIs(t, err, domain.ErrInvalidPhoneNumber)

	_, err = svc.TelcoPayment(ctx, sender.ID, providerID+1000, "961234567", 100)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetupStandingOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	sender := testutil.SeedHolder(t, db, "sender@test.com", "Ana Silva", 10000)
	receiver := testutil.SeedHolder(t, db, "receiver@test.com", "Rui Costa", 0)

	number, err := codec.AccountNumberOf(receiver.ID)
	require.NoError(t, err)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	so, err := svc.SetupStandingOrder(ctx, sender.ID, number, 500, domain.FrequencyMonthly, start)

	require.NoError(t, err)
	assert.Equal(t, receiver.ID, so.ReceiverID)
	assert.Equal(t, domain.FrequencyMonthly, so.Frequency)
	assert.Nil(t, so.LastDebitID)

	// Setup moves no funds.
	assert.Equal(t, int64(10000), testutil.GetAccountBalance(t, db, sender.ID))
	assert.Equal(t, int64(0), testutil.GetAccountBalance(t, db, receiver.ID))

	_, err = svc.SetupStandingOrder(ctx, sender.ID, number, 500, "FORTNIGHTLY", start)
	require.ErrorIs(t, err, domain.ErrInvalidFrequency)

	_, err = svc.SetupStandingOrder(ctx, sender.ID, number, 0, domain.FrequencyMonthly, start)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	senderNumber, err := codec.AccountNumberOf(sender.ID)
	require.NoError(t, err)
	_, err = svc.SetupStandingOrder(ctx, sender.ID, senderNumber, 500, domain.FrequencyMonthly, start)
	require.ErrorIs(t, err, domain.ErrSelfTransfer)
}

func TestTransferHistory_DirectionFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	a := testutil.SeedHolder(t, db, "a@test.com", "Ana Silva", 10000)
	b := testutil.SeedHolder(t, db, "b@test.com", "Rui Costa", 10000)

	_, err := svc.Peer(ctx, a.ID, b.ID, 1000, nil)
	require.NoError(t, err)
	_, err = svc.Peer(ctx, b.ID, a.ID, 400, nil)
	require.NoError(t, err)

	transfers := repository.NewTransferRepository(db)

	sent, err := transfers.ListForAccount(ctx, a.ID, repository.ListFilter{Direction: "SEND"})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, int64(1000), sent[0].Amount)

	received, err := transfers.ListForAccount(ctx, a.ID, repository.ListFilter{Direction: "RECEIVE"})
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, int64(400), received[0].Amount)

	both, err := transfers.ListForAccount(ctx, a.ID, repository.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, both, 2)

	farFuture := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	none, err := transfers.ListForAccount(ctx, a.ID, repository.ListFilter{MinDate: &farFuture})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSetupStandingOrder_CapEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	sender := testutil.SeedHolder(t, db, "sender@test.com", "Ana Silva", 10000)
	receiver := testutil.SeedHolder(t, db, "receiver@test.com", "Rui Costa", 0)

	number, err := codec.AccountNumberOf(receiver.ID)
	require.NoError(t, err)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	for range domain.MaxStandingOrdersPerSender {
		_, err := svc.SetupStandingOrder(ctx, sender.ID, number, 100, domain.FrequencyWeekly, start)
		require.NoError(t, err)
	}

	_, err = svc.SetupStandingOrder(ctx, sender.ID, number, 100, domain.FrequencyWeekly, start)
	require.ErrorIs(t, err, domain.ErrTooManyStandingOrders)
}

func TestSetupStandingOrder_CapUnderConcurrency(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	sender := testutil.SeedHolder(t, db, "sender@test.com", "Ana Silva", 10000)
	receiver := testutil.SeedHolder(t, db, "receiver@test.com", "Rui Costa", 0)

	number, err := codec.AccountNumberOf(receiver.ID)
	require.NoError(t, err)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	for range domain.MaxStandingOrdersPerSender - 1 {
		_, err := svc.SetupStandingOrder(ctx, sender.ID, number, 100, domain.FrequencyWeekly, start)
		require.NoError(t, err)
	}

	// One slot left. The sender lock must admit exactly one of the
	// concurrent setups.
	const attempts = 4
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SetupStandingOrder(ctx, sender.ID, number, 100, domain.FrequencyWeekly, start)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, capped int
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, domain.ErrTooManyStandingOrders)
			capped++
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, capped)

	var total int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM standing_orders WHERE sender_id = $1`, sender.ID,
	).Scan(&total))
	assert.Equal(t, domain.MaxStandingOrdersPerSender, total)
}
