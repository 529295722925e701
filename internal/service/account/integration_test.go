package account_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upbank/core-banking/internal/domain"
	"github.com/upbank/core-banking/internal/repository"
	"github.com/upbank/core-banking/internal/service/account"
	"github.com/upbank/core-banking/internal/service/transfer"
	"github.com/upbank/core-banking/internal/testutil"
)

const welcomeAmount = 10000

func setupAccountService(t *testing.T, db *sql.DB) *account.Service {
	t.Helper()

	system, err := repository.ResolveSystemAccounts(context.Background(), db)
	require.NoError(t, err)

	engine := transfer.NewService(
		repository.NewAccountRepository(db),
		repository.NewTransferRepository(db),
		repository.NewStandingOrderRepository(db),
		repository.NewTelcoProviderRepository(db),
		repository.NewDB(db),
		system,
		3*time.Second,
	)
	welcome := func(ctx context.Context, tx *sql.Tx, receiverID, amount int64) (*domain.Transfer, error) {
		return engine.ExecuteTx(ctx, tx, transfer.ExecuteRequest{
			SenderID:   system.WelcomeGrant,
			ReceiverID: receiverID,
			Amount:     amount,
			Metadata:   domain.TransferMetadata{Type: domain.TransferTypeWelcome},
		})
	}

	return account.NewService(
		repository.NewAccountRepository(db),
		repository.NewUserRepository(db),
		repository.NewCardRepository(db),
		repository.NewDB(db),
		welcomeAmount,
		welcome,
	)
}

func validCreateRequest(email string) account.CreateRequest {
	birthdate := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	return account.CreateRequest{
		Email:     email,
		Password:  "password123",
		FullName:  "Ana Silva",
		Birthdate: &birthdate,
		TaxNumber: "123456789",
		Address: domain.Address{
			LineOne:    "Rua das Flores 12",
			PostalCode: "1000-100",
			City:       "Lisboa",
			District:   "Lisboa",
		},
	}
}

func TestCreateAccount_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	acct, err := svc.Create(ctx, validCreateRequest("ana@test.com"))

	require.NoError(t, err)
	assert.Equal(t, "Ana Silva", acct.FullName)
	assert.Equal(t, int64(welcomeAmount), acct.Balance)
	assert.Equal(t, int64(welcomeAmount), testutil.GetAccountBalance(t, db, acct.ID))

	// The grant must be on the books as a regular transfer.
	var metaType string
	err = db.QueryRow(
		`SELECT metadata->>'type' FROM transfers WHERE receiver_id = $1`, acct.ID,
	).Scan(&metaType)
	require.NoError(t, err)
	assert.Equal(t, string(domain.TransferTypeWelcome), metaType)

	cards, err := svc.Cards(ctx, acct.ID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	kinds := map[domain.CardKind]bool{}
	for _, c := range cards {
		kinds[c.Kind] = true
		assert.Len(t, c.Number, 16)
		assert.Equal(t, "436339", c.Number[:6])
	}
	assert.True(t, kinds[domain.CardKindPhysical])
	assert.True(t, kinds[domain.CardKindVirtual])
}

func TestCreateAccount_ValidationRejections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	underage := time.Date(2010, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mutate  func(*account.CreateRequest)
		wantErr error
	}{
		{
			name:    "underscore in name",
			mutate:  func(r *account.CreateRequest) { r.FullName = "Ana_Silva" },
			wantErr: domain.ErrIllegalCharacter,
		},
		{
			name:    "underage holder",
			mutate:  func(r *account.CreateRequest) { r.Birthdate = &underage },
			wantErr: domain.ErrUnderage,
		},
		{
			name:    "missing birthdate",
			mutate:  func(r *account.CreateRequest) { r.Birthdate = nil },
			wantErr: domain.ErrUnderage,
		},
		{
			name:    "bad tax number check digit",
			mutate:  func(r *account.CreateRequest) { r.TaxNumber = "123456780" },
			wantErr: domain.ErrInvalidTaxNumber,
		},
		{
			name:    "postal code without dash",
			mutate:  func(r *account.CreateRequest) { r.Address.PostalCode = "1000100" },
			wantErr: domain.ErrInvalidPostalCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest("reject@test.com")
			tt.mutate(&req)
			_, err := svc.Create(ctx, req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Nothing was written for any rejected request.
	var users int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&users))
	assert.Equal(t, 0, users)
}

func TestCreateAccount_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	_, err := svc.Create(ctx, validCreateRequest("ana@test.com"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, validCreateRequest("ana@test.com"))
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestCreateAccount_GrantFailureRollsBackSignup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	grantRefused := errors.New("grant refused")
	welcome := func(context.Context, *sql.Tx, int64, int64) (*domain.Transfer, error) {
		return nil, grantRefused
	}
	svc := account.NewService(
		repository.NewAccountRepository(db),
		repository.NewUserRepository(db),
		repository.NewCardRepository(db),
		repository.NewDB(db),
		welcomeAmount,
		welcome,
	)

	_, err := svc.Create(ctx, validCreateRequest("ana@test.com"))
	require.ErrorIs(t, err, grantRefused)

	// The whole signup rolls back with the grant; no ungranted account
	// is ever left behind.
	var users int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&users))
	assert.Equal(t, 0, users)
}

func TestAuthenticate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreateRequest("ana@test.com"))
	require.NoError(t, err)

	acct, err := svc.Authenticate(ctx, "ana@test.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, acct.ID)

	_, err = svc.Authenticate(ctx, "ana@test.com", "wrong-password")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Authenticate(ctx, "nobody@test.com", "password123")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCloseAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupAccountService(t, db)
	ctx := context.Background()

	acct, err := svc.Create(ctx, validCreateRequest("ana@test.com"))
	require.NoError(t, err)

	// The welcome grant leaves a balance, so the close is rejected.
	err = svc.Close(ctx, acct.ID)
	require.ErrorIs(t, err, domain.ErrAccountHasBalance)

	_, err = db.Exec(`UPDATE accounts SET balance = 0 WHERE id = $1`, acct.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Close(ctx, acct.ID))

	_, err = svc.GetByID(ctx, acct.ID)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	// Closure cascades to the login and cards but not to the audit trail.
	var users, cards, transfers int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&users))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM cards WHERE account_id = $1`, acct.ID).Scan(&cards))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM transfers WHERE receiver_id = $1`, acct.ID).Scan(&transfers))
	assert.Equal(t, 0, users)
	assert.Equal(t, 0, cards)
	assert.Equal(t, 1, transfers)
}
