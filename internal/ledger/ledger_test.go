package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signetpay/payment-ledger-service/internal/logger"
	"github.com/signetpay/payment-ledger-service/internal/models"
	"github.com/signetpay/payment-ledger-service/internal/models/events"
	"github.com/signetpay/payment-ledger-service/internal/signature"
	"github.com/signetpay/payment-ledger-service/internal/storage/memory"
)

const testSecret = "s3cret"

type recordingPublisher struct {
	published []any
}

func (p *recordingPublisher) Publish(ctx context.Context, event any) error {
	p.published = append(p.published, event)
	return nil
}

type fixture struct {
	ledger    *Ledger
	store     *memory.Store
	verifier  *signature.Verifier
	publisher *recordingPublisher
	userID    int64
}

func newFixture(t *testing.T, allowOverdraft bool) *fixture {
	t.Helper()

	store := memory.NewStore(allowOverdraft)
	verifier := signature.NewVerifier(testSecret)
	publisher := &recordingPublisher{}

	user, err := store.CreateUser(context.Background(), models.User{
		Username: "alice",
		Email:    "alice@example.com",
		Role:     models.RoleUser,
		IsActive: true,
	})
	require.NoError(t, err)

	log := logger.NewWithWriter(nullWriter{})

	return &fixture{
		ledger:    New(verifier, store, store, publisher, log),
		store:     store,
		verifier:  verifier,
		publisher: publisher,
		userID:    user.ID,
	}
}

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }

func (f *fixture) signed(t *testing.T, userID, accountID int64, amount string) models.InboundTransaction {
	t.Helper()

	in := models.InboundTransaction{
		TransactionID: uuid.New(),
		UserID:        userID,
		AccountID:     accountID,
		Amount:        decimal.RequireFromString(amount),
	}
	in.Signature = f.verifier.Digest(in)

	return in
}

func TestIngestAppliesFirstTransaction(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	in := f.signed(t, f.userID, 3, "100.00")

	receipt, err := f.ledger.IngestTransaction(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, in.TransactionID, receipt.TransactionID)
	assert.Equal(t, f.userID, receipt.UserID)
	assert.Equal(t, int64(3), receipt.AccountID)
	assert.True(t, receipt.Amount.Equal(decimal.RequireFromString("100.00")))
	assert.False(t, receipt.CreatedAt.IsZero())

	// First transaction seeds the account; the amount is applied
	// exactly once, never doubled.
	acct, err := f.store.FindAccount(ctx, f.userID, 3)
	require.NoError(t, err)
	require.NotNil(t, acct)
	assert.True(t, acct.Balance.Equal(decimal.RequireFromString("100.00")),
		"balance = %s, want 100.00", acct.Balance)
}

func TestIngestDuplicateIsRejectedWithoutMutation(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	in := f.signed(t, f.userID, 3, "100.00")

	_, err := f.ledger.IngestTransaction(ctx, in)
	require.NoError(t, err)

	_, err = f.ledger.IngestTransaction(ctx, in)
	assert.ErrorIs(t, err, models.ErrDuplicateTransaction)

	acct, err := f.store.FindAccount(ctx, f.userID, 3)
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(decimal.RequireFromString("100.00")),
		"duplicate must not change the balance, got %s", acct.Balance)
}

func TestIngestInvalidSignatureTouchesNothing(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	in := f.signed(t, f.userID, 3, "100.00")
	in.Signature = "not-the-right-signature"

	_, err := f.ledger.IngestTransaction(ctx, in)
	assert.ErrorIs(t, err, models.ErrInvalidSignature)

	acct, err := f.store.FindAccount(ctx, f.userID, 3)
	require.NoError(t, err)
	assert.Nil(t, acct, "rejected request must not create an account")

	tx, err := f.store.FindTransaction(ctx, in.TransactionID)
	require.NoError(t, err)
	assert.Nil(t, tx, "rejected request must not record a transaction")
}

func TestIngestRejectsBeforeAnyStoreAccess(t *testing.T) {
	verifier := signature.NewVerifier(testSecret)
	log := logger.NewWithWriter(nullWriter{})

	// Any store or directory access fails the test: the signature check
	// must come first.
	l := New(verifier, untouchableStore{t: t}, untouchableDirectory{t: t}, nil, log)

	in := models.InboundTransaction{
		TransactionID: uuid.New(),
		UserID:        7,
		AccountID:     3,
		Amount:        decimal.RequireFromString("5.00"),
		Signature:     "bogus",
	}

	_, err := l.IngestTransaction(context.Background(), in)
	assert.ErrorIs(t, err, models.ErrInvalidSignature)
}

func TestIngestUnknownUser(t *testing.T) {
	f := newFixture(t, true)

	in := f.signed(t, 9999, 3, "10.00")

	_, err := f.ledger.IngestTransaction(context.Background(), in)
	assert.ErrorIs(t, err, models.ErrUnknownUser)
}

func TestIngestAccumulatesExactDecimals(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	for _, amount := range []string{"0.10", "0.20"} {
		_, err := f.ledger.IngestTransaction(ctx, f.signed(t, f.userID, 1, amount))
		require.NoError(t, err)
	}

	acct, err := f.store.FindAccount(ctx, f.userID, 1)
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(decimal.RequireFromString("0.30")),
		"0.10 + 0.20 must be exactly 0.30, got %s", acct.Balance)
}

func TestIngestAccumulationAcrossManyTransactions(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	amounts := []string{"100.00", "-25.50", "0.01", "399.49"}
	for _, amount := range amounts {
		_, err := f.ledger.IngestTransaction(ctx, f.signed(t, f.userID, 2, amount))
		require.NoError(t, err)
	}

	acct, err := f.store.FindAccount(ctx, f.userID, 2)
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(decimal.RequireFromString("474.00")),
		"balance = %s, want 474.00", acct.Balance)
}

func TestIngestStorageFailureLeavesNoPartialState(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	// Seed the account first.
	_, err := f.ledger.IngestTransaction(ctx, f.signed(t, f.userID, 3, "100.00"))
	require.NoError(t, err)

	boom := errors.New("disk on fire")
	f.store.FailNextApply(boom)

	in := f.signed(t, f.userID, 3, "50.00")

	_, err = f.ledger.IngestTransaction(ctx, in)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, models.ErrInvalidSignature)
	assert.NotErrorIs(t, err, models.ErrDuplicateTransaction)

	f.store.FailNextApply(nil)

	acct, err := f.store.FindAccount(ctx, f.userID, 3)
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(decimal.RequireFromString("100.00")),
		"failed apply must not mutate the balance, got %s", acct.Balance)

	tx, err := f.store.FindTransaction(ctx, in.TransactionID)
	require.NoError(t, err)
	assert.Nil(t, tx, "failed apply must not record the transaction")
}

func TestIngestOverdraftPolicy(t *testing.T) {
	t.Run("allowed by default", func(t *testing.T) {
		f := newFixture(t, true)
		ctx := context.Background()

		_, err := f.ledger.IngestTransaction(ctx, f.signed(t, f.userID, 3, "10.00"))
		require.NoError(t, err)

		_, err = f.ledger.IngestTransaction(ctx, f.signed(t, f.userID, 3, "-25.00"))
		require.NoError(t, err)

		acct, err := f.store.FindAccount(ctx, f.userID, 3)
		require.NoError(t, err)
		assert.True(t, acct.Balance.Equal(decimal.RequireFromString("-15.00")))
	})

	t.Run("rejected when disabled", func(t *testing.T) {
		f := newFixture(t, false)
		ctx := context.Background()

		_, err := f.ledger.IngestTransaction(ctx, f.signed(t, f.userID, 3, "10.00"))
		require.NoError(t, err)

		in := f.signed(t, f.userID, 3, "-25.00")

		_, err = f.ledger.IngestTransaction(ctx, in)
		assert.ErrorIs(t, err, models.ErrInsufficientFunds)

		acct, err := f.store.FindAccount(ctx, f.userID, 3)
		require.NoError(t, err)
		assert.True(t, acct.Balance.Equal(decimal.RequireFromString("10.00")),
			"rejected debit must not change the balance")

		tx, err := f.store.FindTransaction(ctx, in.TransactionID)
		require.NoError(t, err)
		assert.Nil(t, tx)
	})
}

func TestIngestPublishesAppliedEvent(t *testing.T) {
	f := newFixture(t, true)

	in := f.signed(t, f.userID, 3, "100.00")

	_, err := f.ledger.IngestTransaction(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, f.publisher.published, 1)

	event, ok := f.publisher.published[0].(events.TransactionApplied)
	require.True(t, ok)
	assert.Equal(t, in.TransactionID, event.TransactionID)
	assert.True(t, event.Balance.Equal(decimal.RequireFromString("100.00")))
}

func TestIngestSurvivesPublisherFailure(t *testing.T) {
	store := memory.NewStore(true)
	verifier := signature.NewVerifier(testSecret)
	log := logger.NewWithWriter(nullWriter{})

	user, err := store.CreateUser(context.Background(), models.User{Username: "bob", Email: "bob@example.com", IsActive: true})
	require.NoError(t, err)

	l := New(verifier, store, store, failingPublisher{}, log)

	in := models.InboundTransaction{
		TransactionID: uuid.New(),
		UserID:        user.ID,
		AccountID:     1,
		Amount:        decimal.RequireFromString("9.99"),
	}
	in.Signature = verifier.Digest(in)

	receipt, err := l.IngestTransaction(context.Background(), in)
	require.NoError(t, err, "a broker outage must not fail a committed transaction")
	assert.NotNil(t, receipt)
}

type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, event any) error {
	return errors.New("broker unreachable")
}

type untouchableStore struct{ t *testing.T }

func (s untouchableStore) FindTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	s.t.Fatal("store accessed for a request with an invalid signature")
	return nil, nil
}

func (s untouchableStore) FindAccount(ctx context.Context, userID, userAccountID int64) (*models.Account, error) {
	s.t.Fatal("store accessed for a request with an invalid signature")
	return nil, nil
}

func (s untouchableStore) Apply(ctx context.Context, in models.InboundTransaction) (*models.Transaction, *models.Account, error) {
	s.t.Fatal("store accessed for a request with an invalid signature")
	return nil, nil, nil
}

type untouchableDirectory struct{ t *testing.T }

func (d untouchableDirectory) UserExists(ctx context.Context, userID int64) (bool, error) {
	d.t.Fatal("user directory accessed for a request with an invalid signature")
	return false, nil
}
