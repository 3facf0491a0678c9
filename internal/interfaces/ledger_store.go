package interfaces

import (
	"context"

	"github.com/google/uuid"

	"github.com/signetpay/payment-ledger-service/internal/models"
)

// LedgerStore is the durable store behind the ingestion path. Any
// implementation must make Apply all-or-nothing: either the account
// upsert and the transaction insert both commit, or neither does.
type LedgerStore interface {
	// FindTransaction returns the transaction with the given id, or
	// (nil, nil) when none exists. Used as the idempotency pre-check;
	// the unique constraint enforced inside Apply stays authoritative.
	FindTransaction(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error)

	// FindAccount returns the account for (userID, userAccountID), or
	// (nil, nil) when none exists.
	FindAccount(ctx context.Context, userID, userAccountID int64) (*models.Account, error)

	// Apply resolves the target account (creating it seeded with the
	// amount when absent, adding the amount when present), inserts the
	// transaction record, and commits both as one durable unit. It
	// returns the persisted transaction and the account as committed.
	//
	// Apply returns models.ErrDuplicateTransaction when the transaction
	// id is already recorded and models.ErrInsufficientFunds when the
	// overdraft policy rejects the mutation.
	Apply(ctx context.Context, in models.InboundTransaction) (*models.Transaction, *models.Account, error)
}
