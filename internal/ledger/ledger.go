// Package ledger sequences inbound transaction ingestion: signature
// verification, idempotency check, user lookup, then the durable apply.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/signetpay/payment-ledger-service/internal/interfaces"
	"github.com/signetpay/payment-ledger-service/internal/models"
	"github.com/signetpay/payment-ledger-service/internal/models/events"
	"github.com/signetpay/payment-ledger-service/internal/signature"
)

// Ledger is the ingestion orchestrator. It holds no mutable state of
// its own; all shared state lives in the store, so concurrent calls
// are safe.
type Ledger struct {
	verifier  *signature.Verifier
	store     interfaces.LedgerStore
	users     interfaces.UserDirectory
	publisher interfaces.EventPublisher
	log       zerolog.Logger
}

// New wires the orchestrator. publisher may be nil, in which case no
// events are emitted.
func New(
	verifier *signature.Verifier,
	store interfaces.LedgerStore,
	users interfaces.UserDirectory,
	publisher interfaces.EventPublisher,
	log zerolog.Logger,
) *Ledger {
	return &Ledger{
		verifier:  verifier,
		store:     store,
		users:     users,
		publisher: publisher,
		log:       log,
	}
}

// IngestTransaction applies one inbound transaction end to end and
// returns a receipt, or one of the rejection errors:
//
//	models.ErrInvalidSignature     — digest mismatch, nothing touched
//	models.ErrDuplicateTransaction — idempotency key already recorded
//	models.ErrUnknownUser          — referenced user does not exist
//	models.ErrInsufficientFunds    — overdraft disabled and balance would go negative
//
// Any other error is a storage failure; the durable unit guarantees no
// partial state survived and the caller may retry. Nothing is retried
// here.
func (l *Ledger) IngestTransaction(ctx context.Context, in models.InboundTransaction) (*models.Receipt, error) {
	if !l.verifier.Verify(in) {
		return nil, models.ErrInvalidSignature
	}

	existing, err := l.store.FindTransaction(ctx, in.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}

	if existing != nil {
		return nil, models.ErrDuplicateTransaction
	}

	exists, err := l.users.UserExists(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}

	if !exists {
		return nil, models.ErrUnknownUser
	}

	tx, acct, err := l.store.Apply(ctx, in)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateTransaction) || errors.Is(err, models.ErrInsufficientFunds) {
			return nil, err
		}

		return nil, fmt.Errorf("apply transaction: %w", err)
	}

	l.publishApplied(ctx, in, tx, acct)

	return &models.Receipt{
		TransactionID: tx.TransactionID,
		UserID:        acct.UserID,
		AccountID:     acct.UserAccountID,
		Amount:        tx.Amount,
		CreatedAt:     tx.CreatedAt,
	}, nil
}

// publishApplied emits the post-commit event. A broker failure is
// logged and swallowed: the transaction has already committed.
func (l *Ledger) publishApplied(ctx context.Context, in models.InboundTransaction, tx *models.Transaction, acct *models.Account) {
	if l.publisher == nil {
		return
	}

	event := events.TransactionApplied{
		TransactionID: tx.TransactionID,
		UserID:        acct.UserID,
		AccountID:     acct.UserAccountID,
		Amount:        tx.Amount,
		Balance:       acct.Balance,
		OccurredAt:    tx.CreatedAt,
	}

	if err := l.publisher.Publish(ctx, event); err != nil {
		l.log.Error().
			Err(err).
			Str("transaction_id", in.TransactionID.String()).
			Msg("failed to publish transaction event")
	}
}
