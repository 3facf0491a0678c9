package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/signetpay/payment-ledger-service/internal/interfaces"
	"github.com/signetpay/payment-ledger-service/internal/models"
)

// Store implements the ledger and user stores on Postgres via
// database/sql and lib/pq. The unique constraints on
// transactions.transaction_id and accounts (user_id, user_account_id)
// are the authoritative guards; pre-checks above this layer are
// optimizations only.
type Store struct {
	db             *sql.DB
	allowOverdraft bool
}

func NewStore(db *sql.DB, allowOverdraft bool) *Store {
	return &Store{db: db, allowOverdraft: allowOverdraft}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

func (s *Store) FindTransaction(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	const query = `SELECT id, transaction_id, account_id, amount, created_at
		FROM transactions WHERE transaction_id = $1`

	var tx models.Transaction

	err := s.db.QueryRowContext(ctx, query, transactionID).Scan(
		&tx.ID, &tx.TransactionID, &tx.AccountID, &tx.Amount, &tx.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("find transaction: %w", err)
	}

	return &tx, nil
}

func (s *Store) FindAccount(ctx context.Context, userID, userAccountID int64) (*models.Account, error) {
	const query = `SELECT id, user_id, user_account_id, balance
		FROM accounts WHERE user_id = $1 AND user_account_id = $2`

	var acct models.Account

	err := s.db.QueryRowContext(ctx, query, userID, userAccountID).Scan(
		&acct.ID, &acct.UserID, &acct.UserAccountID, &acct.Balance,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}

	return &acct, nil
}

// Apply runs the account upsert and the transaction insert in one
// database transaction. A freshly created account is seeded with the
// amount and gets no further balance update; a pre-existing account is
// locked (FOR UPDATE) and incremented. Two concurrent requests against
// a new (user, account) pair are resolved by the ON CONFLICT insert:
// the loser sees no returned row and falls through to the locked
// update path.
func (s *Store) Apply(ctx context.Context, in models.InboundTransaction) (tx *models.Transaction, acct *models.Account, err error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin: %w", err)
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	acct, err = s.upsertAccount(ctx, dbTx, in)
	if err != nil {
		return nil, nil, err
	}

	tx, err = s.insertTransaction(ctx, dbTx, in, acct.ID)
	if err != nil {
		return nil, nil, err
	}

	if err = dbTx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}

	return tx, acct, nil
}

func (s *Store) upsertAccount(ctx context.Context, dbTx *sql.Tx, in models.InboundTransaction) (*models.Account, error) {
	const insert = `INSERT INTO accounts (user_id, user_account_id, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, user_account_id) DO NOTHING
		RETURNING id, user_id, user_account_id, balance`

	acct := &models.Account{}

	err := dbTx.QueryRowContext(ctx, insert, in.UserID, in.AccountID, in.Amount).Scan(
		&acct.ID, &acct.UserID, &acct.UserAccountID, &acct.Balance,
	)

	switch {
	case err == nil:
		// Created and seeded with the amount in one step; no second
		// application of the amount happens below.
		if !s.allowOverdraft && acct.Balance.IsNegative() {
			return nil, models.ErrInsufficientFunds
		}

		return acct, nil

	case errors.Is(err, sql.ErrNoRows):
		return s.updateAccountBalance(ctx, dbTx, in)

	default:
		return nil, fmt.Errorf("create account: %w", err)
	}
}

func (s *Store) updateAccountBalance(ctx context.Context, dbTx *sql.Tx, in models.InboundTransaction) (*models.Account, error) {
	const lock = `SELECT id, user_id, user_account_id, balance
		FROM accounts WHERE user_id = $1 AND user_account_id = $2
		FOR UPDATE`

	acct := &models.Account{}

	err := dbTx.QueryRowContext(ctx, lock, in.UserID, in.AccountID).Scan(
		&acct.ID, &acct.UserID, &acct.UserAccountID, &acct.Balance,
	)
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}

	acct.Balance = acct.Balance.Add(in.Amount)

	if !s.allowOverdraft && acct.Balance.IsNegative() {
		return nil, models.ErrInsufficientFunds
	}

	const update = `UPDATE accounts SET balance = $1 WHERE id = $2`

	if _, err := dbTx.ExecContext(ctx, update, acct.Balance, acct.ID); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	return acct, nil
}

func (s *Store) insertTransaction(ctx context.Context, dbTx *sql.Tx, in models.InboundTransaction, accountID int64) (*models.Transaction, error) {
	const insert = `INSERT INTO transactions (transaction_id, account_id, amount)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	tx := &models.Transaction{
		TransactionID: in.TransactionID,
		AccountID:     accountID,
		Amount:        in.Amount,
	}

	err := dbTx.QueryRowContext(ctx, insert, in.TransactionID, accountID, in.Amount).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "transactions_transaction_id_key") {
			return nil, models.ErrDuplicateTransaction
		}

		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	return tx, nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation, optionally on a specific constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	if pqErr.Code != "23505" {
		return false
	}

	return constraint == "" || pqErr.Constraint == constraint
}

var (
	_ interfaces.LedgerStore = (*Store)(nil)
	_ interfaces.UserStore   = (*Store)(nil)
)
