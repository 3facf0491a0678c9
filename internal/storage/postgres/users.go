package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/signetpay/payment-ledger-service/internal/models"
)

func (s *Store) UserExists(ctx context.Context, userID int64) (bool, error) {
	const query = `SELECT 1 FROM users WHERE id = $1`

	var one int

	err := s.db.QueryRowContext(ctx, query, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}

	return true, nil
}

const userColumns = `id, username, email, first_name, last_name, password_hash, role, is_active, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User

	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return scanUser(s.db.QueryRowContext(ctx, query, userID))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User

	for rows.Next() {
		var u models.User

		err := rows.Scan(
			&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
			&u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}

		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func (s *Store) FindUserByCredentialsInUse(ctx context.Context, username, email string) error {
	const query = `SELECT username, email FROM users
		WHERE username = $1 OR email = $2 LIMIT 1`

	var takenUsername, takenEmail string

	err := s.db.QueryRowContext(ctx, query, username, email).Scan(&takenUsername, &takenEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("check credentials: %w", err)
	}

	if takenUsername == username {
		return models.ErrUsernameTaken
	}

	return models.ErrEmailTaken
}

func (s *Store) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const query = `INSERT INTO users (username, email, first_name, last_name, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.FirstName, user.LastName,
		user.PasswordHash, user.Role, user.IsActive,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		switch {
		case isUniqueViolation(err, "users_username_key"):
			return nil, models.ErrUsernameTaken
		case isUniqueViolation(err, "users_email_key"):
			return nil, models.ErrEmailTaken
		}

		return nil, fmt.Errorf("create user: %w", err)
	}

	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, user models.User) (*models.User, error) {
	const query = `UPDATE users
		SET username = $1, email = $2, first_name = $3, last_name = $4,
		    password_hash = $5, role = $6, is_active = $7
		WHERE id = $8
		RETURNING created_at`

	err := s.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.FirstName, user.LastName,
		user.PasswordHash, user.Role, user.IsActive, user.ID,
	).Scan(&user.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}

	if err != nil {
		switch {
		case isUniqueViolation(err, "users_username_key"):
			return nil, models.ErrUsernameTaken
		case isUniqueViolation(err, "users_email_key"):
			return nil, models.ErrEmailTaken
		}

		return nil, fmt.Errorf("update user: %w", err)
	}

	return &user, nil
}

// DeleteUser relies on ON DELETE CASCADE to take the user's accounts
// and their transactions with it.
func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	const query = `DELETE FROM users WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if affected == 0 {
		return models.ErrUserNotFound
	}

	return nil
}

func (s *Store) GetUserAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	const query = `SELECT id, user_id, user_account_id, balance
		FROM accounts WHERE user_id = $1 ORDER BY user_account_id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("user accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account

	for rows.Next() {
		var acct models.Account

		if err := rows.Scan(&acct.ID, &acct.UserID, &acct.UserAccountID, &acct.Balance); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}

		accounts = append(accounts, acct)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("user accounts: %w", err)
	}

	return accounts, nil
}

func (s *Store) GetUserTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	const query = `SELECT t.id, t.transaction_id, t.account_id, t.amount, t.created_at
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.user_id = $1
		ORDER BY t.id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("user transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction

	for rows.Next() {
		var tx models.Transaction

		if err := rows.Scan(&tx.ID, &tx.TransactionID, &tx.AccountID, &tx.Amount, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("user transactions: %w", err)
	}

	return txs, nil
}
