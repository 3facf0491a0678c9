package interfaces

import (
	"context"

	"github.com/signetpay/payment-ledger-service/internal/models"
)

// UserDirectory is the narrow lookup the ingestion path needs: whether
// a referenced user exists at all.
type UserDirectory interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
}

// UserStore is the full user repository behind the HTTP layer. Reads
// that need related rows return fully-loaded aggregates; there is no
// lazy fetching.
type UserStore interface {
	UserDirectory

	GetUserByID(ctx context.Context, userID int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	// FindUserByCredentialsInUse reports which of the username/email pair
	// is already taken, if any, via models.ErrUsernameTaken or
	// models.ErrEmailTaken. Returns nil when both are free.
	FindUserByCredentialsInUse(ctx context.Context, username, email string) error

	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	UpdateUser(ctx context.Context, user models.User) (*models.User, error)

	// DeleteUser removes the user; accounts and their transactions go
	// with it (ON DELETE CASCADE).
	DeleteUser(ctx context.Context, userID int64) error

	GetUserAccounts(ctx context.Context, userID int64) ([]models.Account, error)
	GetUserTransactions(ctx context.Context, userID int64) ([]models.Transaction, error)
}
