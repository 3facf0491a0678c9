package models

import "errors"

var (
	// ErrInvalidSignature indicates the recomputed digest did not match
	// the supplied signature. Never retried, no side effects.
	ErrInvalidSignature = errors.New("transaction signature is not correct")

	// ErrDuplicateTransaction indicates the transaction identifier has
	// already been recorded. The request is a no-op.
	ErrDuplicateTransaction = errors.New("transaction already exists")

	// ErrUnknownUser indicates the referenced user does not exist.
	ErrUnknownUser = errors.New("user doesn't exist")

	// ErrInsufficientFunds indicates a debit would take the balance
	// negative while overdraft is disabled.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUserNotFound indicates a user lookup by id found nothing.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUsernameTaken indicates the username is already in use.
	ErrUsernameTaken = errors.New("username already taken")
)
