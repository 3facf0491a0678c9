package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one immutable application of a signed amount to an
// account. TransactionID is the caller-supplied idempotency key;
// CreatedAt is assigned at persistence time.
type Transaction struct {
	ID            int64           `json:"-"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	AccountID     int64           `json:"account_id"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"transaction_date"`
}

// InboundTransaction is the ephemeral tuple received at the boundary.
// It is consumed exactly once by the ingestion path and never persisted
// as such.
type InboundTransaction struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	UserID        int64           `json:"user_id"`
	AccountID     int64           `json:"account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Signature     string          `json:"signature"`
}

// Receipt is returned to the caller after a transaction is applied.
type Receipt struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	UserID        int64           `json:"user_id"`
	AccountID     int64           `json:"account_id"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"transaction_date"`
}
