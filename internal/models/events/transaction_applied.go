package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionApplied is emitted after a transaction commits. Consumers
// must treat delivery as at-least-once; TransactionID dedupes.
type TransactionApplied struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	UserID        int64           `json:"user_id"`
	AccountID     int64           `json:"account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
