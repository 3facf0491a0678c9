package models

import "github.com/shopspring/decimal"

// Account is a balance-bearing ledger row scoped to one user. A user
// addresses their accounts by UserAccountID; ID is the internal key.
// Balance is decimal(18,2) and is only ever mutated inside the store's
// durable unit.
type Account struct {
	ID            int64           `json:"-"`
	UserID        int64           `json:"user_id"`
	UserAccountID int64           `json:"account_id"`
	Balance       decimal.Decimal `json:"balance"`
}
