package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a cash account. Balances are maintained by the account store and
// supplied to the aggregator as external facts, pre-converted to the reporting
// currency; the core never derives them.
type Account struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"createdAt,omitempty"`
}
