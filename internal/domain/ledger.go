package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Action is the kind of ledger event.
type Action string

const (
	ActionBuy        Action = "buy"
	ActionSell       Action = "sell"
	ActionTransfer   Action = "transfer"
	ActionDividend   Action = "dividend"
	ActionCoupon     Action = "coupon"
	ActionAdjustment Action = "adjustment"
)

// ParseAction parses a string into an Action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionBuy, ActionSell, ActionTransfer, ActionDividend, ActionCoupon, ActionAdjustment:
		return Action(s), nil
	default:
		return "", fmt.Errorf("unknown ledger action: %q", s)
	}
}

// LedgerEntry is a single append-only ledger event for a holding. Entries are
// totally ordered by (TS, ID) ascending; ID is the insertion sequence and breaks
// ties between entries sharing a timestamp.
type LedgerEntry struct {
	ID        int64           `json:"id"`
	HoldingID int64           `json:"holdingId"`
	AccountID *int64          `json:"accountId,omitempty"`
	TS        time.Time       `json:"ts"`
	Action    Action          `json:"action"`
	Qty       decimal.Decimal `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Fee       decimal.Decimal `json:"fee"`
	Note      string          `json:"note,omitempty"`
	CreatedAt time.Time       `json:"createdAt,omitempty"`
}

// Validate rejects malformed entries at the store boundary so the engine never
// has to zero financial quantities silently.
func (e LedgerEntry) Validate() error {
	if _, err := ParseAction(string(e.Action)); err != nil {
		return err
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ledger entry missing timestamp")
	}
	if e.Qty.IsNegative() {
		return fmt.Errorf("ledger entry quantity must not be negative: %s", e.Qty)
	}
	if e.Price.IsNegative() {
		return fmt.Errorf("ledger entry price must not be negative: %s", e.Price)
	}
	if e.Fee.IsNegative() {
		return fmt.Errorf("ledger entry fee must not be negative: %s", e.Fee)
	}
	return nil
}
