package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one observed price for a holding, in the holding currency.
type PricePoint struct {
	ID        int64           `json:"id,omitempty"`
	HoldingID int64           `json:"holdingId"`
	TS        time.Time       `json:"ts"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Source    string          `json:"source"`
}

// FXRate is one directed rate observation: 1 unit of Base = Rate units of
// Quote. No implied inverse is stored; inversion happens at resolution time.
type FXRate struct {
	ID     int64           `json:"id,omitempty"`
	TS     time.Time       `json:"ts"`
	Base   string          `json:"base"`
	Quote  string          `json:"quote"`
	Rate   decimal.Decimal `json:"rate"`
	Source string          `json:"source"`
}
