package domain

import "github.com/shopspring/decimal"

// Lot is a batch of units acquired together, tracked with its own unit cost
// (acquisition fee amortized in) until fully consumed. Lots exist only as
// working state inside the FIFO replay; they are never persisted.
type Lot struct {
	Qty      decimal.Decimal `json:"qty"`
	UnitCost decimal.Decimal `json:"unitCost"`
}

// Cost returns the total cost of the lot.
func (l Lot) Cost() decimal.Decimal {
	return l.Qty.Mul(l.UnitCost)
}

// Position is the derived state of one holding, recomputed in full from the
// ledger on every call. AvgCost, CurrentPrice and ValueNative are in the
// holding currency; ValueReporting, UnrealizedPL and RealizedPL are in the
// reporting currency.
type Position struct {
	Holding        Holding         `json:"holding"`
	Qty            decimal.Decimal `json:"qty"`
	AvgCost        decimal.Decimal `json:"avgCost"`
	CurrentPrice   decimal.Decimal `json:"currentPrice"`
	ValueNative    decimal.Decimal `json:"valueNative"`
	ValueReporting decimal.Decimal `json:"valueReporting"`
	UnrealizedPL   decimal.Decimal `json:"unrealizedPl"`
	RealizedPL     decimal.Decimal `json:"realizedPl"`

	// Diagnostic channel: fallbacks and truncations that the figures above
	// absorbed without failing.
	PriceFallback bool            `json:"priceFallback,omitempty"`
	RateFallback  bool            `json:"rateFallback,omitempty"`
	Oversold      decimal.Decimal `json:"oversold,omitempty"`
}

// Degraded reports whether any figure in the position is a fallback estimate
// rather than a market-data-backed value.
func (p Position) Degraded() bool {
	return p.PriceFallback || p.RateFallback
}

// Summary holds portfolio-wide totals in the reporting currency.
type Summary struct {
	NetWorth      decimal.Decimal `json:"netWorth"`
	HoldingsValue decimal.Decimal `json:"holdingsValue"`
	UnrealizedPL  decimal.Decimal `json:"unrealizedPl"`
	RealizedPL    decimal.Decimal `json:"realizedPl"`
	Cash          decimal.Decimal `json:"cash"`
	Currency      string          `json:"currency"`
	Degraded      bool            `json:"degraded,omitempty"`
	Warnings      []string        `json:"warnings,omitempty"`
}
