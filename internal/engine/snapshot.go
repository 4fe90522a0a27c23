package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/portfel/tracker/internal/domain"
)

// Snapshot is one consistent read of the price and FX stores, taken once at
// the start of a portfolio computation. Every holding in the computation
// resolves against the same snapshot, so a concurrent refresh can never mix
// pre- and post-refresh rates within one summary.
type Snapshot struct {
	prices    map[int64]domain.PricePoint
	rates     map[string]domain.FXRate
	reporting string
}

// NewSnapshot builds a snapshot from the latest price per holding and the
// observed directed rates. If the rate slice carries several observations for
// one pair, the most recent wins.
func NewSnapshot(prices map[int64]domain.PricePoint, rates []domain.FXRate, reporting string) Snapshot {
	byPair := make(map[string]domain.FXRate, len(rates))
	for _, r := range rates {
		key := pairKey(r.Base, r.Quote)
		if prev, ok := byPair[key]; ok && !r.TS.After(prev.TS) {
			continue
		}
		byPair[key] = r
	}
	return Snapshot{prices: prices, rates: byPair, reporting: reporting}
}

// Reporting returns the reporting currency of the snapshot.
func (s Snapshot) Reporting() string {
	return s.reporting
}

// Price returns the latest observed price for a holding, if any.
func (s Snapshot) Price(holdingID int64) (decimal.Decimal, bool) {
	p, ok := s.prices[holdingID]
	if !ok {
		return decimal.Zero, false
	}
	return p.Price, true
}

// Rate resolves a conversion rate from one currency to another. Resolution
// order: identity, direct observed rate, inverted inverse observation. When
// nothing is observed the rate degrades to 1 and found is false, so callers
// can flag the figure instead of mistaking it for a real conversion.
func (s Snapshot) Rate(from, to string) (rate decimal.Decimal, found bool) {
	if from == to {
		return decimal.NewFromInt(1), true
	}
	if r, ok := s.rates[pairKey(from, to)]; ok {
		return r.Rate, true
	}
	if r, ok := s.rates[pairKey(to, from)]; ok && !r.Rate.IsZero() {
		return decimal.NewFromInt(1).Div(r.Rate), true
	}
	return decimal.NewFromInt(1), false
}

func pairKey(base, quote string) string {
	return fmt.Sprintf("%s/%s", base, quote)
}
