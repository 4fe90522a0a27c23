package engine

import (
	"fmt"

	"github.com/portfel/tracker/internal/domain"
)

// Compute derives the position of one holding from its full ledger and a
// market snapshot. It returns nil when the holding has no entries or no
// remaining quantity; such holdings do not appear in position listings.
//
// With no price observation the position's own average cost stands in for the
// current price, making unrealized P/L zero until real data arrives. With no
// FX observation the value is carried over 1:1. Both fallbacks are marked on
// the returned position.
func Compute(h domain.Holding, entries []domain.LedgerEntry, snap Snapshot) (*domain.Position, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	state, err := Replay(entries)
	if err != nil {
		return nil, fmt.Errorf("replaying ledger for %s: %w", h.Key(), err)
	}

	qty := state.TotalQty()
	if qty.IsZero() {
		return nil, nil
	}

	totalCost := state.TotalCost()
	avgCost := totalCost.Div(qty)

	price, priceOK := snap.Price(h.ID)
	if !priceOK {
		price = avgCost
	}
	valueNative := qty.Mul(price)

	rate, rateOK := snap.Rate(h.Currency, snap.Reporting())
	valueReporting := valueNative.Mul(rate)
	costReporting := totalCost.Mul(rate)

	return &domain.Position{
		Holding:        h,
		Qty:            qty,
		AvgCost:        avgCost,
		CurrentPrice:   price,
		ValueNative:    valueNative,
		ValueReporting: valueReporting,
		UnrealizedPL:   valueReporting.Sub(costReporting),
		RealizedPL:     state.RealizedPL.Mul(rate),
		PriceFallback:  !priceOK,
		RateFallback:   !rateOK,
		Oversold:       state.Oversold,
	}, nil
}
