package engine

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/portfel/tracker/internal/domain"
)

// ErrLedgerOrder indicates the supplied ledger violates its (timestamp,
// insertion sequence) ascending contract. This is a programming error in the
// store, not a data condition, and aborts the whole computation.
var ErrLedgerOrder = errors.New("ledger entries out of order")

// LotState is the outcome of replaying one holding's ledger: the remaining
// lots oldest-first, the realized profit/loss accumulated by sells (in the
// holding currency), and the total quantity of sells that found no matching
// lot.
type LotState struct {
	Lots       []domain.Lot
	RealizedPL decimal.Decimal
	Oversold   decimal.Decimal
}

// TotalQty returns the sum of remaining lot quantities.
func (s LotState) TotalQty() decimal.Decimal {
	return lo.Reduce(s.Lots, func(acc decimal.Decimal, l domain.Lot, _ int) decimal.Decimal {
		return acc.Add(l.Qty)
	}, decimal.Zero)
}

// TotalCost returns the sum of remaining lot costs.
func (s LotState) TotalCost() decimal.Decimal {
	return lo.Reduce(s.Lots, func(acc decimal.Decimal, l domain.Lot, _ int) decimal.Decimal {
		return acc.Add(l.Cost())
	}, decimal.Zero)
}

// Replay consumes one holding's full time-ordered ledger and produces the
// resulting lot state.
//
// Buys append a lot with the fee amortized into the unit cost (p + f/q); a buy
// with zero quantity is a no-op. Sells consume lots from the head of the
// queue, allocating the sell fee proportionally to each consumed increment.
// Selling more than is held truncates at the empty queue; the shortfall is
// recorded in Oversold instead of raising an error. Transfer, dividend, coupon
// and adjustment entries do not touch lots.
func Replay(entries []domain.LedgerEntry) (LotState, error) {
	state := LotState{
		RealizedPL: decimal.Zero,
		Oversold:   decimal.Zero,
	}

	for i, e := range entries {
		if i > 0 {
			prev := entries[i-1]
			if e.TS.Before(prev.TS) || (e.TS.Equal(prev.TS) && e.ID <= prev.ID) {
				return LotState{}, fmt.Errorf("entry %d before entry %d: %w", e.ID, prev.ID, ErrLedgerOrder)
			}
		}

		switch e.Action {
		case domain.ActionBuy:
			if e.Qty.IsPositive() {
				state.Lots = append(state.Lots, domain.Lot{
					Qty:      e.Qty,
					UnitCost: e.Price.Add(e.Fee.Div(e.Qty)),
				})
			}

		case domain.ActionSell:
			remaining := e.Qty
			for remaining.IsPositive() && len(state.Lots) > 0 {
				head := state.Lots[0]
				consumed := decimal.Min(head.Qty, remaining)

				proceeds := consumed.Mul(e.Price)
				cost := consumed.Mul(head.UnitCost)
				feeShare := e.Fee.Mul(consumed.Div(e.Qty))
				state.RealizedPL = state.RealizedPL.Add(proceeds.Sub(cost).Sub(feeShare))

				if head.Qty.LessThanOrEqual(remaining) {
					state.Lots = state.Lots[1:]
				} else {
					state.Lots[0].Qty = head.Qty.Sub(consumed)
				}
				remaining = remaining.Sub(consumed)
			}
			if remaining.IsPositive() {
				state.Oversold = state.Oversold.Add(remaining)
			}

		default:
			// transfer, dividend, coupon, adjustment affect cash accounts
			// only; they still occupy their slot in the ledger order.
		}
	}

	return state, nil
}
