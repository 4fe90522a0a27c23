package engine

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/portfel/tracker/internal/domain"
)

// Summarize folds positions and active cash balances into portfolio-wide
// totals. Cash balances arrive already denominated in the reporting currency;
// that invariant belongs to the account store and is not re-verified here.
// Zero-quantity holdings were already excluded by Compute.
func Summarize(positions []domain.Position, accounts []domain.Account, reporting string) domain.Summary {
	holdingsValue := lo.Reduce(positions, func(acc decimal.Decimal, p domain.Position, _ int) decimal.Decimal {
		return acc.Add(p.ValueReporting)
	}, decimal.Zero)

	unrealized := lo.Reduce(positions, func(acc decimal.Decimal, p domain.Position, _ int) decimal.Decimal {
		return acc.Add(p.UnrealizedPL)
	}, decimal.Zero)

	realized := lo.Reduce(positions, func(acc decimal.Decimal, p domain.Position, _ int) decimal.Decimal {
		return acc.Add(p.RealizedPL)
	}, decimal.Zero)

	cash := lo.Reduce(accounts, func(acc decimal.Decimal, a domain.Account, _ int) decimal.Decimal {
		if !a.Active {
			return acc
		}
		return acc.Add(a.Balance)
	}, decimal.Zero)

	var warnings []string
	for _, p := range positions {
		if p.Oversold.IsPositive() {
			warnings = append(warnings, fmt.Sprintf("%s: sold %s units more than held, shortfall dropped", p.Holding.Key(), p.Oversold))
		}
		if p.RateFallback {
			warnings = append(warnings, fmt.Sprintf("%s: no %s->%s rate, converted 1:1", p.Holding.Key(), p.Holding.Currency, reporting))
		}
	}

	return domain.Summary{
		NetWorth:      holdingsValue.Add(cash),
		HoldingsValue: holdingsValue,
		UnrealizedPL:  unrealized,
		RealizedPL:    realized,
		Cash:          cash,
		Currency:      reporting,
		Degraded:      lo.SomeBy(positions, domain.Position.Degraded),
		Warnings:      warnings,
	}
}
