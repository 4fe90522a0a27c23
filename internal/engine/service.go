package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/portfel/tracker/internal/domain"
)

// LedgerStore is the read side of the transaction store. Entries are returned
// grouped per holding, ordered by (timestamp, insertion sequence) ascending.
type LedgerStore interface {
	Holdings(ctx context.Context) ([]domain.Holding, error)
	EntriesByHolding(ctx context.Context) (map[int64][]domain.LedgerEntry, error)
}

// PriceStore supplies the latest observed price per holding.
type PriceStore interface {
	LatestPrices(ctx context.Context) (map[int64]domain.PricePoint, error)
}

// FXStore supplies the latest observation per directed currency pair.
type FXStore interface {
	LatestRates(ctx context.Context) ([]domain.FXRate, error)
}

// AccountStore supplies active cash account balances for aggregation.
type AccountStore interface {
	ActiveBalances(ctx context.Context) ([]domain.Account, error)
}

// Service recomputes positions and the portfolio summary from the full ledger
// on every call. Each computation batch-fetches the ledger, price, and FX
// snapshots exactly once, then works on in-memory maps — one query per store,
// not one per holding, and a single consistent view throughout.
type Service struct {
	ledger    LedgerStore
	prices    PriceStore
	fx        FXStore
	accounts  AccountStore
	reporting string
}

// NewService creates the portfolio engine service. All stores are required.
func NewService(ledger LedgerStore, prices PriceStore, fx FXStore, accounts AccountStore, reporting string) *Service {
	if ledger == nil {
		panic("engine.NewService: ledger is nil")
	}
	if prices == nil {
		panic("engine.NewService: prices is nil")
	}
	if fx == nil {
		panic("engine.NewService: fx is nil")
	}
	if accounts == nil {
		panic("engine.NewService: accounts is nil")
	}
	return &Service{
		ledger:    ledger,
		prices:    prices,
		fx:        fx,
		accounts:  accounts,
		reporting: reporting,
	}
}

// Reporting returns the reporting currency.
func (s *Service) Reporting() string {
	return s.reporting
}

// Positions computes the current position of every holding with a non-zero
// remaining quantity, ordered by symbol.
func (s *Service) Positions(ctx context.Context) ([]domain.Position, error) {
	holdings, err := s.ledger.Holdings(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing holdings: %w", err)
	}
	entries, err := s.ledger.EntriesByHolding(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching ledger: %w", err)
	}
	prices, err := s.prices.LatestPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching price snapshot: %w", err)
	}
	rates, err := s.fx.LatestRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching FX snapshot: %w", err)
	}

	snap := NewSnapshot(prices, rates, s.reporting)

	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })

	positions := make([]domain.Position, 0, len(holdings))
	for _, h := range holdings {
		pos, err := Compute(h, entries[h.ID], snap)
		if err != nil {
			return nil, err
		}
		if pos == nil {
			continue
		}
		positions = append(positions, *pos)
	}
	return positions, nil
}

// Summary computes positions and folds them with active cash balances into
// the portfolio summary.
func (s *Service) Summary(ctx context.Context) (domain.Summary, error) {
	positions, err := s.Positions(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	accounts, err := s.accounts.ActiveBalances(ctx)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("fetching account balances: %w", err)
	}
	return Summarize(positions, accounts, s.reporting), nil
}
