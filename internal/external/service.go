package external

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/portfel/tracker/internal/domain"
)

// HoldingSource lists the holdings whose prices need refreshing.
type HoldingSource interface {
	Holdings(ctx context.Context) ([]domain.Holding, error)
}

// MarketStore persists fetched price and rate observations.
type MarketStore interface {
	SavePrice(ctx context.Context, p domain.PricePoint) error
	SaveRate(ctx context.Context, fx domain.FXRate) error
}

// Service pulls fresh market data from the external providers and stores it.
// One holding's failed quote never aborts the rest of the refresh; the store
// simply keeps serving the previous observation for that holding.
type Service struct {
	holdings  HoldingSource
	store     MarketStore
	nbp       *NBPClient
	coingecko *CoinGeckoClient
	yahoo     *YahooClient
}

// NewService creates a new market data refresh service.
func NewService(holdings HoldingSource, store MarketStore, nbp *NBPClient, coingecko *CoinGeckoClient, yahoo *YahooClient) *Service {
	return &Service{
		holdings:  holdings,
		store:     store,
		nbp:       nbp,
		coingecko: coingecko,
		yahoo:     yahoo,
	}
}

// Refresh fetches and stores FX rates and a price for every priceable
// holding. Crypto holdings are batched per quote currency through CoinGecko;
// stocks, ETFs and bonds go through Yahoo one ticker at a time; cash holdings
// need no price.
func (s *Service) Refresh(ctx context.Context) error {
	holdings, err := s.holdings.Holdings(ctx)
	if err != nil {
		return fmt.Errorf("listing holdings for refresh: %w", err)
	}

	s.refreshRates(ctx)
	s.refreshCrypto(ctx, lo.Filter(holdings, func(h domain.Holding, _ int) bool {
		return h.Type == domain.AssetTypeCrypto
	}))
	s.refreshQuoted(ctx, lo.Filter(holdings, func(h domain.Holding, _ int) bool {
		return h.Type == domain.AssetTypeStock || h.Type == domain.AssetTypeETF || h.Type == domain.AssetTypeBond
	}))

	return nil
}

func (s *Service) refreshRates(ctx context.Context) {
	rates, err := s.nbp.FetchRates(ctx)
	if err != nil {
		slog.Warn("FX refresh failed", "error", err)
		return
	}
	saved := 0
	for _, r := range rates {
		if err := s.store.SaveRate(ctx, r); err != nil {
			slog.Warn("storing FX rate failed", "pair", r.Base+"/"+r.Quote, "error", err)
			continue
		}
		saved++
	}
	slog.Info("FX rates refreshed", "saved", saved)
}

func (s *Service) refreshCrypto(ctx context.Context, holdings []domain.Holding) {
	// One CoinGecko call per quote currency covers all symbols in it.
	byCurrency := lo.GroupBy(holdings, func(h domain.Holding) string { return h.Currency })

	for currency, group := range byCurrency {
		symbols := lo.Map(group, func(h domain.Holding, _ int) string { return h.Symbol })
		prices, err := s.coingecko.FetchPrices(ctx, symbols, currency)
		if err != nil {
			slog.Warn("crypto price refresh failed", "currency", currency, "error", err)
			continue
		}

		now := time.Now().UTC()
		for _, h := range group {
			price, ok := prices[strings.ToUpper(h.Symbol)]
			if !ok {
				slog.Warn("no CoinGecko price", "holding", h.Key())
				continue
			}
			s.savePrice(ctx, domain.PricePoint{
				HoldingID: h.ID,
				TS:        now,
				Price:     price,
				Currency:  h.Currency,
				Source:    "coingecko",
			})
		}
	}
}

func (s *Service) refreshQuoted(ctx context.Context, holdings []domain.Holding) {
	for _, h := range holdings {
		price, currency, err := s.yahoo.FetchQuote(ctx, h.Symbol)
		if err != nil {
			slog.Warn("quote refresh failed", "holding", h.Key(), "error", err)
			continue
		}
		if currency == "" {
			currency = h.Currency
		}
		if currency != h.Currency {
			slog.Warn("quote currency differs from holding currency", "holding", h.Key(), "quoted", currency)
		}
		s.savePrice(ctx, domain.PricePoint{
			HoldingID: h.ID,
			TS:        time.Now().UTC(),
			Price:     price,
			Currency:  currency,
			Source:    "yahoo",
		})
	}
}

func (s *Service) savePrice(ctx context.Context, p domain.PricePoint) {
	if err := s.store.SavePrice(ctx, p); err != nil {
		slog.Warn("storing price failed", "holdingId", p.HoldingID, "error", err)
	}
}
