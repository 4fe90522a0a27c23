package marketdata

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portfel/tracker/internal/domain"
)

// PgRepository is the PostgreSQL price and FX store. Its read side implements
// engine.PriceStore and engine.FXStore; writes come from the ingestion
// adapters in internal/external.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL market data repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// LatestPrices returns the most recent price observation per holding, ordered
// by observation timestamp descending with insertion order breaking ties.
func (r *PgRepository) LatestPrices(ctx context.Context) (map[int64]domain.PricePoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ON (holding_id) id, holding_id, ts, price, price_ccy, source
		 FROM prices
		 ORDER BY holding_id, ts DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("reading latest prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[int64]domain.PricePoint)
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.ID, &p.HoldingID, &p.TS, &p.Price, &p.Currency, &p.Source); err != nil {
			return nil, fmt.Errorf("scanning price: %w", err)
		}
		prices[p.HoldingID] = p
	}
	return prices, rows.Err()
}

// LatestRates returns the most recent observation per directed currency pair.
// Only observed directions are returned; inversion is the resolver's job.
func (r *PgRepository) LatestRates(ctx context.Context) ([]domain.FXRate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ON (base_ccy, quote_ccy) id, ts, base_ccy, quote_ccy, rate, source
		 FROM fx_rates
		 ORDER BY base_ccy, quote_ccy, ts DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("reading latest rates: %w", err)
	}
	defer rows.Close()

	var rates []domain.FXRate
	for rows.Next() {
		var fx domain.FXRate
		if err := rows.Scan(&fx.ID, &fx.TS, &fx.Base, &fx.Quote, &fx.Rate, &fx.Source); err != nil {
			return nil, fmt.Errorf("scanning rate: %w", err)
		}
		rates = append(rates, fx)
	}
	return rates, rows.Err()
}

// SavePrice stores one price observation.
func (r *PgRepository) SavePrice(ctx context.Context, p domain.PricePoint) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO prices (holding_id, ts, price, price_ccy, source)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.HoldingID, p.TS, p.Price, p.Currency, p.Source)
	if err != nil {
		return fmt.Errorf("saving price for holding %d: %w", p.HoldingID, err)
	}
	return nil
}

// SaveRate stores one directed rate observation. Re-observations of the same
// (ts, pair, source) are idempotent.
func (r *PgRepository) SaveRate(ctx context.Context, fx domain.FXRate) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO fx_rates (ts, base_ccy, quote_ccy, rate, source)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (ts, base_ccy, quote_ccy, source) DO NOTHING`,
		fx.TS, fx.Base, fx.Quote, fx.Rate, fx.Source)
	if err != nil {
		return fmt.Errorf("saving rate %s/%s: %w", fx.Base, fx.Quote, err)
	}
	return nil
}
