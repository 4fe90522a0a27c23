package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portfel/tracker/internal/domain"
)

// ErrNotFound indicates that the requested holding was not found.
var ErrNotFound = errors.New("holding not found")

// PgRepository is the PostgreSQL transaction store. Its read side implements
// engine.LedgerStore; the write side is the store's own ingestion surface and
// validates entries before they reach the ledger.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL ledger repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Holdings returns all holdings.
func (r *PgRepository) Holdings(ctx context.Context) ([]domain.Holding, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, asset_type, symbol, COALESCE(name, ''), currency, created_at
		 FROM holdings
		 ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("listing holdings: %w", err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		var h domain.Holding
		if err := rows.Scan(&h.ID, &h.Type, &h.Symbol, &h.Name, &h.Currency, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// GetHolding returns one holding by id.
func (r *PgRepository) GetHolding(ctx context.Context, id int64) (domain.Holding, error) {
	var h domain.Holding
	err := r.pool.QueryRow(ctx,
		`SELECT id, asset_type, symbol, COALESCE(name, ''), currency, created_at
		 FROM holdings WHERE id = $1`, id).
		Scan(&h.ID, &h.Type, &h.Symbol, &h.Name, &h.Currency, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Holding{}, ErrNotFound
		}
		return domain.Holding{}, fmt.Errorf("getting holding %d: %w", id, err)
	}
	return h, nil
}

// EntriesByHolding returns the full ledger in one query, grouped per holding,
// each group ordered by (timestamp, insertion sequence) ascending.
func (r *PgRepository) EntriesByHolding(ctx context.Context) (map[int64][]domain.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, holding_id, account_id, ts, action, qty, price, fee, COALESCE(note, ''), created_at
		 FROM transactions
		 ORDER BY holding_id, ts, id`)
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	defer rows.Close()

	entries := make(map[int64][]domain.LedgerEntry)
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.HoldingID, &e.AccountID, &e.TS, &e.Action, &e.Qty, &e.Price, &e.Fee, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}
		entries[e.HoldingID] = append(entries[e.HoldingID], e)
	}
	return entries, rows.Err()
}

// CreateHolding inserts a new holding and returns it with its assigned id.
// (asset type, symbol) conflicts surface as errors from the unique constraint.
func (r *PgRepository) CreateHolding(ctx context.Context, h domain.Holding) (domain.Holding, error) {
	if _, err := domain.ParseAssetType(string(h.Type)); err != nil {
		return domain.Holding{}, err
	}
	if h.Symbol == "" || h.Currency == "" {
		return domain.Holding{}, fmt.Errorf("holding requires symbol and currency")
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO holdings (asset_type, symbol, name, currency)
		 VALUES ($1, $2, NULLIF($3, ''), $4)
		 RETURNING id, created_at`,
		h.Type, h.Symbol, h.Name, h.Currency).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return domain.Holding{}, fmt.Errorf("creating holding %s: %w", h.Key(), err)
	}
	return h, nil
}

// RecordEntry validates and appends one ledger entry. The insertion sequence
// assigned by the database is the tie-break for entries sharing a timestamp.
func (r *PgRepository) RecordEntry(ctx context.Context, e domain.LedgerEntry) (domain.LedgerEntry, error) {
	if err := e.Validate(); err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("rejecting ledger entry: %w", err)
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO transactions (holding_id, account_id, ts, action, qty, price, fee, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
		 RETURNING id, created_at`,
		e.HoldingID, e.AccountID, e.TS, e.Action, e.Qty, e.Price, e.Fee, e.Note).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("recording ledger entry: %w", err)
	}
	return e, nil
}
