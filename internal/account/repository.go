package account

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portfel/tracker/internal/domain"
)

// PgRepository is the PostgreSQL cash account store. Balances are maintained
// here as external facts; the engine only sums them.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL account repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// ActiveBalances returns all active accounts with their current balances.
func (r *PgRepository) ActiveBalances(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, type, currency, balance, active, created_at
		 FROM accounts
		 WHERE active
		 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing active accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Currency, &a.Balance, &a.Active, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
