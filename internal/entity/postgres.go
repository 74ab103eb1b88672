package entity

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Querier runs a query. *pgxpool.Pool satisfies it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore reads refresh times from the entity_results table.
type PostgresStore struct {
	db Querier
}

// NewPostgresStore creates a store on an existing pool.
func NewPostgresStore(db Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// LastRefreshed implements Store.
func (s *PostgresStore) LastRefreshed(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.db.Query(ctx, `SELECT symbol, fetched_at FROM entity_results`)
	if err != nil {
		return nil, fmt.Errorf("query refresh times: %w", err)
	}

	type refreshRow struct {
		Symbol    string    `db:"symbol"`
		FetchedAt time.Time `db:"fetched_at"`
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[refreshRow])
	if err != nil {
		return nil, fmt.Errorf("scan refresh times: %w", err)
	}

	out := make(map[string]time.Time, len(collected))
	for _, r := range collected {
		out[r.Symbol] = r.FetchedAt.UTC()
	}
	return out, nil
}
