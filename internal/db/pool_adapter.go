package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutriguide/nutriload/pkg/nutriload"
)

// PoolAdapter exposes a *pgxpool.Pool as a nutriload.DBConnection.
type PoolAdapter struct {
	pool *pgxpool.Pool
}

func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	return &PoolAdapter{pool: pool}
}

func (p *PoolAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

func (p *PoolAdapter) QueryRow(ctx context.Context, sql string, args ...any) nutriload.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

var _ nutriload.DBConnection = (*PoolAdapter)(nil)
