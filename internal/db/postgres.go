package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool parses connString and returns a pool. Connections are opened on
// first use, so an unreachable database does not fail here.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	if strings.TrimSpace(connString) == "" {
		return nil, fmt.Errorf("missing database url")
	}
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("pgxpool new: %w", err)
	}
	return pool, nil
}

// Ping checks connectivity within timeout.
func Ping(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.Ping(cctx); err != nil {
		return fmt.Errorf("pgxpool ping: %w", err)
	}
	return nil
}
