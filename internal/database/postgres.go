// internal/database/postgres.go

// Package database is the persistence collaborator: it stores serializable
// snapshots of running matches so a host restart can recover them. No
// gameplay logic lives here.
package database

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the shared pgx connection pool. A nil Pool disables persistence;
// every store helper degrades to a no-op.
var Pool *pgxpool.Pool

// Connect initializes the pool from DATABASE_URL and verifies connectivity.
func Connect(ctx context.Context) error {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping database: %w", err)
	}
	Pool = pool
	return nil
}

// Close releases the pool.
func Close() {
	if Pool != nil {
		Pool.Close()
		Pool = nil
	}
}
