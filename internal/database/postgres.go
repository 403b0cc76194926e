package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

// NewPool builds the pgx pool backing the Postgres session store. The first
// connection is retried because in compose setups the database container is
// often still starting when the server comes up.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	// A single session is small; the pool mostly absorbs burst submits.
	config.MaxConns = 20
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err == nil {
			pingErr := pool.Ping(ctx)
			if pingErr == nil {
				log.Printf("[DB] connected (attempt %d)", attempt)
				return pool, nil
			}
			pool.Close()
			err = pingErr
		}
		log.Printf("[DB] connect attempt %d/%d failed: %v", attempt, connectAttempts, err)
		time.Sleep(connectBackoff)
	}

	return nil, fmt.Errorf("database unreachable after %d attempts: %w", connectAttempts, err)
}
