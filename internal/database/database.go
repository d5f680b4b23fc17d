// internal/database/database.go
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect opens a PostgreSQL pool and pings it, retrying with exponential backoff
// until maxElapsed has passed.
func Connect(ctx context.Context, dsn string, maxElapsed time.Duration) (*sqlx.DB, error) {
	attempt := 0
	db, err := backoff.Retry(ctx, func() (*sqlx.DB, error) {
		attempt++
		db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
		if err != nil {
			log.Printf("db=connect attempt=%d status=retry error=%v", attempt, err)
			return nil, err
		}
		return db, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsed),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}
