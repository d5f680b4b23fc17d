// internal/ledger/ledger.go
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrEmptyDelta    = errors.New("seat delta must be non-zero")
	ErrInvalidLimit  = errors.New("limit must be positive")
	ErrMissingTravel = errors.New("travel id is required")
)

// Entry is one applied seat adjustment.
type Entry struct {
	ID         int64     `json:"id" db:"id"`
	TravelID   uuid.UUID `json:"travel_id" db:"travel_id"`
	Delta      int       `json:"delta" db:"delta"`
	SeatsAfter int       `json:"seats_after" db:"seats_after"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Ledger is the append-only record of seat adjustments. It never opens its own
// transaction: Append must run inside the transaction that changed the seats so the
// entry and the change commit or roll back together.
type Ledger struct {
	tracer trace.Tracer
}

// New creates a ledger.
func New() *Ledger {
	return &Ledger{tracer: otel.Tracer("travelcatalog/ledger")}
}

// Append inserts e and returns it with the store-assigned id and timestamp.
func (l *Ledger) Append(ctx context.Context, tx sqlx.ExtContext, e Entry) (Entry, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.append",
		trace.WithAttributes(
			attribute.String("travel.id", e.TravelID.String()),
			attribute.Int("seat.delta", e.Delta),
			attribute.Int("seats.after", e.SeatsAfter),
		),
	)
	defer span.End()

	if e.TravelID == uuid.Nil {
		return Entry{}, ErrMissingTravel
	}
	if e.Delta == 0 {
		return Entry{}, ErrEmptyDelta
	}

	err := tx.QueryRowxContext(ctx, `
		INSERT INTO seat_ledger (travel_id, delta, seats_after)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, e.TravelID, e.Delta, e.SeatsAfter).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("insert ledger entry: %w", err)
	}

	span.SetAttributes(attribute.Int64("entry.id", e.ID))
	return e, nil
}

// List returns up to limit entries for a travel, newest first.
func (l *Ledger) List(ctx context.Context, q sqlx.QueryerContext, travelID uuid.UUID, limit int) ([]Entry, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.list",
		trace.WithAttributes(
			attribute.String("travel.id", travelID.String()),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	entries := []Entry{}
	err := sqlx.SelectContext(ctx, q, &entries, `
		SELECT id, travel_id, delta, seats_after, created_at
		FROM seat_ledger
		WHERE travel_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, travelID, limit)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}

	span.SetAttributes(attribute.Int("entries.loaded", len(entries)))
	return entries, nil
}
