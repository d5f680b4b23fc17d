// internal/travel/repository.go
package travel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"travelcatalog/internal/ledger"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Repository is the data-access boundary for travels.
type Repository interface {
	FindPage(ctx context.Context, offset, limit int) ([]Travel, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Travel, error)
	FindBySlug(ctx context.Context, slug string) (*Travel, error)
	// AdjustSeats applies availableSeats += delta as one conditional update.
	// It fails with ErrInsufficientSeats, leaving the row untouched, when the
	// result would be negative.
	AdjustSeats(ctx context.Context, id uuid.UUID, delta int) (*Travel, error)
	SeatAdjustments(ctx context.Context, id uuid.UUID, limit int) ([]SeatAdjustment, error)
}

const travelColumns = `id, slug, name, description, "startingDate", "endingDate", price, "availableSeats"`

// PostgresRepository implements Repository on PostgreSQL.
type PostgresRepository struct {
	db      *sqlx.DB
	ledger  *ledger.Ledger
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	tracer  trace.Tracer
}

// NewPostgresRepository creates a repository. Every operation is bounded by timeout
// when it is positive.
func NewPostgresRepository(db *sqlx.DB, timeout time.Duration) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		ledger: ledger.New(),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "travel-store",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				return !isStoreFailure(err)
			},
		}),
		timeout: timeout,
		tracer:  otel.Tracer("travelcatalog/travel/repository"),
	}
}

// run executes fn under the operation timeout and the circuit breaker and
// classifies whatever it returns.
func (r *PostgresRepository) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	return classifyStoreError(err)
}

// FindPage returns the travels in id order starting at offset, plus the total count.
func (r *PostgresRepository) FindPage(ctx context.Context, offset, limit int) ([]Travel, int, error) {
	ctx, span := r.tracer.Start(ctx, "travel.find_page",
		trace.WithAttributes(
			attribute.Int("page.offset", offset),
			attribute.Int("page.limit", limit),
		),
	)
	defer span.End()

	var (
		total int
		items = []Travel{}
	)
	err := r.run(ctx, func(ctx context.Context) error {
		// count and page share one snapshot so totalItems matches items
		tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		if err := tx.GetContext(ctx, &total, `SELECT COUNT(*) FROM travel`); err != nil {
			return fmt.Errorf("count travels: %w", err)
		}
		err = tx.SelectContext(ctx, &items, `
			SELECT `+travelColumns+`
			FROM travel
			ORDER BY id
			LIMIT $1 OFFSET $2
		`, limit, offset)
		if err != nil {
			return fmt.Errorf("query travel page: %w", err)
		}
		if err := attachMoods(ctx, tx, items); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		span.RecordError(err)
		return nil, 0, err
	}

	span.SetAttributes(
		attribute.Int("page.items", len(items)),
		attribute.Int("travels.total", total),
	)
	return items, total, nil
}

// FindByID returns the travel with the given id.
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*Travel, error) {
	ctx, span := r.tracer.Start(ctx, "travel.find_by_id",
		trace.WithAttributes(attribute.String("travel.id", id.String())),
	)
	defer span.End()

	return r.findOne(ctx, span, `SELECT `+travelColumns+` FROM travel WHERE id = $1`, id)
}

// FindBySlug returns the travel whose slug matches exactly.
func (r *PostgresRepository) FindBySlug(ctx context.Context, slug string) (*Travel, error) {
	ctx, span := r.tracer.Start(ctx, "travel.find_by_slug",
		trace.WithAttributes(attribute.String("travel.slug", slug)),
	)
	defer span.End()

	return r.findOne(ctx, span, `SELECT `+travelColumns+` FROM travel WHERE slug = $1`, slug)
}

func (r *PostgresRepository) findOne(ctx context.Context, span trace.Span, query string, arg interface{}) (*Travel, error) {
	t := Travel{}
	err := r.run(ctx, func(ctx context.Context) error {
		if err := r.db.GetContext(ctx, &t, query, arg); err != nil {
			return err
		}
		items := []Travel{t}
		if err := attachMoods(ctx, r.db, items); err != nil {
			return err
		}
		t = items[0]
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &t, nil
}

// AdjustSeats applies delta in a single conditional UPDATE and records the change in
// the seat ledger within the same transaction.
func (r *PostgresRepository) AdjustSeats(ctx context.Context, id uuid.UUID, delta int) (*Travel, error) {
	ctx, span := r.tracer.Start(ctx, "travel.adjust_seats",
		trace.WithAttributes(
			attribute.String("travel.id", id.String()),
			attribute.Int("seat.delta", delta),
		),
	)
	defer span.End()

	t := Travel{}
	err := r.run(ctx, func(ctx context.Context) error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		// The row lock taken by the UPDATE serialises concurrent adjustments; the
		// predicate is re-evaluated against the committed value.
		err = tx.GetContext(ctx, &t, `
			UPDATE travel
			SET "availableSeats" = "availableSeats" + $2::bigint
			WHERE id = $1 AND "availableSeats" + $2::bigint >= 0
			RETURNING `+travelColumns,
			id, delta)
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM travel WHERE id = $1)`, id); err != nil {
				return fmt.Errorf("probe travel: %w", err)
			}
			if !exists {
				return ErrNotFound
			}
			return ErrInsufficientSeats
		}
		if err != nil {
			return fmt.Errorf("update available seats: %w", err)
		}

		if _, err := r.ledger.Append(ctx, tx, ledger.Entry{
			TravelID:   id,
			Delta:      delta,
			SeatsAfter: t.AvailableSeats,
		}); err != nil {
			return err
		}

		items := []Travel{t}
		if err := attachMoods(ctx, tx, items); err != nil {
			return err
		}
		t = items[0]

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("seats.after", t.AvailableSeats))
	return &t, nil
}

// SeatAdjustments returns the newest ledger entries for a travel.
func (r *PostgresRepository) SeatAdjustments(ctx context.Context, id uuid.UUID, limit int) ([]SeatAdjustment, error) {
	ctx, span := r.tracer.Start(ctx, "travel.seat_adjustments",
		trace.WithAttributes(attribute.String("travel.id", id.String())),
	)
	defer span.End()

	var entries []ledger.Entry
	err := r.run(ctx, func(ctx context.Context) error {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM travel WHERE id = $1)`, id); err != nil {
			return fmt.Errorf("probe travel: %w", err)
		}
		if !exists {
			return ErrNotFound
		}

		var err error
		entries, err = r.ledger.List(ctx, r.db, id, limit)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	adjustments := make([]SeatAdjustment, 0, len(entries))
	for _, e := range entries {
		adjustments = append(adjustments, SeatAdjustment{
			ID:         e.ID,
			TravelID:   e.TravelID,
			Delta:      e.Delta,
			SeatsAfter: e.SeatsAfter,
			CreatedAt:  e.CreatedAt,
		})
	}
	return adjustments, nil
}

// attachMoods loads the moods of every travel in items with one query.
func attachMoods(ctx context.Context, q sqlx.QueryerContext, items []Travel) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]string, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for i := range items {
		ids[i] = items[i].ID.String()
		index[items[i].ID] = i
		items[i].Moods = []Mood{}
	}

	var moods []Mood
	err := sqlx.SelectContext(ctx, q, &moods, `
		SELECT id, mood, score, "travelId"
		FROM mood
		WHERE "travelId" = ANY($1::uuid[])
		ORDER BY id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query moods: %w", err)
	}

	for _, m := range moods {
		if m.TravelID == nil {
			continue
		}
		if i, ok := index[*m.TravelID]; ok {
			items[i].Moods = append(items[i].Moods, m)
		}
	}
	return nil
}
