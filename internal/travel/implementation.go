// internal/travel/implementation.go
package travel

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// service implements the Service interface.
type service struct {
	repo   Repository
	tracer trace.Tracer
}

// NewService creates a new travel catalog service instance.
func NewService(repo Repository) Service {
	return &service{
		repo:   repo,
		tracer: otel.Tracer("travelcatalog/travel/service"),
	}
}

// GetAllTravels returns one page of travels. page is 1-indexed; a page past the last
// one yields no items but still reports the catalog totals.
func (s *service) GetAllTravels(ctx context.Context, page, pageSize int) (*PaginationResponse[Travel], error) {
	ctx, span := s.tracer.Start(ctx, "travel.get_all",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page.size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidArgument, page)
	}
	if pageSize < 1 {
		return nil, fmt.Errorf("%w: pageSize must be >= 1, got %d", ErrInvalidArgument, pageSize)
	}
	if page-1 > math.MaxInt/pageSize {
		return nil, fmt.Errorf("%w: page %d with pageSize %d is out of range", ErrInvalidArgument, page, pageSize)
	}

	items, total, err := s.repo.FindPage(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Travel{}
	}

	return &PaginationResponse[Travel]{
		Items:       items,
		TotalItems:  total,
		CurrentPage: page,
		PageSize:    pageSize,
		TotalPages:  totalPages(total, pageSize),
	}, nil
}

// GetTravelByID retrieves a travel by its unique identifier.
func (s *service) GetTravelByID(ctx context.Context, id uuid.UUID) (*Travel, error) {
	ctx, span := s.tracer.Start(ctx, "travel.get_by_id",
		trace.WithAttributes(attribute.String("travel.id", id.String())),
	)
	defer span.End()

	return s.repo.FindByID(ctx, id)
}

// GetTravelBySlug retrieves a travel by its slug. Matching is exact and case-sensitive.
func (s *service) GetTravelBySlug(ctx context.Context, slug string) (*Travel, error) {
	ctx, span := s.tracer.Start(ctx, "travel.get_by_slug",
		trace.WithAttributes(attribute.String("travel.slug", slug)),
	)
	defer span.End()

	return s.repo.FindBySlug(ctx, slug)
}

// IncreaseAvailableSeats adds seats to a travel. There is no capacity ceiling; the
// column width is the only bound.
func (s *service) IncreaseAvailableSeats(ctx context.Context, id uuid.UUID, seats int) (*Travel, error) {
	ctx, span := s.tracer.Start(ctx, "travel.increase_seats",
		trace.WithAttributes(
			attribute.String("travel.id", id.String()),
			attribute.Int("seats", seats),
		),
	)
	defer span.End()

	if seats <= 0 {
		return nil, fmt.Errorf("%w: seats must be positive, got %d", ErrInvalidArgument, seats)
	}
	return s.repo.AdjustSeats(ctx, id, seats)
}

// DecreaseAvailableSeats removes seats from a travel, failing with ErrInsufficientSeats
// rather than going below zero.
func (s *service) DecreaseAvailableSeats(ctx context.Context, id uuid.UUID, seats int) (*Travel, error) {
	ctx, span := s.tracer.Start(ctx, "travel.decrease_seats",
		trace.WithAttributes(
			attribute.String("travel.id", id.String()),
			attribute.Int("seats", seats),
		),
	)
	defer span.End()

	if seats <= 0 {
		return nil, fmt.Errorf("%w: seats must be positive, got %d", ErrInvalidArgument, seats)
	}
	return s.repo.AdjustSeats(ctx, id, -seats)
}

// SeatHistory returns the most recent seat adjustments of a travel.
func (s *service) SeatHistory(ctx context.Context, id uuid.UUID, limit int) ([]SeatAdjustment, error) {
	ctx, span := s.tracer.Start(ctx, "travel.seat_history",
		trace.WithAttributes(
			attribute.String("travel.id", id.String()),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be >= 1, got %d", ErrInvalidArgument, limit)
	}
	return s.repo.SeatAdjustments(ctx, id, limit)
}
