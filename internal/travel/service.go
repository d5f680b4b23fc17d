// internal/travel/service.go
package travel

import (
	"context"

	"github.com/google/uuid"
)

// Defaults applied by callers when pagination or history arguments are omitted.
const (
	DefaultPage         = 1
	DefaultPageSize     = 10
	DefaultHistoryLimit = 20
)

// Service defines the interface for the travel catalog service.
type Service interface {
	GetAllTravels(ctx context.Context, page, pageSize int) (*PaginationResponse[Travel], error)
	GetTravelByID(ctx context.Context, id uuid.UUID) (*Travel, error)
	GetTravelBySlug(ctx context.Context, slug string) (*Travel, error)
	IncreaseAvailableSeats(ctx context.Context, id uuid.UUID, seats int) (*Travel, error)
	DecreaseAvailableSeats(ctx context.Context, id uuid.UUID, seats int) (*Travel, error)
	SeatHistory(ctx context.Context, id uuid.UUID, limit int) ([]SeatAdjustment, error)
}
