package travel

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRepository is an in-memory Repository whose seat adjustment is a conditional
// update under one lock, mirroring the store's guarantee.
type memoryRepository struct {
	mu      sync.Mutex
	travels map[uuid.UUID]Travel
	ledger  []SeatAdjustment
	calls   int
	failErr error
}

func newMemoryRepository(travels ...Travel) *memoryRepository {
	r := &memoryRepository{travels: make(map[uuid.UUID]Travel)}
	for _, t := range travels {
		r.travels[t.ID] = t
	}
	return r
}

func (r *memoryRepository) FindPage(ctx context.Context, offset, limit int) ([]Travel, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.failErr != nil {
		return nil, 0, r.failErr
	}

	all := make([]Travel, 0, len(r.travels))
	for _, t := range r.travels {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ID.String() < all[j].ID.String()
	})

	if offset >= len(all) {
		return []Travel{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) || end < offset {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (r *memoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*Travel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.failErr != nil {
		return nil, r.failErr
	}
	t, ok := r.travels[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (r *memoryRepository) FindBySlug(ctx context.Context, slug string) (*Travel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.failErr != nil {
		return nil, r.failErr
	}
	for _, t := range r.travels {
		if t.Slug == slug {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepository) AdjustSeats(ctx context.Context, id uuid.UUID, delta int) (*Travel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.failErr != nil {
		return nil, r.failErr
	}
	t, ok := r.travels[id]
	if !ok {
		return nil, ErrNotFound
	}
	if t.AvailableSeats+delta < 0 {
		return nil, ErrInsufficientSeats
	}
	t.AvailableSeats += delta
	r.travels[id] = t
	r.ledger = append(r.ledger, SeatAdjustment{
		ID:         int64(len(r.ledger) + 1),
		TravelID:   id,
		Delta:      delta,
		SeatsAfter: t.AvailableSeats,
		CreatedAt:  time.Now(),
	})
	return &t, nil
}

func (r *memoryRepository) SeatAdjustments(ctx context.Context, id uuid.UUID, limit int) ([]SeatAdjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if _, ok := r.travels[id]; !ok {
		return nil, ErrNotFound
	}
	out := []SeatAdjustment{}
	for i := len(r.ledger) - 1; i >= 0 && len(out) < limit; i-- {
		if r.ledger[i].TravelID == id {
			out = append(out, r.ledger[i])
		}
	}
	return out, nil
}

func (r *memoryRepository) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *memoryRepository) seats(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.travels[id].AvailableSeats
}

func newTravel(slug string, seats int) Travel {
	start := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	return Travel{
		ID:             uuid.New(),
		Slug:           slug,
		Name:           slug,
		Description:    "A trip called " + slug,
		StartingDate:   start,
		EndingDate:     start.AddDate(0, 0, 7),
		Price:          199900,
		AvailableSeats: seats,
		Moods:          []Mood{},
	}
}
