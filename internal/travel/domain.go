// internal/travel/domain.go
package travel

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Travel is a bookable offering.
type Travel struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Slug           string    `json:"slug" db:"slug"`
	Name           string    `json:"name" db:"name"`
	Description    string    `json:"description" db:"description"`
	StartingDate   time.Time `json:"startingDate" db:"startingDate"`
	EndingDate     time.Time `json:"endingDate" db:"endingDate"`
	Price          int64     `json:"price" db:"price"`
	AvailableSeats int       `json:"availableSeats" db:"availableSeats"`
	Moods          []Mood    `json:"moods" db:"-"`
}

// Mood is a weighted tag describing the character of a travel.
type Mood struct {
	ID       int        `json:"id" db:"id"`
	Mood     MoodKind   `json:"mood" db:"mood"`
	Score    int16      `json:"score" db:"score"`
	TravelID *uuid.UUID `json:"travelId,omitempty" db:"travelId"`
}

// MoodKind is one of the five mood tags.
type MoodKind string

const (
	MoodNature  MoodKind = "nature"
	MoodRelax   MoodKind = "relax"
	MoodHistory MoodKind = "history"
	MoodCulture MoodKind = "culture"
	MoodParty   MoodKind = "party"
)

// MoodKinds lists every valid mood in declaration order.
var MoodKinds = []MoodKind{MoodNature, MoodRelax, MoodHistory, MoodCulture, MoodParty}

// ParseMoodKind returns the mood named s or an error wrapping ErrInvalidArgument.
func ParseMoodKind(s string) (MoodKind, error) {
	for _, k := range MoodKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown mood %q", ErrInvalidArgument, s)
}

func (k MoodKind) String() string { return string(k) }

func (k MoodKind) MarshalText() ([]byte, error) {
	if _, err := ParseMoodKind(string(k)); err != nil {
		return nil, err
	}
	return []byte(k), nil
}

func (k *MoodKind) UnmarshalText(text []byte) error {
	parsed, err := ParseMoodKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Scan implements sql.Scanner for the mood_mood_enum column.
func (k *MoodKind) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return k.UnmarshalText([]byte(v))
	case []byte:
		return k.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into MoodKind", src)
	}
}

// Value implements driver.Valuer.
func (k MoodKind) Value() (driver.Value, error) {
	if _, err := ParseMoodKind(string(k)); err != nil {
		return nil, err
	}
	return string(k), nil
}

// PaginationResponse bundles one page of items with page-count metadata.
type PaginationResponse[T any] struct {
	Items       []T `json:"items"`
	TotalItems  int `json:"totalItems"`
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	TotalPages  int `json:"totalPages"`
}

// SeatAdjustment is one applied change to a travel's available seats.
type SeatAdjustment struct {
	ID         int64     `json:"id"`
	TravelID   uuid.UUID `json:"travelId"`
	Delta      int       `json:"delta"`
	SeatsAfter int       `json:"seatsAfter"`
	CreatedAt  time.Time `json:"createdAt"`
}

// totalPages is ceil(totalItems / pageSize) for pageSize >= 1.
func totalPages(totalItems, pageSize int) int {
	pages := totalItems / pageSize
	if totalItems%pageSize != 0 {
		pages++
	}
	return pages
}
