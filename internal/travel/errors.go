// internal/travel/errors.go
package travel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sony/gobreaker"
)

var (
	ErrNotFound                 = errors.New("travel not found")
	ErrInvalidArgument          = errors.New("invalid argument")
	ErrInsufficientSeats        = errors.New("insufficient available seats")
	ErrStoreUnavailable         = errors.New("store unavailable")
	ErrStoreConstraintViolation = errors.New("store constraint violation")
)

// pq codes outside class 23 that still mean the write broke a column constraint.
const codeNumericValueOutOfRange = "22003"

// classifyStoreError maps driver and context failures onto the store error taxonomy.
// Errors that already carry a domain sentinel pass through unchanged.
func classifyStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInsufficientSeats),
		errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrStoreConstraintViolation):
		return err
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code.Class() == "23" || pqErr.Code == codeNumericValueOutOfRange {
			return fmt.Errorf("%w: %s", ErrStoreConstraintViolation, pqErr.Message)
		}
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// isStoreFailure reports whether err should count against the circuit breaker.
func isStoreFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(classifyStoreError(err), ErrStoreUnavailable)
}
