// Package geocoding resolves free-text pickup/dropoff addresses to
// coordinates through an external service, fronted by a cache.
package geocoding

import (
	"context"
	"errors"

	"taxi-analytics/models"
)

var (
	// ErrNotFound means the service answered but had no match.
	ErrNotFound = errors.New("geocode: address not found")
	// ErrTimeout means the call did not complete in time; it is the only
	// error the Resolver retries.
	ErrTimeout = errors.New("geocode: timed out")
	// ErrUnavailable means the circuit breaker rejected the call.
	ErrUnavailable = errors.New("geocode: service unavailable")
	// ErrRateLimited means the local rate limiter turned the call away
	// before any request was sent. It always comes wrapped with ErrTimeout.
	ErrRateLimited = errors.New("geocode: rate limited")
)

// Geocoder looks up a single query string.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (models.Coordinates, error)
}

func isTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
