package geocoding

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"taxi-analytics/logging"
	"taxi-analytics/metrics"
	"taxi-analytics/models"
)

// BreakerGeocoder stops calling a failing geocoder for a while so requests
// fall back to null coordinates immediately instead of waiting on timeouts.
type BreakerGeocoder struct {
	next Geocoder
	cb   *gobreaker.CircuitBreaker[models.Coordinates]
}

// NewBreakerGeocoder opens after 5 consecutive failures and probes again
// after openFor. ErrNotFound counts as success, and so do local rate limiter
// rejections since the service was never called.
func NewBreakerGeocoder(next Geocoder, openFor time.Duration) *BreakerGeocoder {
	const name = "geocoder"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[models.Coordinates](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrRateLimited)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return &BreakerGeocoder{next: next, cb: cb}
}

func (b *BreakerGeocoder) Geocode(ctx context.Context, query string) (models.Coordinates, error) {
	c, err := b.cb.Execute(func() (models.Coordinates, error) {
		return b.next.Geocode(ctx, query)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.GeocoderRequests.WithLabelValues("rejected").Inc()
		return models.Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return c, err
}

// State reports the breaker state, mainly for tests and health output.
func (b *BreakerGeocoder) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
