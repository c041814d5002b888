package geocoding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taxi-analytics/cache"
	"taxi-analytics/logging"
	"taxi-analytics/metrics"
	"taxi-analytics/models"
)

// Options tunes a Resolver. Zero values fall back to the defaults below.
type Options struct {
	Country     string
	Timeout     time.Duration
	Backoff     time.Duration
	MaxAttempts int
}

const (
	defaultCountry     = "Vietnam"
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
)

// Resolver answers address lookups from the cache and falls through to the
// geocoder on a miss. Only successful lookups are cached, so a transient
// failure is retried on a later request.
type Resolver struct {
	geocoder    Geocoder
	store       cache.Store
	country     string
	timeout     time.Duration
	backoff     time.Duration
	maxAttempts int
}

// NewResolver builds a Resolver. A nil geocoder makes it cache-only.
func NewResolver(g Geocoder, store cache.Store, opts Options) *Resolver {
	if opts.Country == "" {
		opts.Country = defaultCountry
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}
	return &Resolver{
		geocoder:    g,
		store:       store,
		country:     opts.Country,
		timeout:     opts.Timeout,
		backoff:     opts.Backoff,
		maxAttempts: opts.MaxAttempts,
	}
}

// Key is the cache key and the query sent to the geocoder.
func (r *Resolver) Key(address, city string) string {
	return fmt.Sprintf("%s, %s, %s", address, city, r.country)
}

// Resolve returns the coordinates of address in city, or false when they
// could not be determined. A timed-out call is retried after the backoff, up
// to the configured number of attempts in total.
func (r *Resolver) Resolve(ctx context.Context, address, city string) (models.Coordinates, bool) {
	if strings.TrimSpace(address) == "" {
		return models.Coordinates{}, false
	}
	key := r.Key(address, city)
	log := logging.Ctx(ctx)

	c, ok, err := r.store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("query", key).Msg("geocode cache read failed")
	}
	if ok {
		metrics.GeocodeCacheHits.Inc()
		return c, true
	}
	metrics.GeocodeCacheMisses.Inc()

	if r.geocoder == nil {
		return models.Coordinates{}, false
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		c, err = r.geocoder.Geocode(callCtx, key)
		cancel()

		if err == nil {
			if err := r.store.Set(ctx, key, c); err != nil {
				log.Warn().Err(err).Str("query", key).Msg("geocode cache write failed")
			}
			return c, true
		}

		if !isTimeout(err) || attempt == r.maxAttempts || ctx.Err() != nil {
			log.Debug().Err(err).Str("query", key).Int("attempt", attempt).Msg("geocode failed")
			return models.Coordinates{}, false
		}

		log.Warn().Str("query", key).Int("attempt", attempt).Dur("backoff", r.backoff).Msg("geocode timed out, retrying")
		select {
		case <-ctx.Done():
			return models.Coordinates{}, false
		case <-time.After(r.backoff):
		}
	}
	return models.Coordinates{}, false
}
