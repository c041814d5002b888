package geocoding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"taxi-analytics/metrics"
	"taxi-analytics/models"
)

// NominatimClient queries an OpenStreetMap Nominatim search endpoint. Calls
// are paced by a token bucket because the public instance allows one request
// per second.
type NominatimClient struct {
	endpoint  string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

func NewNominatimClient(endpoint, userAgent string, timeout time.Duration, ratePerSecond float64) *NominatimClient {
	return &NominatimClient{
		endpoint:  endpoint,
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (c *NominatimClient) Geocode(ctx context.Context, query string) (models.Coordinates, error) {
	start := time.Now()
	coords, err := c.geocode(ctx, query)
	metrics.GeocoderCallDuration.Observe(time.Since(start).Seconds())
	metrics.GeocoderRequests.WithLabelValues(resultLabel(err)).Inc()
	return coords, err
}

func (c *NominatimClient) geocode(ctx context.Context, query string) (models.Coordinates, error) {
	// Wait fails early when the next token lies past the deadline, so the
	// call is out of time either way.
	if err := c.limiter.Wait(ctx); err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: %w: %v", ErrTimeout, ErrRateLimited, err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) || isNetTimeout(err) {
			return models.Coordinates{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return models.Coordinates{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.Coordinates{}, fmt.Errorf("geocoder returned status %d: %s", resp.StatusCode, body)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		if isTimeout(err) || isNetTimeout(err) {
			return models.Coordinates{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return models.Coordinates{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(places) == 0 {
		return models.Coordinates{}, ErrNotFound
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("invalid latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("invalid longitude %q: %w", places[0].Lon, err)
	}
	return models.Coordinates{Lat: lat, Lon: lon}, nil
}

func isNetTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case isTimeout(err):
		return "timeout"
	case errors.Is(err, ErrUnavailable):
		return "rejected"
	default:
		return "error"
	}
}
