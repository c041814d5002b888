package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"taxi-analytics/analytics"
	"taxi-analytics/database"
	"taxi-analytics/logging"
)

// Handler serves the analytics endpoints from one loaded table.
type Handler struct {
	table           *database.Table
	resolver        analytics.CoordinateResolver
	defaultLimit    int
	analysisTimeout time.Duration
}

// NewHandler wires the table and geocode resolver into the handlers. A nil
// resolver leaves fraud route coordinates null. analysisTimeout caps the
// geocoding done by one fraud analysis request; zero means no cap.
func NewHandler(table *database.Table, resolver analytics.CoordinateResolver, defaultLimit int, analysisTimeout time.Duration) *Handler {
	return &Handler{
		table:           table,
		resolver:        resolver,
		defaultLimit:    defaultLimit,
		analysisTimeout: analysisTimeout,
	}
}

// RevenuePerCity returns total fare by city
func (h *Handler) RevenuePerCity(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"revenue_per_city": analytics.RevenuePerCity(h.table),
	})
}

// TripsPerCity returns the number of trips by city
func (h *Handler) TripsPerCity(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"trips_per_city": analytics.TripsPerCity(h.table),
	})
}

// DistancePerCity returns total distance by city
func (h *Handler) DistancePerCity(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"distance_per_city": analytics.DistancePerCity(h.table),
	})
}

// ListTrips returns the first `limit` rows
func (h *Handler) ListTrips(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.table.Head(h.limit(r)))
}

// TripsByCity returns rows for one city, matched case-insensitively
func (h *Handler) TripsByCity(w http.ResponseWriter, r *http.Request) {
	city := mux.Vars(r)["city_name"]
	respondJSON(w, r, http.StatusOK, analytics.ByCity(h.table, city, h.limit(r)))
}

// TripSummary returns trip count and revenue per city
func (h *Handler) TripSummary(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, analytics.Summary(h.table))
}

// FilterTrips filters rows by weather and/or traffic
func (h *Handler) FilterTrips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := analytics.FilterParams{
		Weather: q.Get("weather"),
		Traffic: q.Get("traffic"),
	}
	respondJSON(w, r, http.StatusOK, analytics.Filter(h.table, params, h.limit(r)))
}

// FraudRate returns the share of trips flagged as fraud
func (h *Handler) FraudRate(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, analytics.FraudRate(h.table))
}

// TripMetrics returns average fare/distance/duration and revenue per hour
func (h *Handler) TripMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, analytics.Metrics(h.table))
}

// FraudAnalysis returns the top fraud route per city with coordinates, and
// the hour, weather and traffic most associated with fraud
func (h *Handler) FraudAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.analysisTimeout > 0 {
		// Addresses not resolved by the deadline come back as null coordinates.
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.analysisTimeout)
		defer cancel()
	}
	result := analytics.FraudAnalysis(ctx, h.table, h.resolver)
	logging.Ctx(r.Context()).Debug().
		Int("routes", len(result.MostFraudRoutes)).
		Bool("map_available", result.MapAvailable).
		Msg("fraud analysis computed")
	respondJSON(w, r, http.StatusOK, result)
}

// Health reports the number of loaded rows
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"rows":   h.table.Len(),
	})
}

// limit reads ?limit=N. Missing, unparseable or negative values fall back to
// the default.
func (h *Handler) limit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return h.defaultLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return h.defaultLimit
	}
	return n
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, r, status, map[string]string{"error": message})
}
