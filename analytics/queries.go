// Package analytics implements the read-only reporting queries over the
// loaded trip table. Every function is a pure function of the table.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"taxi-analytics/database"
	"taxi-analytics/models"
)

// RevenuePerCity sums fares by city. Missing fares are skipped; cities with
// no rows are absent.
func RevenuePerCity(t *database.Table) map[string]float64 {
	out := make(map[string]float64)
	for _, trip := range t.Rows() {
		if trip.City == "" {
			continue
		}
		out[trip.City] += valueOrZero(trip.Fare)
	}
	return out
}

// TripsPerCity counts rows by city. Rows without a city are left out, so the
// counts sum to the table length only when every row has one; FraudRate
// still counts them.
func TripsPerCity(t *database.Table) map[string]int {
	out := make(map[string]int)
	for _, trip := range t.Rows() {
		if trip.City != "" {
			out[trip.City]++
		}
	}
	return out
}

// DistancePerCity sums distance_km by city.
func DistancePerCity(t *database.Table) map[string]float64 {
	out := make(map[string]float64)
	for _, trip := range t.Rows() {
		if trip.City == "" {
			continue
		}
		out[trip.City] += valueOrZero(trip.DistanceKm)
	}
	return out
}

// Summary joins trip count and revenue per city, ordered by city name.
func Summary(t *database.Table) []models.CitySummary {
	counts := TripsPerCity(t)
	revenue := RevenuePerCity(t)

	out := make([]models.CitySummary, 0, len(counts))
	for city, n := range counts {
		out = append(out, models.CitySummary{
			City:         city,
			TotalTrips:   n,
			TotalRevenue: revenue[city],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out
}

// ByCity returns up to limit rows whose city matches case-insensitively.
func ByCity(t *database.Table, city string, limit int) []models.Trip {
	return collect(t, limit, func(trip *models.Trip) bool {
		return strings.EqualFold(trip.City, city)
	})
}

// FilterParams are optional equality filters; an empty field matches all rows.
type FilterParams struct {
	Weather string
	Traffic string
}

// Filter applies the weather and traffic filters conjunctively, comparing
// case-insensitively. A row with a missing value never matches a set filter.
func Filter(t *database.Table, p FilterParams, limit int) []models.Trip {
	return collect(t, limit, func(trip *models.Trip) bool {
		return matches(trip.Weather, p.Weather) && matches(trip.Traffic, p.Traffic)
	})
}

func matches(value *string, want string) bool {
	if want == "" {
		return true
	}
	return value != nil && strings.EqualFold(*value, want)
}

func collect(t *database.Table, limit int, keep func(*models.Trip) bool) []models.Trip {
	out := []models.Trip{}
	if limit <= 0 {
		return out
	}
	rows := t.Rows()
	for i := range rows {
		if keep(&rows[i]) {
			out = append(out, rows[i])
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// FraudRate reports the share of fraud-flagged trips as "NN.NN%".
func FraudRate(t *database.Table) models.FraudRate {
	total := t.Len()
	fraud := 0
	for _, trip := range t.Rows() {
		if trip.IsFraud {
			fraud++
		}
	}

	rate := 0.0
	if total > 0 {
		rate = float64(fraud) / float64(total) * 100
	}
	return models.FraudRate{
		TotalTrips: total,
		FraudTrips: fraud,
		FraudRate:  fmt.Sprintf("%.2f%%", rate),
	}
}

// Metrics returns overall fare, distance and duration means plus revenue by
// pickup hour. Hours with no trips are absent.
func Metrics(t *database.Table) models.TripMetrics {
	var fare, distance, duration mean
	perHour := make(map[int]float64)

	for _, trip := range t.Rows() {
		fare.add(trip.Fare)
		distance.add(trip.DistanceKm)
		duration.add(trip.DurationMin)
		if trip.PickupHour != nil {
			perHour[*trip.PickupHour] += valueOrZero(trip.Fare)
		}
	}

	return models.TripMetrics{
		AverageFare:     fare.rounded(),
		AverageDistance: distance.rounded(),
		AverageDuration: duration.rounded(),
		RevenuePerHour:  perHour,
	}
}

// mean accumulates non-missing values.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v != nil {
		m.sum += *v
		m.n++
	}
}

func (m *mean) rounded() *float64 {
	if m.n == 0 {
		return nil
	}
	r := round2(m.sum / float64(m.n))
	return &r
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
