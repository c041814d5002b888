package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"taxi-analytics/database"
	"taxi-analytics/models"
)

type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, address, _ string) (models.Coordinates, bool) {
	if address == "Hoan Kiem" {
		return models.Coordinates{Lat: 21.0287, Lon: 105.8524}, true
	}
	return models.Coordinates{}, false
}

func fp(v float64) *float64 { return &v }
func sp(v string) *string    { return &v }

func testTable() *database.Table {
	t0 := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	t1 := t0.Add(20 * time.Minute)
	return database.NewTable([]models.Trip{
		{TripID: "1", City: "Hanoi", Fare: fp(100), DistanceKm: fp(4), PickupTime: &t0, DropoffTime: &t1,
			PickupLocation: "Hoan Kiem", DropoffLocation: "Ba Dinh", Weather: sp("Rainy"), Traffic: sp("Heavy"), IsFraud: true},
		{TripID: "2", City: "Hanoi", Fare: fp(60), DistanceKm: fp(2), Weather: sp("Sunny"), Traffic: sp("Light")},
		{TripID: "3", City: "Da Nang", Fare: fp(40), DistanceKm: fp(3), Weather: sp("rainy"), Traffic: sp("Light")},
	})
}

func newServer() http.Handler {
	return RegisterRoutes(NewHandler(testTable(), stubResolver{}, 100, time.Second))
}

func get(t *testing.T, h http.Handler, target string, into interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if into != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
			t.Fatalf("%s: decode %q: %v", target, rec.Body.String(), err)
		}
	}
	return rec
}

func TestPerCityEndpoints(t *testing.T) {
	h := newServer()

	var revenue struct {
		RevenuePerCity map[string]float64 `json:"revenue_per_city"`
	}
	get(t, h, "/revenue_per_city", &revenue)
	if revenue.RevenuePerCity["Hanoi"] != 160 || revenue.RevenuePerCity["Da Nang"] != 40 {
		t.Errorf("revenue: %v", revenue.RevenuePerCity)
	}

	var trips struct {
		TripsPerCity map[string]int `json:"trips_per_city"`
	}
	get(t, h, "/trips_per_city", &trips)
	if trips.TripsPerCity["Hanoi"] != 2 || trips.TripsPerCity["Da Nang"] != 1 {
		t.Errorf("trips: %v", trips.TripsPerCity)
	}

	var distance struct {
		DistancePerCity map[string]float64 `json:"distance_per_city"`
	}
	get(t, h, "/distance_per_city", &distance)
	if distance.DistancePerCity["Hanoi"] != 6 {
		t.Errorf("distance: %v", distance.DistancePerCity)
	}
}

func TestTripsLimit(t *testing.T) {
	h := newServer()

	var rows []models.Trip
	get(t, h, "/trips?limit=2", &rows)
	if len(rows) != 2 {
		t.Errorf("limit=2: got %d rows", len(rows))
	}

	rows = nil
	get(t, h, "/trips?limit=abc", &rows)
	if len(rows) != 3 {
		t.Errorf("bad limit should use default: got %d rows", len(rows))
	}
}

func TestTripsByCity(t *testing.T) {
	h := newServer()

	var rows []models.Trip
	get(t, h, "/trips/city/HANOI", &rows)
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}

	rec := get(t, h, "/trips/city/Da%20Nang", &rows)
	if rec.Code != http.StatusOK || len(rows) != 1 {
		t.Errorf("Da Nang: code %d rows %d", rec.Code, len(rows))
	}

	rec = get(t, h, "/trips/city/Atlantis", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "[]\n" {
		t.Errorf("unknown city: code %d body %q", rec.Code, rec.Body.String())
	}
}

func TestSummaryAndFilter(t *testing.T) {
	h := newServer()

	var summary []models.CitySummary
	get(t, h, "/trips/summary", &summary)
	if len(summary) != 2 || summary[0].City != "Da Nang" || summary[1].TotalRevenue != 160 {
		t.Errorf("summary: %+v", summary)
	}

	var rows []models.Trip
	get(t, h, "/trips/filter?weather=RAINY", &rows)
	if len(rows) != 2 {
		t.Errorf("weather=RAINY: got %d rows", len(rows))
	}
	rows = nil
	get(t, h, "/trips/filter?weather=rainy&traffic=light", &rows)
	if len(rows) != 1 || rows[0].TripID != "3" {
		t.Errorf("rainy+light: got %+v", rows)
	}
}

func TestFraudRateEndpoint(t *testing.T) {
	var got models.FraudRate
	get(t, newServer(), "/trips/fraud-rate", &got)
	if got.TotalTrips != 3 || got.FraudTrips != 1 || got.FraudRate != "33.33%" {
		t.Errorf("got %+v", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	var got struct {
		AverageFare     float64            `json:"average_fare"`
		AverageDistance float64            `json:"average_distance"`
		AverageDuration float64            `json:"average_duration"`
		RevenuePerHour  map[string]float64 `json:"revenue_per_hour"`
	}
	get(t, newServer(), "/trips/metrics", &got)
	if got.AverageFare != 66.67 || got.AverageDistance != 3 || got.AverageDuration != 20 {
		t.Errorf("got %+v", got)
	}
	if got.RevenuePerHour["8"] != 100 {
		t.Errorf("revenue per hour: %v", got.RevenuePerHour)
	}
}

func TestFraudAnalysisEndpoint(t *testing.T) {
	var got models.FraudAnalysis
	get(t, newServer(), "/trips/fraud-analysis", &got)

	if len(got.MostFraudRoutes) != 1 {
		t.Fatalf("routes: %+v", got.MostFraudRoutes)
	}
	r := got.MostFraudRoutes[0]
	if r.City != "Hanoi" || r.FraudCount != 1 || r.PickupLat == nil || r.DropoffLat != nil {
		t.Errorf("route: %+v", r)
	}
	if got.MostFraudulentHour == nil || *got.MostFraudulentHour != 8 {
		t.Errorf("hour: %v", got.MostFraudulentHour)
	}
	if got.MostFraudulentWeather != "Rainy" || got.MostFraudulentTraffic != "Heavy" {
		t.Errorf("weather/traffic: %q/%q", got.MostFraudulentWeather, got.MostFraudulentTraffic)
	}
	if !got.MapAvailable {
		t.Error("pickup resolved, map should be available")
	}
}

// blockingResolver never answers; it gives up when the context ends.
type blockingResolver struct{}

func (blockingResolver) Resolve(ctx context.Context, _, _ string) (models.Coordinates, bool) {
	<-ctx.Done()
	return models.Coordinates{}, false
}

func TestFraudAnalysisDeadlineYieldsNullCoordinates(t *testing.T) {
	h := RegisterRoutes(NewHandler(testTable(), blockingResolver{}, 100, 50*time.Millisecond))

	start := time.Now()
	var got models.FraudAnalysis
	rec := get(t, h, "/trips/fraud-analysis", &got)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("took %v, want the analysis deadline to cut geocoding short", elapsed)
	}
	if len(got.MostFraudRoutes) != 1 {
		t.Fatalf("routes: %+v", got.MostFraudRoutes)
	}
	r := got.MostFraudRoutes[0]
	if r.PickupLat != nil || r.DropoffLat != nil {
		t.Errorf("coordinates should be null after the deadline: %+v", r)
	}
	if got.MapAvailable {
		t.Error("map should not be available")
	}
}

func TestRequestIDAndNotFound(t *testing.T) {
	h := newServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "abc-123" {
		t.Errorf("request id not echoed: %q", rec.Header().Get("X-Request-ID"))
	}

	rec = get(t, h, "/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown path: got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/trips", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /trips: got %d", rec.Code)
	}
}
