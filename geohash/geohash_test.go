package geohash

import (
	"math"
	"testing"

	"taxi-analytics/models"
)

func TestEncode(t *testing.T) {
	// Hoan Kiem Lake, Hanoi.
	got := Encode(21.0287, 105.8524, 5)
	if got != "w7er8" {
		t.Errorf("Encode: got %q, want w7er8", got)
	}
	if len(Encode(21.0287, 105.8524, RoutePrecision)) != RoutePrecision {
		t.Error("precision not honoured")
	}
}

func TestDistanceKm(t *testing.T) {
	hanoi := models.Coordinates{Lat: 21.0285, Lon: 105.8542}
	hcmc := models.Coordinates{Lat: 10.8231, Lon: 106.6297}

	d := DistanceKm(hanoi, hcmc)
	if math.Abs(d-1138) > 15 {
		t.Errorf("Hanoi-HCMC: got %.1f km, want about 1138", d)
	}
	if DistanceKm(hanoi, hanoi) != 0 {
		t.Error("distance to self should be 0")
	}
}
