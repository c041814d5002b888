package analytics

import (
	"context"
	"sort"

	"taxi-analytics/database"
	"taxi-analytics/geohash"
	"taxi-analytics/models"
)

// Unknown is reported when no fraud row carries a weather or traffic value.
const Unknown = "Unknown"

// CoordinateResolver turns an address in a city into coordinates. ok is
// false when the address could not be resolved.
type CoordinateResolver interface {
	Resolve(ctx context.Context, address, city string) (c models.Coordinates, ok bool)
}

type route struct {
	city, pickup, dropoff string
}

// FraudAnalysis summarises fraud-flagged trips: the top route per city (with
// geocoded endpoints), and the most common pickup hour, weather and traffic
// among fraud trips. Ties go to whichever candidate appears first in the
// table. A nil resolver leaves all coordinates null.
func FraudAnalysis(ctx context.Context, t *database.Table, resolver CoordinateResolver) models.FraudAnalysis {
	routes := newCounter[route]()
	hours := newCounter[int]()
	weather := newCounter[string]()
	traffic := newCounter[string]()

	for _, trip := range t.Rows() {
		if !trip.IsFraud {
			continue
		}
		if trip.City != "" && trip.PickupLocation != "" && trip.DropoffLocation != "" {
			routes.add(route{trip.City, trip.PickupLocation, trip.DropoffLocation})
		}
		if trip.PickupHour != nil {
			hours.add(*trip.PickupHour)
		}
		if trip.Weather != nil {
			weather.add(*trip.Weather)
		}
		if trip.Traffic != nil {
			traffic.add(*trip.Traffic)
		}
	}

	summaries := topRoutePerCity(routes)
	for i := range summaries {
		enrich(ctx, &summaries[i], resolver)
	}

	result := models.FraudAnalysis{
		MostFraudRoutes:       summaries,
		MostFraudulentWeather: Unknown,
		MostFraudulentTraffic: Unknown,
		MapAvailable:          len(summaries) > 0,
	}
	if h, _, ok := hours.top(); ok {
		result.MostFraudulentHour = &h
	}
	if w, _, ok := weather.top(); ok {
		result.MostFraudulentWeather = w
	}
	if tr, _, ok := traffic.top(); ok {
		result.MostFraudulentTraffic = tr
	}
	for _, s := range summaries {
		if s.PickupLat == nil || s.PickupLon == nil {
			result.MapAvailable = false
			break
		}
	}
	return result
}

// topRoutePerCity picks the highest-count route in each city, ordered by
// city name.
func topRoutePerCity(routes *counter[route]) []models.FraudRouteSummary {
	best := make(map[string]route)
	for _, r := range routes.order {
		cur, seen := best[r.city]
		if !seen || routes.counts[r] > routes.counts[cur] {
			best[r.city] = r
		}
	}

	out := make([]models.FraudRouteSummary, 0, len(best))
	for city, r := range best {
		out = append(out, models.FraudRouteSummary{
			City:            city,
			PickupLocation:  r.pickup,
			DropoffLocation: r.dropoff,
			FraudCount:      routes.counts[r],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out
}

func enrich(ctx context.Context, s *models.FraudRouteSummary, resolver CoordinateResolver) {
	if resolver == nil {
		return
	}
	pickup, okPickup := resolver.Resolve(ctx, s.PickupLocation, s.City)
	if okPickup {
		s.SetPickup(pickup)
		s.PickupGeohash = geohash.Encode(pickup.Lat, pickup.Lon, geohash.RoutePrecision)
	}
	dropoff, okDropoff := resolver.Resolve(ctx, s.DropoffLocation, s.City)
	if okDropoff {
		s.SetDropoff(dropoff)
		s.DropoffGeohash = geohash.Encode(dropoff.Lat, dropoff.Lon, geohash.RoutePrecision)
	}
	if okPickup && okDropoff {
		d := round2(geohash.DistanceKm(pickup, dropoff))
		s.StraightLineKm = &d
	}
}
