package models

// FraudRouteSummary is the route with the most fraud trips in one city.
type FraudRouteSummary struct {
	City            string   `json:"city"`
	PickupLocation  string   `json:"pickup_location"`
	DropoffLocation string   `json:"dropoff_location"`
	FraudCount      int      `json:"fraud_count"`
	PickupLat       *float64 `json:"pickup_lat"`
	PickupLon       *float64 `json:"pickup_lon"`
	DropoffLat      *float64 `json:"dropoff_lat"`
	DropoffLon      *float64 `json:"dropoff_lon"`

	PickupGeohash  string   `json:"pickup_geohash,omitempty"`
	DropoffGeohash string   `json:"dropoff_geohash,omitempty"`
	StraightLineKm *float64 `json:"straight_line_km,omitempty"`
}

// SetPickup records resolved pickup coordinates.
func (s *FraudRouteSummary) SetPickup(c Coordinates) {
	s.PickupLat, s.PickupLon = &c.Lat, &c.Lon
}

// SetDropoff records resolved dropoff coordinates.
func (s *FraudRouteSummary) SetDropoff(c Coordinates) {
	s.DropoffLat, s.DropoffLon = &c.Lat, &c.Lon
}

type FraudAnalysis struct {
	MostFraudRoutes       []FraudRouteSummary `json:"most_fraud_routes"`
	MostFraudulentHour    *int                `json:"most_fraudulent_hour"`
	MostFraudulentWeather string              `json:"most_fraudulent_weather"`
	MostFraudulentTraffic string              `json:"most_fraudulent_traffic"`
	// MapAvailable is false when any route lacks pickup coordinates; the
	// dashboard hides the whole map in that case.
	MapAvailable bool `json:"map_available"`
}
