package models

import "time"

// Trip is one row of the loaded dataset. Pointer fields are nil when the
// source value was missing or could not be coerced.
type Trip struct {
	TripID          string     `json:"trip_id"`
	City            string     `json:"city"`
	Fare            *float64   `json:"fare"`
	DistanceKm      *float64   `json:"distance_km"`
	PickupTime      *time.Time `json:"pickup_time"`
	DropoffTime     *time.Time `json:"dropoff_time"`
	PickupLocation  string     `json:"pickup_location"`
	DropoffLocation string     `json:"dropoff_location"`
	Weather         *string    `json:"weather"`
	Traffic         *string    `json:"traffic"`
	IsFraud         bool       `json:"is_fraud"`

	// Derived once at load time.
	DurationMin *float64 `json:"duration_min"`
	PickupHour  *int     `json:"pickup_hour"`
}

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CitySummary is one row of /trips/summary.
type CitySummary struct {
	City         string  `json:"city"`
	TotalTrips   int     `json:"total_trips"`
	TotalRevenue float64 `json:"total_revenue"`
}

type FraudRate struct {
	TotalTrips int    `json:"total_trips"`
	FraudTrips int    `json:"fraud_trips"`
	FraudRate  string `json:"fraud_rate"`
}

// TripMetrics holds overall means rounded to 2 decimals; a mean over no
// values is nil.
type TripMetrics struct {
	AverageFare     *float64        `json:"average_fare"`
	AverageDistance *float64        `json:"average_distance"`
	AverageDuration *float64        `json:"average_duration"`
	RevenuePerHour  map[int]float64 `json:"revenue_per_hour"`
}
