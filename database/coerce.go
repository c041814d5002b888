package database

import (
	"math"
	"strconv"
	"strings"
	"time"

	"taxi-analytics/models"
)

// Canonical column names and the source headers accepted for each.
var columnAliases = map[string][]string{
	"trip_id":          {"trip_id", "id", "tripid"},
	"city":             {"city"},
	"fare":             {"fare", "fare_amount", "price"},
	"distance_km":      {"distance_km", "distance"},
	"pickup_time":      {"pickup_time", "start_time", "pickup_datetime", "pickup_timestamp"},
	"dropoff_time":     {"dropoff_time", "end_time", "dropoff_datetime", "dropoff_timestamp"},
	"pickup_location":  {"pickup_location", "pickup_address", "start_location"},
	"dropoff_location": {"dropoff_location", "dropoff_address", "end_location"},
	"weather":          {"weather", "weather_condition"},
	"traffic":          {"traffic", "traffic_condition"},
	"is_fraud":         {"is_fraud", "fraud", "fraud_flag", "fraudulent"},
}

var aliasIndex = func() map[string]string {
	idx := make(map[string]string)
	for canonical, aliases := range columnAliases {
		for _, a := range aliases {
			idx[a] = canonical
		}
	}
	return idx
}()

// canonicalColumn maps a source header to its canonical name, or "".
func canonicalColumn(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.ReplaceAll(h, " ", "_")
	return aliasIndex[h]
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
}

func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "null", "none", "na", "n/a":
		return true
	}
	return false
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if isMissing(s) {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if isMissing(s) {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// hourFromText reads the hour from the "HH" after the date part of a
// timestamp such as "2024-03-01 08:15", for values time.Parse rejects.
func hourFromText(s string) *int {
	s = strings.TrimSpace(s)
	if len(s) < 13 || (s[10] != ' ' && s[10] != 'T') {
		return nil
	}
	h, err := strconv.Atoi(s[11:13])
	if err != nil || h < 0 || h > 23 {
		return nil
	}
	return &h
}

func parseCategory(s string) *string {
	s = strings.TrimSpace(s)
	if isMissing(s) {
		return nil
	}
	return &s
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1.0", "true", "t", "yes", "y":
		return true
	}
	return false
}

// tripFromFields builds a Trip from canonical column -> raw text. Values that
// cannot be coerced become missing instead of failing the load.
func tripFromFields(fields map[string]string) models.Trip {
	t := models.Trip{
		TripID:          strings.TrimSpace(fields["trip_id"]),
		City:            strings.TrimSpace(fields["city"]),
		Fare:            parseFloat(fields["fare"]),
		DistanceKm:      parseFloat(fields["distance_km"]),
		PickupTime:      parseTime(fields["pickup_time"]),
		DropoffTime:     parseTime(fields["dropoff_time"]),
		PickupLocation:  strings.TrimSpace(fields["pickup_location"]),
		DropoffLocation: strings.TrimSpace(fields["dropoff_location"]),
		Weather:         parseCategory(fields["weather"]),
		Traffic:         parseCategory(fields["traffic"]),
		IsFraud:         parseBool(fields["is_fraud"]),
	}
	if t.PickupTime == nil {
		t.PickupHour = hourFromText(fields["pickup_time"])
	}
	return t
}
