// Package database loads the trip dataset once at startup and holds it as an
// immutable in-memory Table.
package database

import (
	"taxi-analytics/models"
)

// Table is a read-only snapshot of the dataset. It is safe for concurrent
// readers; nothing modifies it after NewTable returns.
type Table struct {
	trips []models.Trip
}

// NewTable takes ownership of trips and fills in the derived columns
// (duration in minutes, pickup hour) that were not already set.
func NewTable(trips []models.Trip) *Table {
	for i := range trips {
		derive(&trips[i])
	}
	return &Table{trips: trips}
}

func derive(t *models.Trip) {
	if t.DurationMin == nil && t.PickupTime != nil && t.DropoffTime != nil {
		d := t.DropoffTime.Sub(*t.PickupTime).Minutes()
		t.DurationMin = &d
	}
	if t.PickupHour == nil && t.PickupTime != nil {
		h := t.PickupTime.Hour()
		t.PickupHour = &h
	}
}

// Rows returns the rows in source order. Callers must not modify the slice.
func (t *Table) Rows() []models.Trip {
	return t.trips
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.trips)
}

// Head returns at most n rows from the start of the table.
func (t *Table) Head(n int) []models.Trip {
	if n < 0 {
		n = 0
	}
	if n > len(t.trips) {
		n = len(t.trips)
	}
	out := make([]models.Trip, n)
	copy(out, t.trips[:n])
	return out
}
