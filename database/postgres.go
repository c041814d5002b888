package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"taxi-analytics/logging"
	"taxi-analytics/models"
)

type tripRow struct {
	TripID          sql.NullString  `db:"trip_id"`
	City            sql.NullString  `db:"city"`
	Fare            sql.NullFloat64 `db:"fare"`
	DistanceKm      sql.NullFloat64 `db:"distance_km"`
	PickupTime      sql.NullTime    `db:"pickup_time"`
	DropoffTime     sql.NullTime    `db:"dropoff_time"`
	PickupLocation  sql.NullString  `db:"pickup_location"`
	DropoffLocation sql.NullString  `db:"dropoff_location"`
	Weather         sql.NullString  `db:"weather"`
	Traffic         sql.NullString  `db:"traffic"`
	IsFraud         sql.NullBool    `db:"is_fraud"`
}

func (r tripRow) trip() models.Trip {
	t := models.Trip{
		TripID:          r.TripID.String,
		City:            r.City.String,
		PickupLocation:  r.PickupLocation.String,
		DropoffLocation: r.DropoffLocation.String,
		IsFraud:         r.IsFraud.Valid && r.IsFraud.Bool,
	}
	if r.Fare.Valid {
		t.Fare = &r.Fare.Float64
	}
	if r.DistanceKm.Valid {
		t.DistanceKm = &r.DistanceKm.Float64
	}
	if r.PickupTime.Valid {
		t.PickupTime = &r.PickupTime.Time
	}
	if r.DropoffTime.Valid {
		t.DropoffTime = &r.DropoffTime.Time
	}
	if r.Weather.Valid {
		t.Weather = parseCategory(r.Weather.String)
	}
	if r.Traffic.Valid {
		t.Traffic = parseCategory(r.Traffic.String)
	}
	return t
}

// Connect opens a Postgres pool and waits for it to answer, retrying while
// the database container is still starting.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			logging.Info().Msg("Database connected.")
			return db, nil
		}
		logging.Warn().Int("attempt", i+1).Err(err).Msg("Waiting for the database to be ready...")
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	db.Close()
	return nil, fmt.Errorf("could not connect to the database: %w", err)
}

// LoadPostgres reads every row of table, in insertion order, into a Table.
func LoadPostgres(ctx context.Context, db *sqlx.DB, table string) (*Table, error) {
	query := fmt.Sprintf(`SELECT trip_id, city, fare, distance_km, pickup_time, dropoff_time,
		pickup_location, dropoff_location, weather, traffic, is_fraud
		FROM %s ORDER BY id`, pq.QuoteIdentifier(table))

	var rows []tripRow
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}

	trips := make([]models.Trip, len(rows))
	for i, r := range rows {
		trips[i] = r.trip()
	}
	return NewTable(trips), nil
}
