package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"taxi-analytics/logging"
)

// DefaultSource is where the trips schema lives relative to the repo root.
const DefaultSource = "file://database/migrations"

// Run applies every pending migration from source to the database at dbURL.
// It waits for the database to accept connections first.
func Run(dbURL, source string) error {
	if err := waitForDB(dbURL, 10, 3*time.Second); err != nil {
		return err
	}

	m, err := migrate.New(source, dbURL)
	if err != nil {
		return fmt.Errorf("could not start migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	logging.Info().Uint("version", version).Bool("dirty", dirty).Msg("Migrations applied successfully!")
	return nil
}

func waitForDB(dbURL string, attempts int, delay time.Duration) error {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("could not open the database: %w", err)
	}
	defer db.Close()

	for i := 0; i < attempts; i++ {
		if err = db.Ping(); err == nil {
			logging.Info().Msg("Connected to the database successfully.")
			return nil
		}
		logging.Warn().Int("attempt", i+1).Msg("Waiting for the database to be ready...")
		time.Sleep(delay)
	}
	return fmt.Errorf("could not connect to the database: %w", err)
}
