// Command migrate creates the trips table used when the dataset is served
// from Postgres (data.format: postgres).
package main

import (
	"flag"

	"taxi-analytics/config"
	"taxi-analytics/logging"
	"taxi-analytics/migration"
)

func main() {
	source := flag.String("source", migration.DefaultSource, "migration source URL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Error loading config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if err := migration.Run(cfg.DB.URL(), *source); err != nil {
		logging.Fatal().Err(err).Msg("Migration error")
	}
}
