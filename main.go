package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taxi-analytics/api"
	"taxi-analytics/cache"
	"taxi-analytics/config"
	"taxi-analytics/database"
	"taxi-analytics/geocoding"
	"taxi-analytics/logging"
	"taxi-analytics/metrics"
)

func main() {
	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Error loading config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the dataset; no table, no server
	table, err := loadTable(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Data.Path).Msg("Failed to load dataset")
	}
	metrics.DatasetRows.Set(float64(table.Len()))
	logging.Info().Int("rows", table.Len()).Msg("Dataset loaded")

	// Initialize geocoding
	resolver, closeStore, err := newResolver(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize geocoding")
	}
	defer closeStore()

	// Register routes
	handler := api.NewHandler(table, resolver, cfg.Query.DefaultLimit, cfg.Server.AnalysisTimeout)
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      api.RegisterRoutes(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start the server
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func loadTable(ctx context.Context, cfg *config.Config) (*database.Table, error) {
	if cfg.Data.Format != "postgres" {
		return database.LoadFile(cfg.Data.Path, cfg.Data.Format)
	}

	connectCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	db, err := database.Connect(connectCtx, cfg.DB.DSN())
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return database.LoadPostgres(ctx, db, cfg.DB.Table)
}

func newResolver(ctx context.Context, cfg *config.Config) (*geocoding.Resolver, func(), error) {
	gc := cfg.Geocoder

	var store cache.Store = cache.NewMemoryStore()
	closeStore := func() {}
	if gc.Cache == "redis" {
		rs, err := cache.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		store = rs
		closeStore = func() { rs.Close() }
	}

	var geocoder geocoding.Geocoder
	if gc.Enabled {
		client := geocoding.NewNominatimClient(gc.URL, gc.UserAgent, gc.Timeout, gc.RatePerSecond)
		geocoder = geocoding.NewBreakerGeocoder(client, 2*time.Minute)
	} else {
		logging.Warn().Msg("Geocoder disabled; fraud routes resolve from cache only")
	}

	resolver := geocoding.NewResolver(geocoder, store, geocoding.Options{
		Country:     gc.Country,
		Timeout:     gc.Timeout,
		Backoff:     gc.RetryBackoff,
		MaxAttempts: gc.MaxAttempts,
	})
	return resolver, closeStore, nil
}
