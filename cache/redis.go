package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"

	"taxi-analytics/config"
	"taxi-analytics/logging"
	"taxi-analytics/models"
)

// geocodeHash is the Redis hash holding every cached geocode.
const geocodeHash = "geocode"

// RedisStore shares the geocode cache between instances. Fields live in a
// single hash with no TTL.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to Redis and checks the connection.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info().Str("addr", cfg.Addr).Msg("Connected to Redis successfully.")
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (models.Coordinates, bool, error) {
	raw, err := s.rdb.HGet(ctx, geocodeHash, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Coordinates{}, false, nil
	}
	if err != nil {
		return models.Coordinates{}, false, fmt.Errorf("redis hget: %w", err)
	}

	var c models.Coordinates
	if err := json.Unmarshal(raw, &c); err != nil {
		return models.Coordinates{}, false, fmt.Errorf("decode cached geocode %q: %w", key, err)
	}
	return c, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, c models.Coordinates) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.rdb.HSet(ctx, geocodeHash, key, raw).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
