package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Data     DataConfig     `mapstructure:"data"`
	DB       DBConfig       `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Geocoder GeocoderConfig `mapstructure:"geocoder"`
	Log      LogConfig      `mapstructure:"log"`
	Query    QueryConfig    `mapstructure:"query"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	// AnalysisTimeout bounds geocoding inside one fraud analysis request.
	// It must leave room for the response before WriteTimeout hits.
	AnalysisTimeout time.Duration `mapstructure:"analysis_timeout" validate:"gt=0,ltfield=WriteTimeout"`
}

// DataConfig points at the dataset read once at startup. An empty Format is
// inferred from the file extension of Path.
type DataConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=csv json postgres"`
}

type DBConfig struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Table    string `mapstructure:"table" validate:"required"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
}

type GeocoderConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	URL           string        `mapstructure:"url" validate:"required,url"`
	UserAgent     string        `mapstructure:"user_agent" validate:"required"`
	Country       string        `mapstructure:"country"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff" validate:"min=0"`
	MaxAttempts   int           `mapstructure:"max_attempts" validate:"min=1,max=10"`
	RatePerSecond float64       `mapstructure:"rate_per_second" validate:"gt=0"`
	Cache         string        `mapstructure:"cache" validate:"oneof=memory redis"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

type QueryConfig struct {
	DefaultLimit int `mapstructure:"default_limit" validate:"min=0"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL returns the connection string in URL form, as golang-migrate expects it.
func (c DBConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// Address returns host:port for the HTTP listener.
func (c ServerConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.analysis_timeout", 45*time.Second)

	v.SetDefault("data.path", "trips.csv")
	v.SetDefault("data.format", "")

	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.dbname", "taxi")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.table", "trips")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("geocoder.enabled", true)
	v.SetDefault("geocoder.url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geocoder.user_agent", "taxi-analytics")
	v.SetDefault("geocoder.country", "Vietnam")
	v.SetDefault("geocoder.timeout", 10*time.Second)
	v.SetDefault("geocoder.retry_backoff", time.Second)
	v.SetDefault("geocoder.max_attempts", 3)
	v.SetDefault("geocoder.rate_per_second", 1.0)
	v.SetDefault("geocoder.cache", "memory")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("query.default_limit", 100)
}

// Load reads config.yaml from the given directories (default "." and
// "./config"), then applies TAXI_* environment overrides. A missing config
// file is not an error; an invalid one is.
func Load(paths ...string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("TAXI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
