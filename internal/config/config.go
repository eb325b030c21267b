package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// ErrInvalidConfig wraps every configuration error returned by Load.
var ErrInvalidConfig = errors.New("invalid config")

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// EnvProduction is the APP_ENV value that selects the production upstream.
const EnvProduction = "production"

// Location is a coordinate pair the scheduler keeps warm.
type Location struct {
	Latitude  decimal.Decimal
	Longitude decimal.Decimal
}

type AppConfig struct {
	Env string

	// Upstream base URLs; ProviderBaseURL picks one by Env.
	ProductionAPILink string
	DevAPILink        string

	// HTTPTimeout bounds every upstream call.
	HTTPTimeout time.Duration

	StoreDriver      string
	DatabaseDSN      string
	DatabaseMaxConns int

	// Redis read-through cache; disabled when RedisAddr is empty.
	RedisAddr string
	RedisTTL  time.Duration

	// Locations resolved for (yesterday, today) every PrefetchInterval.
	PrefetchLocations []Location
	PrefetchInterval  time.Duration

	Port      string
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Env = getenvDefault("APP_ENV", "development")
	cfg.ProductionAPILink = os.Getenv("SUNSET_SUNRISE_PRODUCTION_API_LINK")
	cfg.DevAPILink = os.Getenv("SUNSET_SUNRISE_DEV_API_LINK")

	timeout, err := getenvDuration("HTTP_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: HTTP_TIMEOUT must be positive", ErrInvalidConfig)
	}
	cfg.HTTPTimeout = timeout

	cfg.StoreDriver = strings.ToLower(getenvDefault("STORE_DRIVER", DriverMemory))
	switch cfg.StoreDriver {
	case DriverMemory, DriverMySQL, DriverPostgres:
		cfg.DatabaseDSN = os.Getenv("DATABASE_DSN")
	case DriverSQLite:
		cfg.DatabaseDSN = getenvDefault("DATABASE_DSN", "sunlight.db")
	default:
		return nil, fmt.Errorf("%w: unknown STORE_DRIVER %q", ErrInvalidConfig, cfg.StoreDriver)
	}
	if (cfg.StoreDriver == DriverMySQL || cfg.StoreDriver == DriverPostgres) && cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("%w: DATABASE_DSN is required for %s", ErrInvalidConfig, cfg.StoreDriver)
	}

	cfg.DatabaseMaxConns, err = getenvInt("DATABASE_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	if cfg.RedisTTL, err = getenvDuration("REDIS_TTL", "24h"); err != nil {
		return nil, err
	}

	locs, err := parseLocations(os.Getenv("PREFETCH_LOCATIONS"))
	if err != nil {
		return nil, err
	}
	cfg.PrefetchLocations = locs
	if cfg.PrefetchInterval, err = getenvDuration("PREFETCH_INTERVAL", "24h"); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))
	cfg.LogFormat = strings.ToLower(getenvDefault("LOG_FORMAT", "text"))

	if cfg.ProviderBaseURL() == "" {
		return nil, fmt.Errorf("%w: upstream API link for %s environment is not set", ErrInvalidConfig, cfg.Env)
	}

	return cfg, nil
}

// ProviderBaseURL returns the upstream base URL for the configured environment.
func (c *AppConfig) ProviderBaseURL() string {
	if c.Env == EnvProduction {
		return c.ProductionAPILink
	}
	return c.DevAPILink
}

// parseLocations reads "lat,lon;lat,lon".
func parseLocations(s string) ([]Location, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var locs []Location
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: PREFETCH_LOCATIONS entry %q must be lat,lon", ErrInvalidConfig, pair)
		}
		lat, err := decimal.NewFromString(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: PREFETCH_LOCATIONS latitude %q: %v", ErrInvalidConfig, parts[0], err)
		}
		lon, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: PREFETCH_LOCATIONS longitude %q: %v", ErrInvalidConfig, parts[1], err)
		}
		locs = append(locs, Location{Latitude: lat, Longitude: lon})
	}
	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s: %v", ErrInvalidConfig, key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s: %v", ErrInvalidConfig, key, err)
	}
	return d, nil
}
