package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "HTTP_TIMEOUT", "STORE_DRIVER", "DATABASE_DSN", "DATABASE_MAX_CONNS",
		"REDIS_ADDR", "REDIS_TTL", "PREFETCH_LOCATIONS", "PREFETCH_INTERVAL",
		"PORT", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("SUNSET_SUNRISE_PRODUCTION_API_LINK", "https://api.sunrisesunset.io")
	t.Setenv("SUNSET_SUNRISE_DEV_API_LINK", "http://localhost:9999")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "http://localhost:9999", cfg.ProviderBaseURL())
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 10, cfg.DatabaseMaxConns)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 24*time.Hour, cfg.RedisTTL)
	assert.Empty(t, cfg.PrefetchLocations)
	assert.Equal(t, 24*time.Hour, cfg.PrefetchInterval)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadProductionSelectsProductionLink(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.sunrisesunset.io", cfg.ProviderBaseURL())
}

func TestLoadMissingLinkForEnvironment(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("SUNSET_SUNRISE_PRODUCTION_API_LINK", "")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestLoadSQLiteDefaultDSN(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORE_DRIVER", "SQLite")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "sunlight.db", cfg.DatabaseDSN)
}

func TestLoadPrefetchLocations(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PREFETCH_LOCATIONS", "40.7128,-74.0060; -33.8688,151.2093;")
	t.Setenv("PREFETCH_INTERVAL", "6h")

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.PrefetchLocations, 2)
	assert.Equal(t, "40.7128", cfg.PrefetchLocations[0].Latitude.String())
	assert.Equal(t, "-74.006", cfg.PrefetchLocations[0].Longitude.String())
	assert.Equal(t, "-33.8688", cfg.PrefetchLocations[1].Latitude.String())
	assert.Equal(t, 6*time.Hour, cfg.PrefetchInterval)
}

func TestLoadInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"unknown driver":       {"STORE_DRIVER", "mongo"},
		"postgres without dsn": {"STORE_DRIVER", "postgres"},
		"bad timeout":          {"HTTP_TIMEOUT", "soon"},
		"zero timeout":         {"HTTP_TIMEOUT", "0s"},
		"bad max conns":        {"DATABASE_MAX_CONNS", "many"},
		"bad redis ttl":        {"REDIS_TTL", "forever"},
		"bad location pair":    {"PREFETCH_LOCATIONS", "40.7128"},
		"bad latitude":         {"PREFETCH_LOCATIONS", "north,-74.0060"},
		"bad longitude":        {"PREFETCH_LOCATIONS", "40.7128,west"},
		"bad prefetch period":  {"PREFETCH_INTERVAL", "daily"},
	}

	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(kv[0], kv[1])

			_, err := Load()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
