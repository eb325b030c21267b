package store

import (
	"context"
	"fmt"
	"io"

	gormlogger "gorm.io/gorm/logger"

	"github.com/i474232898/sunlight-history/internal/config"
	"github.com/i474232898/sunlight-history/internal/logger"
	"github.com/i474232898/sunlight-history/internal/sunlight"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the configured backend, wrapped in the Redis cache when enabled.
// The returned Closer releases every underlying connection.
func Open(ctx context.Context, cfg *config.AppConfig, log logger.Logger) (sunlight.Store, io.Closer, error) {
	gormLevel := gormlogger.Silent
	if cfg.LogLevel == "debug" {
		gormLevel = gormlogger.Info
	}

	var (
		base   sunlight.Store
		closer io.Closer = nopCloser{}
	)

	switch cfg.StoreDriver {
	case config.DriverMemory:
		base = NewMemoryStore()
	case config.DriverSQLite:
		s, err := OpenSQLite(cfg.DatabaseDSN, gormLevel)
		if err != nil {
			return nil, nil, err
		}
		base, closer = s, s
	case config.DriverMySQL:
		s, err := OpenMySQL(cfg.DatabaseDSN, gormLevel)
		if err != nil {
			return nil, nil, err
		}
		base, closer = s, s
	case config.DriverPostgres:
		pool, err := NewPostgresPool(ctx, cfg.DatabaseDSN, cfg.DatabaseMaxConns)
		if err != nil {
			return nil, nil, err
		}
		s, err := NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		base, closer = s, s
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	log.Info(ctx, "store opened", logger.String("driver", cfg.StoreDriver))

	if cfg.RedisAddr == "" {
		return base, closer, nil
	}

	rdb := NewRedisClient(cfg.RedisAddr)
	log.Info(ctx, "redis cache enabled", logger.String("addr", cfg.RedisAddr))
	return NewCachedStore(base, rdb, cfg.RedisTTL, log.Named("cache")), multiCloser{closer, rdb}, nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
