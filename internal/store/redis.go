package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/i474232898/sunlight-history/internal/logger"
	"github.com/i474232898/sunlight-history/internal/sunlight"
)

const cacheKeyPrefix = "sunlight:historical:"

// cacheBackend is the subset of redis.UniversalClient the cache needs.
type cacheBackend interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// NewRedisClient builds a client for a comma-separated address list. A single
// address gives a plain client, several give a cluster client.
func NewRedisClient(addrs string) redis.UniversalClient {
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:           strings.Split(addrs, ","),
		PoolSize:        10,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     1 * time.Second,
		WriteTimeout:    1 * time.Second,
		MaxRetries:      3,
		MinRetryBackoff: 50 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	})
}

// CachedStore is a read-through Redis cache in front of another store.
// Records never change after creation, so cached entries cannot go stale;
// the TTL only bounds memory use.
type CachedStore struct {
	next  sunlight.Store
	cache cacheBackend
	ttl   time.Duration
	log   logger.Logger
}

// NewCachedStore wraps next. Cache failures are logged and otherwise ignored.
func NewCachedStore(next sunlight.Store, cache cacheBackend, ttl time.Duration, log logger.Logger) *CachedStore {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedStore{next: next, cache: cache, ttl: ttl, log: log}
}

func (s *CachedStore) FindExact(ctx context.Context, q sunlight.Query) (*sunlight.HistoricalInformation, error) {
	key := queryCacheKey(q)
	if rec, ok := s.get(ctx, key); ok {
		return rec, nil
	}

	rec, err := s.next.FindExact(ctx, q)
	if err != nil {
		return nil, err
	}
	s.put(ctx, rec)
	return rec, nil
}

func (s *CachedStore) Create(ctx context.Context, q sunlight.Query, data []sunlight.DailyRecord) (*sunlight.HistoricalInformation, error) {
	rec, err := s.next.Create(ctx, q, data)
	if err != nil {
		return nil, err
	}
	s.put(ctx, rec)
	return rec, nil
}

func (s *CachedStore) FindByID(ctx context.Context, id string) (*sunlight.HistoricalInformation, error) {
	key := idCacheKey(id)
	if rec, ok := s.get(ctx, key); ok {
		return rec, nil
	}

	rec, err := s.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(ctx, rec)
	return rec, nil
}

func (s *CachedStore) get(ctx context.Context, key string) (*sunlight.HistoricalInformation, bool) {
	val, err := s.cache.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.log.Warn(ctx, "redis get failed", logger.String("key", key), logger.Error(err))
		return nil, false
	}

	var rec sunlight.HistoricalInformation
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		s.log.Warn(ctx, "discarding undecodable cache entry", logger.String("key", key), logger.Error(err))
		return nil, false
	}
	return &rec, true
}

func (s *CachedStore) put(ctx context.Context, rec *sunlight.HistoricalInformation) {
	b, err := json.Marshal(rec)
	if err != nil {
		s.log.Warn(ctx, "encode cache entry", logger.String("id", rec.ID), logger.Error(err))
		return
	}
	for _, key := range []string{queryCacheKey(rec.Query()), idCacheKey(rec.ID)} {
		if err := s.cache.Set(ctx, key, string(b), s.ttl).Err(); err != nil {
			s.log.Warn(ctx, "redis set failed", logger.String("key", key), logger.Error(err))
		}
	}
}

func queryCacheKey(q sunlight.Query) string { return cacheKeyPrefix + "query:" + q.Key() }

func idCacheKey(id string) string { return cacheKeyPrefix + "id:" + id }
