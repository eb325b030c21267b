package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/i474232898/sunlight-history/internal/sunlight"
)

const pgUniqueViolation = "23505"

const pgSchema = `
CREATE TABLE IF NOT EXISTS historical_informations (
	id         uuid PRIMARY KEY,
	latitude   numeric(10, 7) NOT NULL,
	longitude  numeric(10, 7) NOT NULL,
	start_date date NOT NULL,
	end_date   date NOT NULL,
	data       jsonb NOT NULL,
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS index_historical_informations_on_latitude_and_longitude
	ON historical_informations (latitude, longitude);
CREATE INDEX IF NOT EXISTS index_historical_informations_on_start_date
	ON historical_informations (start_date);
CREATE INDEX IF NOT EXISTS index_historical_informations_on_end_date
	ON historical_informations (end_date);
CREATE UNIQUE INDEX IF NOT EXISTS index_historical_informations_on_query
	ON historical_informations (latitude, longitude, start_date, end_date);
`

const pgColumns = `id::text, latitude::text, longitude::text, start_date, end_date, data, created_at, updated_at`

// PostgresStore persists records in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresPool parses dsn and opens a pool sized for request traffic.
func NewPostgresPool(ctx context.Context, dsn string, maxConnections int) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	if maxConnections > 0 {
		config.MaxConns = int32(maxConnections) //nolint:gosec // bounded by config
	}
	config.MinConns = 1
	config.MaxConnIdleTime = 5 * time.Minute
	config.MaxConnLifetime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute
	config.ConnConfig.RuntimeParams["timezone"] = "UTC"
	config.ConnConfig.RuntimeParams["statement_timeout"] = "30s"

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

// NewPostgresStore creates the table and indexes if they are missing.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		return nil, fmt.Errorf("create historical_informations: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) FindExact(ctx context.Context, q sunlight.Query) (*sunlight.HistoricalInformation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+pgColumns+`
		FROM historical_informations
		WHERE latitude = $1::numeric AND longitude = $2::numeric
		  AND start_date = $3 AND end_date = $4
		ORDER BY created_at
		LIMIT 1`,
		q.Latitude.String(), q.Longitude.String(), q.StartDate, q.EndDate)

	rec, err := scanHistorical(row)
	if err != nil {
		return nil, fmt.Errorf("find historical information: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Create(ctx context.Context, q sunlight.Query, data []sunlight.DailyRecord) (*sunlight.HistoricalInformation, error) {
	if err := sunlight.ValidateRecord(q, data); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode data: %w", err)
	}

	now := time.Now().UTC()
	row := s.pool.QueryRow(ctx, `
		INSERT INTO historical_informations
			(id, latitude, longitude, start_date, end_date, data, created_at, updated_at)
		VALUES ($1, $2::numeric, $3::numeric, $4, $5, $6::jsonb, $7, $7)
		RETURNING `+pgColumns,
		uuid.NewString(), q.Latitude.String(), q.Longitude.String(), q.StartDate, q.EndDate, string(payload), now)

	rec, err := scanHistorical(row)
	if isUniqueViolation(err) {
		return nil, sunlight.ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("create historical information: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*sunlight.HistoricalInformation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, sunlight.ErrNotFound
	}

	row := s.pool.QueryRow(ctx, `
		SELECT `+pgColumns+`
		FROM historical_informations
		WHERE id = $1`, id)

	rec, err := scanHistorical(row)
	if err != nil {
		return nil, fmt.Errorf("find historical information %s: %w", id, err)
	}
	return rec, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanHistorical(row pgx.Row) (*sunlight.HistoricalInformation, error) {
	var (
		rec      sunlight.HistoricalInformation
		lat, lng string
		payload  []byte
	)
	err := row.Scan(&rec.ID, &lat, &lng, &rec.StartDate, &rec.EndDate, &payload, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sunlight.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if rec.Latitude, err = decimal.NewFromString(lat); err != nil {
		return nil, fmt.Errorf("decode latitude: %w", err)
	}
	if rec.Longitude, err = decimal.NewFromString(lng); err != nil {
		return nil, fmt.Errorf("decode longitude: %w", err)
	}
	if err := json.Unmarshal(payload, &rec.Data); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}

	rec.StartDate = rec.StartDate.UTC()
	rec.EndDate = rec.EndDate.UTC()
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return &rec, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
