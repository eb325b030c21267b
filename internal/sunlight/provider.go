package sunlight

import (
	"context"
	"time"
)

// Provider abstracts the upstream sunrise/sunset data source.
type Provider interface {
	Name() string
	// Fetch performs exactly one upstream request for q and returns the raw
	// per-day results. A missing or null results list is an empty slice.
	Fetch(ctx context.Context, q Query) ([]RawRecord, error)
}

// Store is the contract every persistence backend must satisfy. Records are
// immutable once created; there is no update or delete.
type Store interface {
	// FindExact matches on all four query fields and returns ErrNotFound on a miss.
	FindExact(ctx context.Context, q Query) (*HistoricalInformation, error)
	// Create validates and persists a new record. It returns a *ValidationError
	// for broken invariants and ErrDuplicate if the query is already stored.
	Create(ctx context.Context, q Query, data []DailyRecord) (*HistoricalInformation, error)
	// FindByID returns ErrNotFound if no record has the given id.
	FindByID(ctx context.Context, id string) (*HistoricalInformation, error)
}

// Outcome labels a single resolution for metrics.
type Outcome string

const (
	OutcomeHit   Outcome = "hit"
	OutcomeMiss  Outcome = "miss"
	OutcomeError Outcome = "error"
)

// Recorder receives orchestration metrics. internal/metrics implements it.
type Recorder interface {
	ObserveResolution(outcome Outcome)
	ObserveProviderCall(provider string, err error, took time.Duration)
	ObserveRecordCreated()
}

type nopRecorder struct{}

func (nopRecorder) ObserveResolution(Outcome)                        {}
func (nopRecorder) ObserveProviderCall(string, error, time.Duration) {}
func (nopRecorder) ObserveRecordCreated()                            {}
