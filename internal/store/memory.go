package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/sunlight-history/internal/sunlight"
)

// MemoryStore is a concurrency-safe in-memory implementation of sunlight.Store.
// Entries are kept for the life of the process.
type MemoryStore struct {
	mu sync.RWMutex

	// key: query key, value: record
	byQuery map[string]*sunlight.HistoricalInformation
	byID    map[string]*sunlight.HistoricalInformation

	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byQuery: make(map[string]*sunlight.HistoricalInformation),
		byID:    make(map[string]*sunlight.HistoricalInformation),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// FindExact returns the record stored under exactly q.
func (s *MemoryStore) FindExact(_ context.Context, q sunlight.Query) (*sunlight.HistoricalInformation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byQuery[q.Key()]
	if !ok {
		return nil, sunlight.ErrNotFound
	}
	return clone(rec), nil
}

// Create validates and stores a new record.
func (s *MemoryStore) Create(_ context.Context, q sunlight.Query, data []sunlight.DailyRecord) (*sunlight.HistoricalInformation, error) {
	if err := sunlight.ValidateRecord(q, data); err != nil {
		return nil, err
	}

	key := q.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byQuery[key]; exists {
		return nil, sunlight.ErrDuplicate
	}

	now := s.now()
	rec := &sunlight.HistoricalInformation{
		ID:        uuid.NewString(),
		Latitude:  q.Latitude,
		Longitude: q.Longitude,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		Data:      append([]sunlight.DailyRecord(nil), data...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byQuery[key] = rec
	s.byID[rec.ID] = rec

	return clone(rec), nil
}

// FindByID returns the record with the given id.
func (s *MemoryStore) FindByID(_ context.Context, id string) (*sunlight.HistoricalInformation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, sunlight.ErrNotFound
	}
	return clone(rec), nil
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func clone(rec *sunlight.HistoricalInformation) *sunlight.HistoricalInformation {
	cp := *rec
	cp.Data = append([]sunlight.DailyRecord(nil), rec.Data...)
	return &cp
}
