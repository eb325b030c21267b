package sunlight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/i474232898/sunlight-history/internal/logger"
)

// Service resolves queries against the store, fetching from the provider on a miss.
type Service struct {
	store    Store
	provider Provider
	recorder Recorder
	log      logger.Logger

	// inflight collapses concurrent resolutions of the same query key.
	inflight singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets the logger; the default discards output.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService creates a new Service.
func NewService(store Store, provider Provider, opts ...Option) *Service {
	s := &Service{
		store:    store,
		provider: provider,
		recorder: nopRecorder{},
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the stored record for q, fetching and persisting it first
// if no usable record exists. Provider and store errors are returned as-is.
func (s *Service) Resolve(ctx context.Context, q Query) (*HistoricalInformation, error) {
	if err := q.Validate(); err != nil {
		s.recorder.ObserveResolution(OutcomeError)
		return nil, err
	}

	// The flight outlives any single caller; each caller stops waiting when
	// its own context ends.
	flightCtx := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(q.Key(), func() (any, error) {
		return s.resolve(flightCtx, q)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.log.Debug(ctx, "resolution shared with concurrent caller", logger.String("query", q.Key()))
		}
		return res.Val.(*HistoricalInformation), nil
	}
}

func (s *Service) resolve(ctx context.Context, q Query) (*HistoricalInformation, error) {
	cached, err := s.store.FindExact(ctx, q)
	switch {
	case err == nil && len(cached.Data) > 0:
		s.recorder.ObserveResolution(OutcomeHit)
		s.log.Debug(ctx, "cache hit", logger.String("query", q.Key()), logger.String("id", cached.ID))
		return cached, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		s.recorder.ObserveResolution(OutcomeError)
		return nil, err
	}

	s.log.Debug(ctx, "cache miss", logger.String("query", q.Key()), logger.String("provider", s.provider.Name()))

	start := time.Now()
	raws, err := s.provider.Fetch(ctx, q)
	s.recorder.ObserveProviderCall(s.provider.Name(), err, time.Since(start))
	if err != nil {
		s.recorder.ObserveResolution(OutcomeError)
		s.log.Warn(ctx, "provider fetch failed",
			logger.String("provider", s.provider.Name()),
			logger.String("query", q.Key()),
			logger.Error(err))
		return nil, err
	}

	data := NormalizeAll(raws)

	created, err := s.store.Create(ctx, q, data)
	if errors.Is(err, ErrDuplicate) {
		// Another process stored the same query between our lookup and insert.
		existing, findErr := s.store.FindExact(ctx, q)
		if findErr != nil {
			s.recorder.ObserveResolution(OutcomeError)
			return nil, fmt.Errorf("re-read after duplicate insert: %w", findErr)
		}
		s.recorder.ObserveResolution(OutcomeHit)
		return existing, nil
	}
	if err != nil {
		s.recorder.ObserveResolution(OutcomeError)
		return nil, err
	}

	s.recorder.ObserveRecordCreated()
	s.recorder.ObserveResolution(OutcomeMiss)
	s.log.Info(ctx, "historical information stored",
		logger.String("id", created.ID),
		logger.String("query", q.Key()),
		logger.Int("days", len(created.Data)))
	return created, nil
}

// Get returns a previously resolved record by id.
func (s *Service) Get(ctx context.Context, id string) (*HistoricalInformation, error) {
	return s.store.FindByID(ctx, id)
}
