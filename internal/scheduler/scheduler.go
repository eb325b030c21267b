package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/sunlight-history/internal/config"
	"github.com/i474232898/sunlight-history/internal/logger"
	"github.com/i474232898/sunlight-history/internal/sunlight"
)

const jobTimeout = 30 * time.Second

// Resolver is the part of sunlight.Service the scheduler drives.
type Resolver interface {
	Resolve(ctx context.Context, q sunlight.Query) (*sunlight.HistoricalInformation, error)
}

// Scheduler periodically resolves yesterday-to-today for configured locations
// so recent days are already stored when requested.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Resolver
	locations []config.Location
	interval  time.Duration
	log       logger.Logger
	now       func() time.Time
}

// New creates a new Scheduler.
func New(locations []config.Location, interval time.Duration, service Resolver, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		locations: locations,
		interval:  interval,
		log:       log,
		now:       time.Now,
	}
}

// Start schedules the prefetch job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	ctx := context.Background()
	if len(s.locations) == 0 {
		s.log.Info(ctx, "no prefetch locations configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval < time.Minute {
		interval = 24 * time.Hour
	}

	_, err := s.scheduler.Every(interval).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.log.Info(ctx, "prefetch scheduled",
		logger.Int("locations", len(s.locations)),
		logger.String("interval", interval.String()))
	s.scheduler.StartAsync()
	return nil
}

// RunOnce resolves every configured location once and waits for all of them.
// A failing location is logged and does not affect the others.
func (s *Scheduler) RunOnce() {
	ctx := context.Background()
	today := s.now().UTC()
	yesterday := today.AddDate(0, 0, -1)

	s.log.Debug(ctx, "running prefetch job")

	var wg sync.WaitGroup
	for _, loc := range s.locations {
		q := sunlight.NewQuery(loc.Latitude, loc.Longitude, yesterday, today)
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, jobTimeout)
			defer cancel()

			if _, err := s.service.Resolve(ctx, q); err != nil {
				s.log.Warn(ctx, "prefetch failed", logger.String("query", q.Key()), logger.Error(err))
			}
		}()
	}
	wg.Wait()

	s.log.Debug(ctx, "prefetch job completed")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
