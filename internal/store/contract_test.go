package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/sunlight-history/internal/sunlight"
)

func strPtr(s string) *string { return &s }

func mustQuery(t *testing.T, lat, lon, start, end string) sunlight.Query {
	t.Helper()
	q, err := sunlight.ParseQuery(lat, lon, start, end)
	require.NoError(t, err)
	return q
}

func sampleData() []sunlight.DailyRecord {
	return []sunlight.DailyRecord{
		{Date: "2024-01-01", SunriseTime: strPtr("7:20:15 AM"), SunsetTime: strPtr("4:39:01 PM"), GoldenHour: strPtr("3:58:12 PM")},
		{Date: "2024-01-02", SunriseTime: strPtr("7:20:20 AM"), SunsetTime: nil, GoldenHour: nil},
	}
}

// runStoreContract exercises the behaviour every sunlight.Store must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) sunlight.Store) {
	ctx := context.Background()

	t.Run("CreateThenFind", func(t *testing.T) {
		s := newStore(t)
		q := mustQuery(t, "40.7128", "-74.0060", "2024-01-01", "2024-01-02")

		created, err := s.Create(ctx, q, sampleData())
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		found, err := s.FindExact(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.True(t, found.Latitude.Equal(q.Latitude))
		assert.True(t, found.Longitude.Equal(q.Longitude))
		assert.True(t, found.StartDate.Equal(q.StartDate))
		assert.True(t, found.EndDate.Equal(q.EndDate))
		if diff := cmp.Diff(sampleData(), found.Data); diff != "" {
			t.Errorf("data mismatch (-want +got):\n%s", diff)
		}

		byID, err := s.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, q.Key(), byID.Query().Key())
	})

	t.Run("ExactMatchOnly", func(t *testing.T) {
		s := newStore(t)
		q := mustQuery(t, "40.7128", "-74.0060", "2024-01-01", "2024-01-02")
		_, err := s.Create(ctx, q, sampleData())
		require.NoError(t, err)

		for _, other := range []sunlight.Query{
			mustQuery(t, "40.7129", "-74.0060", "2024-01-01", "2024-01-02"),
			mustQuery(t, "40.7128", "-74.0061", "2024-01-01", "2024-01-02"),
			mustQuery(t, "40.7128", "-74.0060", "2023-12-31", "2024-01-02"),
			mustQuery(t, "40.7128", "-74.0060", "2024-01-01", "2024-01-03"),
		} {
			_, err := s.FindExact(ctx, other)
			assert.ErrorIs(t, err, sunlight.ErrNotFound, other.Key())
		}
	})

	t.Run("EquivalentCoordinatesMatch", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, mustQuery(t, "40.7128", "-74.006", "2024-01-01", "2024-01-02"), sampleData())
		require.NoError(t, err)

		_, err = s.FindExact(ctx, mustQuery(t, "40.712800", "-74.0060000", "2024-01-01", "2024-01-02"))
		assert.NoError(t, err)
	})

	t.Run("DuplicateQuery", func(t *testing.T) {
		s := newStore(t)
		q := mustQuery(t, "51.5074", "-0.1278", "2024-06-01", "2024-06-30")
		_, err := s.Create(ctx, q, sampleData())
		require.NoError(t, err)

		_, err = s.Create(ctx, q, sampleData())
		assert.ErrorIs(t, err, sunlight.ErrDuplicate)
	})

	t.Run("InvalidRecordsAreRejected", func(t *testing.T) {
		s := newStore(t)
		cases := map[string]struct {
			q     sunlight.Query
			data  []sunlight.DailyRecord
			field string
		}{
			"empty data":       {mustQuery(t, "10", "10", "2024-01-01", "2024-01-02"), nil, "data"},
			"end before start": {mustQuery(t, "10", "10", "2024-01-05", "2024-01-01"), sampleData(), "end_date"},
			"equal dates":      {mustQuery(t, "10", "10", "2024-01-01", "2024-01-01"), sampleData(), "end_date"},
			"latitude":         {mustQuery(t, "90.5", "10", "2024-01-01", "2024-01-02"), sampleData(), "latitude"},
			"longitude":        {mustQuery(t, "10", "-180.01", "2024-01-01", "2024-01-02"), sampleData(), "longitude"},
		}
		for name, tc := range cases {
			_, err := s.Create(ctx, tc.q, tc.data)
			var ve *sunlight.ValidationError
			require.True(t, errors.As(err, &ve), name)
			assert.True(t, ve.Has(tc.field), name)

			_, err = s.FindExact(ctx, tc.q)
			assert.ErrorIs(t, err, sunlight.ErrNotFound, name)
		}
	})

	t.Run("UnknownID", func(t *testing.T) {
		s := newStore(t)
		_, err := s.FindByID(ctx, "3b241101-e2bb-4255-8caf-4136c566a962")
		assert.ErrorIs(t, err, sunlight.ErrNotFound)
	})

	t.Run("ConcurrentCreatesKeepOneRecord", func(t *testing.T) {
		s := newStore(t)
		q := mustQuery(t, "35.6762", "139.6503", "2024-02-01", "2024-02-02")

		const workers = 8
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Create(ctx, q, sampleData())
				if err == nil {
					mu.Lock()
					created++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, sunlight.ErrDuplicate)
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, created)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(*testing.T) sunlight.Store { return NewMemoryStore() })
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	s.now = func() time.Time { return time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC) }
	q := mustQuery(t, "40.7128", "-74.0060", "2024-01-01", "2024-01-02")

	created, err := s.Create(context.Background(), q, sampleData())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC), created.CreatedAt)

	created.Data[0].SunriseTime = strPtr("tampered")

	found, err := s.FindExact(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "7:20:15 AM", *found.Data[0].SunriseTime)
	assert.Equal(t, 1, s.Len())
}
