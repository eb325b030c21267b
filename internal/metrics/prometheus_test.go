package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/sunlight-history/internal/sunlight"
)

func TestObserveResolution(t *testing.T) {
	m := NewManager()

	m.ObserveResolution(sunlight.OutcomeHit)
	m.ObserveResolution(sunlight.OutcomeHit)
	m.ObserveResolution(sunlight.OutcomeMiss)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.resolutions.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolutions.WithLabelValues("miss")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.resolutions.WithLabelValues("error")))
}

func TestObserveProviderCallResults(t *testing.T) {
	m := NewManager()

	m.ObserveProviderCall("sunrisesunset", nil, 10*time.Millisecond)
	m.ObserveProviderCall("sunrisesunset", fmt.Errorf("%w: dial", sunlight.ErrNetwork), time.Second)
	m.ObserveProviderCall("sunrisesunset", &sunlight.UpstreamError{StatusCode: 500}, time.Millisecond)
	m.ObserveProviderCall("sunrisesunset", fmt.Errorf("%w: eof", sunlight.ErrMalformedResponse), time.Millisecond)
	m.ObserveProviderCall("sunrisesunset", errors.New("boom"), time.Millisecond)

	for _, result := range []string{"ok", "network_error", "upstream_error", "malformed_response", "error"} {
		assert.Equal(t, 1.0, testutil.ToFloat64(m.providerCalls.WithLabelValues("sunrisesunset", result)), result)
	}
	assert.Equal(t, 1, testutil.CollectAndCount(m.providerLatency))
}

func TestObserveRecordCreated(t *testing.T) {
	m := NewManager()
	m.ObserveRecordCreated()
	m.ObserveRecordCreated()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.recordsCreated))
}

func TestCustomNamespaceAndRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewManager(WithRegistry(reg), WithNamespace("test"), WithSubsystem("unit"))
	require.Same(t, reg, m.Registry())

	m.ObserveRecordCreated()

	expected := `
# HELP test_unit_records_created_total Historical information records persisted
# TYPE test_unit_records_created_total counter
test_unit_records_created_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_unit_records_created_total"))
}

func TestManagersDoNotShareRegistries(t *testing.T) {
	a := NewManager()
	b := NewManager()

	a.ObserveRecordCreated()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.recordsCreated))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewManager(WithProcessCollectors())
	m.ObserveResolution(sunlight.OutcomeMiss)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `sunlight_history_resolutions_total{outcome="miss"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
