package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/sunlight-history/internal/sunlight"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func upstream(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/json", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("date_start"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"date":"2024-01-01","sunrise":"7:20:15 AM","sunset":"4:39:01 PM","golden_hour":"3:58:12 PM","day_length":"9:18:46"},
			{"date":"2024-01-02","sunrise":"7:20:20 AM","sunset":"4:39:55 PM","golden_hour":"3:59:04 PM","day_length":"9:19:35"}
		],"status":"OK"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func setEnv(t *testing.T, baseURL string) {
	t.Helper()
	t.Setenv("APP_ENV", "development")
	t.Setenv("SUNSET_SUNRISE_DEV_API_LINK", baseURL)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("PREFETCH_LOCATIONS", "")
	t.Setenv("LOG_LEVEL", "error")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "sunlight-history dev"))
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "resolve", "show", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestResolveCommand(t *testing.T) {
	srv, calls := upstream(t)
	setEnv(t, srv.URL)

	out, err := execute(t, "resolve", "--lat", "40.7128", "--lon", "-74.0060", "--start", "2024-01-01", "--end", "2024-01-02")
	require.NoError(t, err)

	var rec sunlight.HistoricalInformation
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.NotEmpty(t, rec.ID)
	require.Len(t, rec.Data, 2)
	assert.Equal(t, "2024-01-01", rec.Data[0].Date)
	assert.EqualValues(t, 1, calls.Load())
}

func TestResolveCommand_InvalidInput(t *testing.T) {
	srv, calls := upstream(t)
	setEnv(t, srv.URL)

	_, err := execute(t, "resolve", "--lat", "north", "--lon", "-74.0060", "--start", "2024-01-01", "--end", "2024-01-02")
	assert.ErrorIs(t, err, sunlight.ErrValidation)

	_, err = execute(t, "resolve", "--lat", "40.7128", "--lon", "-74.0060", "--start", "2024-01-05", "--end", "2024-01-01")
	assert.ErrorIs(t, err, sunlight.ErrValidation)
	assert.Zero(t, calls.Load())
}

func TestResolveCommand_RequiresFlags(t *testing.T) {
	_, err := execute(t, "resolve", "--lat", "40.7128")
	assert.Error(t, err)
}

func TestShowCommand_NotFound(t *testing.T) {
	srv, _ := upstream(t)
	setEnv(t, srv.URL)

	_, err := execute(t, "show", "missing")
	assert.ErrorIs(t, err, sunlight.ErrNotFound)
}

func TestHealthRoute(t *testing.T) {
	app := newFiberApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
