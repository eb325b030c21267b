package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/i474232898/sunlight-history/internal/config"
	"github.com/i474232898/sunlight-history/internal/logger"
	"github.com/i474232898/sunlight-history/internal/metrics"
	"github.com/i474232898/sunlight-history/internal/store"
	"github.com/i474232898/sunlight-history/internal/sunlight"
	"github.com/i474232898/sunlight-history/internal/sunlight/providers"
)

// application holds the wired components shared by every command.
type application struct {
	cfg     *config.AppConfig
	log     logger.Logger
	metrics *metrics.Manager
	service *sunlight.Service
	closer  io.Closer
}

func newApplication(ctx context.Context, logOut io.Writer) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	st, closer, err := store.Open(ctx, cfg, log.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	provider := providers.NewSunriseSunsetProvider(httpClient, cfg.ProviderBaseURL())

	m := metrics.NewManager(metrics.WithProcessCollectors())
	service := sunlight.NewService(st, provider,
		sunlight.WithRecorder(m),
		sunlight.WithLogger(log.Named("resolver")),
	)

	return &application{
		cfg:     cfg,
		log:     log,
		metrics: m,
		service: service,
		closer:  closer,
	}, nil
}

func (a *application) Close() error {
	return a.closer.Close()
}
