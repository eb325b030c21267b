package main

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/sunlight-history/internal/api/http"
	"github.com/i474232898/sunlight-history/internal/logger"
	"github.com/i474232898/sunlight-history/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the prefetch scheduler",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApplication(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	// Scheduler that keeps recent days of configured locations stored.
	sched := scheduler.New(a.cfg.PrefetchLocations, a.cfg.PrefetchInterval, a.service, a.log.Named("scheduler"))
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := newFiberApp()
	httpapi.RegisterRoutes(app, a.service)
	httpapi.RegisterMetrics(app, a.metrics.Handler())

	errCh := make(chan error, 1)
	go func() {
		a.log.Info(ctx, "http server listening", logger.String("port", a.cfg.Port))
		errCh <- app.Listen(":" + a.cfg.Port)
	}()

	// Wait for termination signal or a listener failure.
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		a.log.Error(shutdownCtx, "error during shutdown", logger.Error(err))
		return err
	}
	a.log.Info(shutdownCtx, "http server stopped")
	return nil
}

func newFiberApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "sunlight-history",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "sunlight-history",
		})
	})

	return app
}
