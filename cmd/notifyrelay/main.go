package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/notifyrelay/internal/app"
	"github.com/dmitrymomot/notifyrelay/pkg/clientip"
	"github.com/dmitrymomot/notifyrelay/pkg/environment"
	"github.com/dmitrymomot/notifyrelay/pkg/logger"
	"github.com/dmitrymomot/notifyrelay/pkg/requestid"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", logger.Error(err))
		return err
	}

	log := logger.New(
		logger.FromConfig(cfg.Log),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			clientip.LoggerExtractor(),
			environment.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", logger.Component("main"), logger.Error(err))
		return err
	}

	log.Info("notifyrelay started",
		logger.Component("main"),
		slog.String("status_store", cfg.StatusStore),
		slog.String("http_addr", cfg.HTTP.Addr))

	runErr := a.Run(ctx)
	if runErr != nil {
		log.Error("relay stopped with error", logger.Component("main"), logger.Error(runErr))
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Close(closeCtx); err != nil && runErr == nil {
		return err
	}
	return runErr
}
