package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"librarygql/internal/app"
	"librarygql/internal/config"
	"librarygql/internal/logging"
	"librarygql/internal/store"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("api: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting library api",
		zap.String("addr", cfg.Addr),
		zap.String("db", store.RedactURI(cfg.DatabaseURI)),
		zap.String("notify_policy", string(cfg.NotifyPolicy)),
		zap.Bool("nats", cfg.NATSURL != ""),
	)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Error("close failed", zap.Error(err))
		}
	}()

	return a.ListenAndServe(ctx)
}
