package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maileditor/internal/app"
	"maileditor/internal/config"
	"maileditor/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "maileditor:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	logs, err := logger.New().Level(cfg.LogLevel).ToFile(cfg.LogFile).Make()
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logs.Close()
	log := logs.Logger

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		a.Shutdown(shutdownCtx)
	}()

	log.Info().Str("data", cfg.DataDir).Str("store", cfg.Store).Msg("maileditor starting")
	return a.Serve(ctx)
}
