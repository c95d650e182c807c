// Package main implements the entry point for the MediaMatch API server,
// which turns text descriptions into lists of matching media with
// retrievable links.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("mediamatch-api: %v", err)
		os.Exit(1)
	}
}

// run loads configuration, builds the application and serves until ctx
// is cancelled.
func run(ctx context.Context) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", "error", err)
		return err
	}

	return app.Run(ctx)
}
