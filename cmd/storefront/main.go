package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Salisuili/rest-frontend/internal/app"
	"github.com/Salisuili/rest-frontend/internal/config"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
	"github.com/Salisuili/rest-frontend/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "error: %s\n", apperrors.UserMessage(err, "invalid configuration"))
		return 1
	}

	log := logger.New(logger.Options{Service: "storefront", Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Debug("starting storefront",
		slog.String("environment", cfg.Environment),
		slog.String("api_base_url", cfg.APIBaseURL),
		slog.String("storage", cfg.StorageBackend),
	)

	// Create a context that is canceled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg, log, os.Stdout)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "error: %s\n", apperrors.UserMessage(err, "failed to start"))
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Warn("shutdown incomplete", slog.String("error", err.Error()))
		}
	}()

	switch {
	case len(args) > 0 && args[0] == "shell":
		err = application.Shell(ctx, os.Stdin)
	case len(args) > 0 && args[0] == "doctor":
		err = application.Doctor(ctx, os.Stdout)
	default:
		err = application.Run(ctx, args)
	}
	if err != nil {
		log.Debug("command failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "error: %s\n", apperrors.UserMessage(err, "Something went wrong."))
		return 1
	}
	return 0
}
