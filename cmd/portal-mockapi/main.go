package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pondok-digital/portal/internal/config"
	"github.com/pondok-digital/portal/internal/logger"
	"github.com/pondok-digital/portal/internal/mockapi"
	"github.com/pondok-digital/portal/internal/version"
)

func main() {
	var envFile string

	cmd := &cobra.Command{
		Use:   "portal-mockapi",
		Short: "In-memory portal backend for development",
		Long: `Serves the portal backend API from memory with seeded content: CSRF tokens,
cookie sessions, articles, collections, the contact inbox and PSB registrations.
Data is lost when the process stops.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(envFile)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "optional .env file loaded before the environment")
	cmd.Version = version.Get().String()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(envFile string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	cfg, err := config.NewMockAPIConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load mock api configuration: %v\n", err)
		return err
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
	slog.SetDefault(appLogger)

	appLogger.Info("Starting mock api",
		slog.String("version", version.Get().Version),
		slog.Any("allowed_origins", cfg.AllowedOrigins),
		slog.Bool("seed_content", cfg.SeedContent),
	)

	server, err := mockapi.NewServer(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to create mock api", slog.String("error", err.Error()))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		appLogger.Error("mock api error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("mock api shutdown complete")
	return nil
}
