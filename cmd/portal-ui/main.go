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
	"github.com/pondok-digital/portal/internal/ui"
	"github.com/pondok-digital/portal/internal/version"
)

func main() {
	var envFile string

	cmd := &cobra.Command{
		Use:   "portal-ui",
		Short: "Pondok pesantren portal web server",
		Long: `Serves the public portal pages and proxies /api to the backend so the
browser talks to a single origin.`,
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

	cfg, err := config.NewUIConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load UI configuration: %v\n", err)
		return err
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
	slog.SetDefault(appLogger)

	appLogger.Info("Starting UI server",
		slog.String("version", version.Get().Version),
		slog.String("backend_api_url", cfg.BackendAPIURL),
	)

	server, err := ui.NewServer(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to create UI server", slog.String("error", err.Error()))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		appLogger.Error("UI server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("UI server shutdown complete")
	return nil
}
