package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ActivityAggregator/internal/app"
	"ActivityAggregator/internal/config"
	"ActivityAggregator/internal/logging"
	"ActivityAggregator/internal/usecase"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	rootCmd := &cobra.Command{
		Use:   "activityaggregator",
		Short: "Aggregates public activity into summarized content artifacts",
	}

	rootCmd.AddCommand(runCmd(cfg, logger))
	rootCmd.AddCommand(serveCmd(cfg, logger))
	rootCmd.AddCommand(watchCmd(cfg, logger))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd(cfg config.Config, logger *slog.Logger) *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a single aggregation pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			application := app.New(cfg, logger)

			report, err := application.RunOnce(cmd.Context(), usecase.RunOptions{
				NoCache:     noCache,
				SnapshotRaw: true,
			})
			if err != nil {
				logger.Error("aggregation failed", "error", err)
				return err
			}

			logger.Info("aggregation finished",
				"summarized", report.Summarized,
				"images", report.Images,
				"articles", report.Articles,
				"new_articles", report.NewArticles)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore persisted caches and recompute everything")
	return cmd
}

func serveCmd(cfg config.Config, logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the aggregation trigger and chat endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return app.New(cfg, logger).Serve(ctx)
		},
	}
}

func watchCmd(cfg config.Config, logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the pipeline on the configured interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return app.New(cfg, logger).Watch(ctx)
		},
	}
}
