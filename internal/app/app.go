package app

import (
	"context"
	"fmt"
	"log/slog"

	"ActivityAggregator/internal/api"
	"ActivityAggregator/internal/config"
	"ActivityAggregator/internal/infrastructure/github"
	"ActivityAggregator/internal/infrastructure/llm"
	"ActivityAggregator/internal/infrastructure/notecom"
	"ActivityAggregator/internal/infrastructure/scheduler"
	"ActivityAggregator/internal/infrastructure/storage"
	"ActivityAggregator/internal/logging"
	"ActivityAggregator/internal/ports"
	"ActivityAggregator/internal/source"
	"ActivityAggregator/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	server   *api.Server
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	store := storage.NewFileStore(cfg.Content.Dir, cfg.Content.DataDir, baseLogger.With("component", "store"))

	githubConnector := github.NewConnector(cfg.GitHub, nil, baseLogger.With("component", "source.github"))
	noteConnector := notecom.NewConnector(cfg.Note, nil, baseLogger.With("component", "source.notecom"))

	var gen ports.TextGenerator
	var chat ports.ChatGenerator
	gemini := llm.NewClient(cfg.Gemini)
	if gemini.Configured() {
		gen = gemini
		chat = gemini
	} else {
		baseLogger.Warn("gemini api key not configured, summaries degrade to truncation")
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Sources:    source.NewFanout(baseLogger.With("component", "sources"), githubConnector, noteConnector),
		Repos:      githubConnector,
		Articles:   noteConnector,
		Summarizer: usecase.NewSummarizer(gen, baseLogger.With("component", "summarizer"), cfg.Gemini.BatchSize, cfg.Gemini.BatchDelay()),
		Profile:    usecase.NewProfileSynthesizer(gen, baseLogger.With("component", "profile")),
		Store:      store,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	server := api.NewServer(api.ServerDeps{
		Pipeline:   pipeline,
		Chat:       chat,
		Store:      store,
		Logger:     baseLogger.With("component", "api"),
		CronSecret: cfg.Server.CronSecret,
		Addr:       fmt.Sprintf(":%d", cfg.Server.Port),
	})

	return &Application{cfg: cfg, logger: baseLogger, pipeline: pipeline, server: server}
}

// RunOnce performs a single pipeline execution.
func (a *Application) RunOnce(ctx context.Context, opts usecase.RunOptions) (usecase.RunReport, error) {
	return a.pipeline.Run(ctx, opts)
}

// Serve runs the HTTP surface until the context is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Watch runs the pipeline on the configured interval until the context
// is cancelled.
func (a *Application) Watch(ctx context.Context) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Every())
	recurring := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))

	if err := recurring.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	return recurring.Stop(context.Background())
}
