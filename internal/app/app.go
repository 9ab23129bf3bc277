package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"LicitAI/internal/config"
	"LicitAI/internal/infrastructure/extract"
	"LicitAI/internal/infrastructure/llm"
	"LicitAI/internal/infrastructure/notify"
	"LicitAI/internal/infrastructure/pncp"
	"LicitAI/internal/infrastructure/scheduler"
	"LicitAI/internal/infrastructure/storage"
	"LicitAI/internal/logging"
	"LicitAI/internal/ports"
	"LicitAI/internal/relevance"
	"LicitAI/internal/server"
	"LicitAI/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	runner *usecase.Runner
	sched  ports.Scheduler
	srv    *server.Server
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect storage: %w", err)
	}
	repository := storage.NewPostgresRepository(db)
	if err := repository.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	source := pncp.NewClient(cfg.PNCP, nil)
	extractor := extract.NewExtractor(nil, baseLogger.With("component", "extractor"))
	scorer := llm.NewGeminiScorer(cfg.Gemini, baseLogger.With("component", "scorer"))

	var email, chat ports.AlertNotifier
	if cfg.Notifications.Email.APIKey != "" && cfg.Notifications.Email.Recipient != "" {
		email = notify.NewEmailNotifier(cfg.Notifications.Email)
	}
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		chat = notify.NewTelegramNotifier(cfg.Notifications.Telegram)
	}

	processor := usecase.NewProcessor(usecase.ProcessorDeps{
		Filter:     relevance.NewFilter(nil),
		Extractor:  extractor,
		Scorer:     scorer,
		Repository: repository,
		Email:      email,
		Chat:       chat,
		Logger:     baseLogger.With("component", "processor"),
	})

	runner := usecase.NewRunner(usecase.RunnerDeps{
		Source:     source,
		Processor:  processor,
		Repository: repository,
		ItemDelay:  cfg.Runner.Delay(),
		Logger:     baseLogger.With("component", "runner"),
	})

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		runner: runner,
		sched:  scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location()),
		srv:    server.New(cfg.Server, runner, repository, baseLogger.With("component", "server")),
	}, nil
}

// Run starts the cron scheduler and serves the HTTP surface until the
// context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	job := func(trigger time.Time) {
		a.logger.Info("scheduled ingestion run", "trigger", trigger.Format(time.RFC3339))
		if err := a.runner.Run(ctx); err != nil {
			a.logger.Error("scheduled run failed", "error", err)
		}
	}
	if err := a.sched.Start(ctx, job); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	a.logger.Info("serving", "addr", a.cfg.Server.Addr, "cron", a.cfg.Scheduler.CronExpression)
	return a.srv.ListenAndServe(ctx)
}
