package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"LicitAI/internal/domain"
	"LicitAI/internal/ports"
)

// RunnerDeps wires the batch runner's collaborators.
type RunnerDeps struct {
	Source     ports.NoticeSource
	Processor  ports.NoticeProcessor
	Repository ports.LicitacaoRepository
	ItemDelay  time.Duration
	Logger     *slog.Logger
}

// Runner executes one ingestion cycle over the day's notice batch.
type Runner struct {
	source     ports.NoticeSource
	processor  ports.NoticeProcessor
	repository ports.LicitacaoRepository
	itemDelay  time.Duration
	logger     *slog.Logger
}

// NewRunner constructs the batch orchestration component.
func NewRunner(deps RunnerDeps) *Runner {
	return &Runner{
		source:     deps.Source,
		processor:  deps.Processor,
		repository: deps.Repository,
		itemDelay:  deps.ItemDelay,
		logger:     deps.Logger,
	}
}

// Run fetches today's batch, processes every item sequentially with
// isolation, and appends a single run-summary record. A listing fetch
// failure terminates the run early with nothing aggregated; only the
// summary append can fail the run.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil || r.processor == nil {
		return nil
	}

	day := time.Now()
	items, err := r.source.FetchDaily(ctx, day)
	if err != nil {
		r.warn("fetch listing failed", "error", err)
		return nil
	}
	if len(items) == 0 {
		r.info("no licitacoes found for today")
		return nil
	}

	r.info("batch fetched, starting filter and extraction", "total", len(items))

	metrics := domain.RunMetrics{Total: len(items)}
	for i, item := range items {
		metrics.Add(r.processor.Process(ctx, item))

		if r.itemDelay > 0 && i < len(items)-1 {
			r.pause(ctx)
		}
	}

	if r.repository != nil {
		if err := r.repository.SaveRotina(ctx, metrics); err != nil {
			return fmt.Errorf("persist run metrics: %w", err)
		}
	}

	r.info("run finished",
		"total", metrics.Total,
		"matches", metrics.Matches,
		"extraidos", metrics.Extraidos,
		"ocr", metrics.OCR,
		"erros", metrics.Erros,
	)
	return nil
}

// pause rate-limits between items as a courtesy toward the external sources.
func (r *Runner) pause(ctx context.Context) {
	timer := time.NewTimer(r.itemDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (r *Runner) info(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *Runner) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
