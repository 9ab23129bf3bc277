package usecase

import (
	"context"
	"log/slog"

	"LicitAI/internal/domain"
	"LicitAI/internal/ports"
	"LicitAI/internal/relevance"
)

// Notification fires only when the score strictly exceeds this threshold.
const alertThreshold = 8

// ProcessorDeps wires all driven adapters into the per-notice orchestration.
type ProcessorDeps struct {
	Filter     *relevance.Filter
	Extractor  ports.Extractor
	Scorer     ports.Scorer
	Repository ports.LicitacaoRepository
	Email      ports.AlertNotifier
	Chat       ports.AlertNotifier
	Logger     *slog.Logger
}

// Processor handles one notice: filter, extract, score, persist, notify.
type Processor struct {
	filter     *relevance.Filter
	extractor  ports.Extractor
	scorer     ports.Scorer
	repository ports.LicitacaoRepository
	email      ports.AlertNotifier
	chat       ports.AlertNotifier
	logger     *slog.Logger
}

var _ ports.NoticeProcessor = (*Processor)(nil)

// NewProcessor constructs the per-item orchestration component.
func NewProcessor(deps ProcessorDeps) *Processor {
	return &Processor{
		filter:     deps.Filter,
		extractor:  deps.Extractor,
		scorer:     deps.Scorer,
		repository: deps.Repository,
		email:      deps.Email,
		chat:       deps.Chat,
		logger:     deps.Logger,
	}
}

// Process runs the full per-notice pipeline and returns the fixed metrics
// tuple. Failures never escape this boundary: extraction and scoring are
// total, and a persistence error reports as Errored with all other flags
// cleared.
func (p *Processor) Process(ctx context.Context, lic domain.Licitacao) domain.ItemMetrics {
	if !p.filter.Matches(lic.Objeto) {
		return domain.ItemMetrics{}
	}

	metrics := domain.ItemMetrics{Matched: true}
	p.info("relevance match", "id", lic.ID, "orgao", lic.Orgao)

	var extraction domain.Extraction
	if docURL := lic.DocumentURL(); docURL != "" && p.extractor != nil {
		p.info("extracting edital", "id", lic.ID, "url", docURL)
		extraction = p.extractor.ExtractFromURL(ctx, docURL)
		metrics.Extracted = extraction.Text != ""
		metrics.UsedOCR = extraction.UsedOCR
	}

	var score domain.ScoreResult
	if p.scorer != nil {
		score = p.scorer.Score(ctx, lic.Objeto, extraction.Text)
	}

	rec := domain.ScoredRecord{
		ID:            lic.ID,
		Orgao:         lic.Orgao,
		CNPJOrgao:     lic.CNPJOrgao,
		Objeto:        lic.Objeto,
		ValorEstimado: lic.ValorEstimado,
		DataSessao:    lic.DataSessao,
		Score:         score.Score,
		Justificativa: score.Justificativa,
		Tecnologias:   score.TechStack,
		Link:          lic.Link,
		Status:        domain.StatusNovo,
	}

	if p.repository != nil {
		if err := p.repository.SaveLicitacao(ctx, rec); err != nil {
			p.error("persist licitacao", "id", lic.ID, "error", err)
			return domain.ItemMetrics{Errored: true}
		}
	}

	if rec.Score > alertThreshold {
		p.info("high score, firing alerts", "id", lic.ID, "score", rec.Score)
		p.notify(ctx, p.email, "email", rec)
		p.notify(ctx, p.chat, "telegram", rec)
	}

	return metrics
}

// notify is best-effort: one channel failing never blocks the other and
// never surfaces to the caller.
func (p *Processor) notify(ctx context.Context, n ports.AlertNotifier, channel string, rec domain.ScoredRecord) {
	if n == nil {
		return
	}
	if err := n.SendAlert(ctx, rec); err != nil {
		p.error("send alert", "channel", channel, "id", rec.ID, "error", err)
	}
}

func (p *Processor) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Processor) error(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
