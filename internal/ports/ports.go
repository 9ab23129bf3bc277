package ports

import (
	"context"
	"time"

	"LicitAI/internal/domain"
)

// NoticeSource pulls the day's procurement batch from the listing API.
type NoticeSource interface {
	FetchDaily(ctx context.Context, day time.Time) ([]domain.Licitacao, error)
}

// Extractor turns a remote document reference into best-effort plain text.
// Implementations are total: any irrecoverable failure yields empty text.
type Extractor interface {
	ExtractFromURL(ctx context.Context, url string) domain.Extraction
}

// Scorer classifies a notice against the technical niche. Implementations
// are total: any failure yields the zero-score fallback result.
type Scorer interface {
	Score(ctx context.Context, objeto, fullText string) domain.ScoreResult
}

// LicitacaoRepository persists scored records and run summaries.
type LicitacaoRepository interface {
	SaveLicitacao(ctx context.Context, rec domain.ScoredRecord) error
	SaveRotina(ctx context.Context, metrics domain.RunMetrics) error
}

// StatsRepository serves aggregated metrics to the admin surface.
type StatsRepository interface {
	AdminStats(ctx context.Context) (domain.AdminStats, error)
}

// AlertNotifier delivers a high-score alert over one channel (email, chat).
type AlertNotifier interface {
	SendAlert(ctx context.Context, rec domain.ScoredRecord) error
}

// NoticeProcessor handles a single notice end to end.
type NoticeProcessor interface {
	Process(ctx context.Context, lic domain.Licitacao) domain.ItemMetrics
}

// Scheduler controls when ingestion runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
