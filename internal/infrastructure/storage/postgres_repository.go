// Package storage persists scored notices and run summaries into Postgres.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"LicitAI/internal/domain"
	"LicitAI/internal/ports"
)

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository implements both the persistence sink and the stats view.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.LicitacaoRepository = (*PostgresRepository)(nil)
var _ ports.StatsRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the two tables on first use.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS licitacoes (
			id TEXT PRIMARY KEY,
			orgao TEXT,
			cnpj_orgao TEXT,
			objeto TEXT,
			valor_estimado DOUBLE PRECISION,
			data_sessao TEXT,
			score_vencibilidade INTEGER,
			justificativa_ia TEXT,
			tecnologias_detectadas TEXT,
			link_edital TEXT,
			status TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS rotinas_log (
			id SERIAL PRIMARY KEY,
			data_execucao TIMESTAMPTZ DEFAULT NOW(),
			total_encontrado INTEGER,
			matches_regex INTEGER,
			pdf_extraidos INTEGER,
			pdf_ocr_usado INTEGER,
			erros INTEGER
		)`,
	}
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SaveLicitacao upserts a scored record keyed by notice identifier. First
// write inserts every field; on conflict only status and score move, keeping
// the descriptive fields from the first ingestion.
func (r *PostgresRepository) SaveLicitacao(ctx context.Context, rec domain.ScoredRecord) error {
	if r.db == nil {
		return nil
	}

	query, args, err := buildUpsert(rec).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert licitacao %s: %w", rec.ID, err)
	}
	return nil
}

func buildUpsert(rec domain.ScoredRecord) sq.InsertBuilder {
	return builder.Insert("licitacoes").
		Columns(
			"id", "orgao", "cnpj_orgao", "objeto", "valor_estimado",
			"data_sessao", "score_vencibilidade", "justificativa_ia",
			"tecnologias_detectadas", "link_edital", "status",
		).
		Values(
			rec.ID, rec.Orgao, rec.CNPJOrgao, rec.Objeto, rec.ValorEstimado,
			rec.DataSessao, rec.Score, rec.Justificativa,
			rec.Tecnologias, rec.Link, string(rec.Status),
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			score_vencibilidade = EXCLUDED.score_vencibilidade`)
}

// SaveRotina appends exactly one run-summary row.
func (r *PostgresRepository) SaveRotina(ctx context.Context, metrics domain.RunMetrics) error {
	if r.db == nil {
		return nil
	}

	query, args, err := buildRotinaInsert(metrics).ToSql()
	if err != nil {
		return fmt.Errorf("build rotina insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert rotina: %w", err)
	}
	return nil
}

func buildRotinaInsert(metrics domain.RunMetrics) sq.InsertBuilder {
	return builder.Insert("rotinas_log").
		Columns("total_encontrado", "matches_regex", "pdf_extraidos", "pdf_ocr_usado", "erros").
		Values(metrics.Total, metrics.Matches, metrics.Extraidos, metrics.OCR, metrics.Erros)
}

// AdminStats aggregates the last 24 hours of runs plus the five most recent
// high-scoring records.
func (r *PostgresRepository) AdminStats(ctx context.Context) (domain.AdminStats, error) {
	if r.db == nil {
		return domain.AdminStats{}, nil
	}

	stats := domain.AdminStats{RecentHot: []domain.HotRecord{}}

	query, args, err := builder.
		Select(
			"COALESCE(SUM(total_encontrado), 0)",
			"COALESCE(SUM(pdf_ocr_usado), 0)",
			"COALESCE(SUM(erros), 0)",
		).
		From("rotinas_log").
		Where("data_execucao >= NOW() - INTERVAL '1 day'").
		ToSql()
	if err != nil {
		return domain.AdminStats{}, fmt.Errorf("build stats query: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&stats.BuscasDiarias, &stats.OCRUsado, &stats.AlertasErro); err != nil {
		return domain.AdminStats{}, fmt.Errorf("scan stats: %w", err)
	}

	query, args, err = builder.
		Select("id", "orgao", "score_vencibilidade", "tecnologias_detectadas", "created_at::text").
		From("licitacoes").
		Where(sq.Gt{"score_vencibilidade": 8}).
		OrderBy("created_at DESC").
		Limit(5).
		ToSql()
	if err != nil {
		return domain.AdminStats{}, fmt.Errorf("build hot query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.AdminStats{}, fmt.Errorf("query hot records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hot domain.HotRecord
		if err := rows.Scan(&hot.ID, &hot.Orgao, &hot.Score, &hot.Tecnologias, &hot.CreatedAt); err != nil {
			return domain.AdminStats{}, fmt.Errorf("scan hot record: %w", err)
		}
		stats.RecentHot = append(stats.RecentHot, hot)
	}
	if err := rows.Err(); err != nil {
		return domain.AdminStats{}, fmt.Errorf("rows iteration: %w", err)
	}

	return stats, nil
}
