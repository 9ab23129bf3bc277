package storage

import (
	"strings"
	"testing"

	"LicitAI/internal/domain"
)

func TestBuildUpsert(t *testing.T) {
	t.Parallel()

	rec := domain.ScoredRecord{
		ID:            "pncp-1",
		Orgao:         "Prefeitura Alfa",
		CNPJOrgao:     "00.000.000/0001-00",
		Objeto:        "Monitoramento",
		ValorEstimado: 1234.5,
		DataSessao:    "2026-09-10",
		Score:         9,
		Justificativa: "forte aderência",
		Tecnologias:   "Zabbix",
		Link:          "https://pncp.gov.br/app/1",
		Status:        domain.StatusNovo,
	}

	query, args, err := buildUpsert(rec).ToSql()
	if err != nil {
		t.Fatalf("ToSql returned error: %v", err)
	}

	if !strings.HasPrefix(query, "INSERT INTO licitacoes") {
		t.Fatalf("unexpected query: %s", query)
	}
	if !strings.Contains(query, "ON CONFLICT (id) DO UPDATE SET") {
		t.Fatalf("upsert must resolve conflicts on id: %s", query)
	}
	// Conflict updates are restricted to status and score; descriptive fields
	// from the first write stay untouched.
	conflict := query[strings.Index(query, "ON CONFLICT"):]
	for _, col := range []string{"orgao", "objeto", "valor_estimado", "justificativa_ia", "link_edital"} {
		if strings.Contains(conflict, col) {
			t.Fatalf("conflict clause must not update %s: %s", col, conflict)
		}
	}
	if !strings.Contains(conflict, "status = EXCLUDED.status") ||
		!strings.Contains(conflict, "score_vencibilidade = EXCLUDED.score_vencibilidade") {
		t.Fatalf("conflict clause must update status and score: %s", conflict)
	}

	if len(args) != 11 {
		t.Fatalf("expected 11 bound values, got %d", len(args))
	}
	if args[0] != "pncp-1" {
		t.Fatalf("first bound value must be the id, got %v", args[0])
	}
	if args[10] != "novo" {
		t.Fatalf("last bound value must be the status, got %v", args[10])
	}
}

func TestBuildRotinaInsert(t *testing.T) {
	t.Parallel()

	metrics := domain.RunMetrics{Total: 50, Matches: 3, Extraidos: 2, OCR: 1, Erros: 1}
	query, args, err := buildRotinaInsert(metrics).ToSql()
	if err != nil {
		t.Fatalf("ToSql returned error: %v", err)
	}

	if !strings.HasPrefix(query, "INSERT INTO rotinas_log") {
		t.Fatalf("unexpected query: %s", query)
	}
	if strings.Contains(strings.ToUpper(query), "ON CONFLICT") {
		t.Fatal("run summaries are append-only")
	}

	want := []any{50, 3, 2, 1, 1}
	if len(args) != len(want) {
		t.Fatalf("expected %d bound values, got %d", len(want), len(args))
	}
	for i, v := range want {
		if args[i] != v {
			t.Fatalf("arg %d = %v, want %v", i, args[i], v)
		}
	}
}
