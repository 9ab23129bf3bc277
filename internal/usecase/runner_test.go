package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"LicitAI/internal/domain"
	"LicitAI/internal/relevance"
)

type fakeSource struct {
	items []domain.Licitacao
	err   error
}

func (f *fakeSource) FetchDaily(_ context.Context, _ time.Time) ([]domain.Licitacao, error) {
	return f.items, f.err
}

type stubProcessor struct {
	results map[string]domain.ItemMetrics
	calls   []string
}

func (s *stubProcessor) Process(_ context.Context, lic domain.Licitacao) domain.ItemMetrics {
	s.calls = append(s.calls, lic.ID)
	return s.results[lic.ID]
}

func notices(ids ...string) []domain.Licitacao {
	out := make([]domain.Licitacao, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Licitacao{ID: id, Objeto: "objeto qualquer"})
	}
	return out
}

func TestRunAggregatesMetrics(t *testing.T) {
	t.Parallel()

	proc := &stubProcessor{results: map[string]domain.ItemMetrics{
		"a": {Matched: true, Extracted: true},
		"b": {Matched: true, Extracted: true, UsedOCR: true},
		"c": {},
		"d": {Errored: true},
	}}
	repo := &fakeRepository{}
	runner := NewRunner(RunnerDeps{
		Source:     &fakeSource{items: notices("a", "b", "c", "d")},
		Processor:  proc,
		Repository: repo,
	})

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(repo.rotinas) != 1 {
		t.Fatalf("expected exactly one run summary, got %d", len(repo.rotinas))
	}
	want := domain.RunMetrics{Total: 4, Matches: 2, Extraidos: 2, OCR: 1, Erros: 1}
	if repo.rotinas[0] != want {
		t.Fatalf("run metrics = %+v, want %+v", repo.rotinas[0], want)
	}
	if len(proc.calls) != 4 {
		t.Fatalf("every item must be processed, got %d calls", len(proc.calls))
	}
}

func TestRunNoFilterMatches(t *testing.T) {
	t.Parallel()

	// End-to-end: real processor, three notices missing the filter.
	repo := &fakeRepository{}
	processor := NewProcessor(ProcessorDeps{
		Filter:     relevance.NewFilter(nil),
		Scorer:     &fakeScorer{},
		Repository: repo,
	})
	runner := NewRunner(RunnerDeps{
		Source: &fakeSource{items: []domain.Licitacao{
			{ID: "1", Objeto: "Aquisição de mobiliário"},
			{ID: "2", Objeto: "Serviço de limpeza predial"},
			{ID: "3", Objeto: "Fornecimento de merenda"},
		}},
		Processor:  processor,
		Repository: repo,
	})

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	want := domain.RunMetrics{Total: 3}
	if len(repo.rotinas) != 1 || repo.rotinas[0] != want {
		t.Fatalf("run metrics = %+v, want %+v", repo.rotinas, want)
	}
	if repo.saveCalls != 0 {
		t.Fatalf("no record may be persisted on filter misses, got %d", repo.saveCalls)
	}
}

func TestRunFetchFailureWritesNoMetrics(t *testing.T) {
	t.Parallel()

	repo := &fakeRepository{}
	runner := NewRunner(RunnerDeps{
		Source:     &fakeSource{err: fmt.Errorf("pncp returned 502 Bad Gateway")},
		Processor:  &stubProcessor{},
		Repository: repo,
	})

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("fetch failure must not surface as a run error, got %v", err)
	}
	if repo.rotinaCall != 0 {
		t.Fatal("no run summary may be written after a fetch failure")
	}
	if repo.saveCalls != 0 {
		t.Fatal("no persistence may occur after a fetch failure")
	}
}

func TestRunEmptyBatchWritesNoMetrics(t *testing.T) {
	t.Parallel()

	repo := &fakeRepository{}
	runner := NewRunner(RunnerDeps{
		Source:     &fakeSource{},
		Processor:  &stubProcessor{},
		Repository: repo,
	})

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if repo.rotinaCall != 0 {
		t.Fatal("empty batch must not produce a run summary")
	}
}

func TestRunItemFailureDoesNotStopIteration(t *testing.T) {
	t.Parallel()

	proc := &stubProcessor{results: map[string]domain.ItemMetrics{
		"a": {Errored: true},
		"b": {Matched: true},
	}}
	repo := &fakeRepository{}
	runner := NewRunner(RunnerDeps{
		Source:     &fakeSource{items: notices("a", "b")},
		Processor:  proc,
		Repository: repo,
	})

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(proc.calls) != 2 {
		t.Fatalf("iteration must continue past an errored item, got %v", proc.calls)
	}
	want := domain.RunMetrics{Total: 2, Matches: 1, Erros: 1}
	if repo.rotinas[0] != want {
		t.Fatalf("run metrics = %+v, want %+v", repo.rotinas[0], want)
	}
}

func TestRunSummaryPersistenceFailureSurfaces(t *testing.T) {
	t.Parallel()

	runner := NewRunner(RunnerDeps{
		Source:     &fakeSource{items: notices("a")},
		Processor:  &stubProcessor{},
		Repository: &fakeRepository{rotinaErr: fmt.Errorf("disk full")},
	})

	if err := runner.Run(context.Background()); err == nil {
		t.Fatal("run summary write failure must surface as the run error")
	}
}

func TestRunHonorsConfigurableDelay(t *testing.T) {
	t.Parallel()

	repo := &fakeRepository{}
	runner := NewRunner(RunnerDeps{
		Source:     &fakeSource{items: notices("a", "b", "c")},
		Processor:  &stubProcessor{},
		Repository: repo,
		ItemDelay:  5 * time.Millisecond,
	})

	start := time.Now()
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	// Two pauses between three items.
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Fatalf("expected at least two inter-item pauses, elapsed %v", elapsed)
	}
}
