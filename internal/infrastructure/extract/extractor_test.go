package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeExtractor wires stub extraction passes so the decision rule is tested
// without real PDFs.
func fakeExtractor(server *httptest.Server, native, ocr func([]byte) (string, error)) *Extractor {
	e := NewExtractor(server.Client(), nil)
	e.native = func(data []byte) (string, error) { return native(data) }
	e.ocr = func(data []byte, _ int) (string, error) { return ocr(data) }
	return e
}

func pdfServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4 stub"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExtractLongNativeTextSkipsFallback(t *testing.T) {
	t.Parallel()

	longText := strings.Repeat("licitação de monitoramento ", 8) // well past 50 chars
	server := pdfServer(t)
	e := fakeExtractor(server,
		func([]byte) (string, error) { return longText, nil },
		func([]byte) (string, error) {
			t.Error("fallback must not engage for substantive native text")
			return "", nil
		},
	)

	got := e.ExtractFromURL(context.Background(), server.URL)
	if got.Text != longText {
		t.Fatalf("unexpected text: %q", got.Text)
	}
	if got.UsedOCR {
		t.Fatal("UsedOCR must be false on the native path")
	}
}

func TestExtractShortNativeTextEngagesFallback(t *testing.T) {
	t.Parallel()

	server := pdfServer(t)
	e := fakeExtractor(server,
		func([]byte) (string, error) { return "só dez ch.", nil },
		func([]byte) (string, error) { return "texto reconhecido via ocr\n", nil },
	)

	got := e.ExtractFromURL(context.Background(), server.URL)
	if got.Text != "texto reconhecido via ocr\n" {
		t.Fatalf("unexpected text: %q", got.Text)
	}
	if !got.UsedOCR {
		t.Fatal("UsedOCR must be true when the fallback path is engaged")
	}
}

func TestExtractNativeFailureEngagesFallback(t *testing.T) {
	t.Parallel()

	server := pdfServer(t)
	e := fakeExtractor(server,
		func([]byte) (string, error) { return "", fmt.Errorf("broken xref table") },
		func([]byte) (string, error) { return "recuperado\n", nil },
	)

	got := e.ExtractFromURL(context.Background(), server.URL)
	if got.Text != "recuperado\n" || !got.UsedOCR {
		t.Fatalf("unexpected extraction: %+v", got)
	}
}

func TestExtractFallbackFailureYieldsEmptyText(t *testing.T) {
	t.Parallel()

	server := pdfServer(t)
	e := fakeExtractor(server,
		func([]byte) (string, error) { return "", fmt.Errorf("no text layer") },
		func([]byte) (string, error) { return "", fmt.Errorf("tesseract unavailable") },
	)

	got := e.ExtractFromURL(context.Background(), server.URL)
	if got.Text != "" {
		t.Fatalf("expected empty text, got %q", got.Text)
	}
	if !got.UsedOCR {
		t.Fatal("UsedOCR reports path engagement even when recognition fails")
	}
}

func TestExtractNetworkFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	e := NewExtractor(server.Client(), nil)
	e.native = func([]byte) (string, error) {
		t.Error("extraction must not run after a fetch failure")
		return "", nil
	}

	got := e.ExtractFromURL(context.Background(), server.URL)
	if got.Text != "" || got.UsedOCR {
		t.Fatalf("fetch failure must yield an empty extraction, got %+v", got)
	}
}

func TestExtractEmptyReference(t *testing.T) {
	t.Parallel()

	e := NewExtractor(nil, nil)
	if got := e.ExtractFromURL(context.Background(), ""); got.Text != "" || got.UsedOCR {
		t.Fatalf("empty reference must yield an empty extraction, got %+v", got)
	}
}

func TestDecisionRuleThreshold(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		nativeText string
		wantOCR    bool
	}{
		{"200 chars never falls back", strings.Repeat("a", 200), false},
		{"10 chars always falls back", strings.Repeat("a", 10), true},
		{"49 chars falls back", strings.Repeat("a", 49), true},
		{"50 chars does not", strings.Repeat("a", 50), false},
		{"whitespace padding is trimmed", "   " + strings.Repeat("a", 10) + strings.Repeat(" ", 100), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			e := NewExtractor(nil, nil)
			e.native = func([]byte) (string, error) { return tc.nativeText, nil }
			e.ocr = func([]byte, int) (string, error) { return "ocr output", nil }

			got := e.extract([]byte("stub"))
			if got.UsedOCR != tc.wantOCR {
				t.Fatalf("UsedOCR = %v, want %v", got.UsedOCR, tc.wantOCR)
			}
		})
	}
}
