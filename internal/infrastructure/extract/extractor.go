// Package extract recovers plain text from remote edital PDFs, falling back
// to OCR when the document carries no usable text layer.
package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"LicitAI/internal/domain"
	"LicitAI/internal/ports"
)

const (
	// Documents whose native text trims below this length are treated as
	// effectively empty (scanned image PDFs) and routed through OCR.
	shortTextThreshold = 50

	// OCR is bounded to the leading pages to keep the fallback cheap.
	maxOCRPages = 3
)

// Extractor downloads a document and extracts its text. All failure modes
// collapse to an empty Extraction; callers never receive an error.
type Extractor struct {
	client *http.Client
	logger *slog.Logger

	// Extraction passes are injectable so the decision rule is testable
	// without real PDFs.
	native func(data []byte) (string, error)
	ocr    func(data []byte, maxPages int) (string, error)
}

var _ ports.Extractor = (*Extractor)(nil)

// NewExtractor wires the HTTP client and the two extraction passes.
func NewExtractor(client *http.Client, logger *slog.Logger) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Extractor{
		client: client,
		logger: logger,
		native: nativeText,
		ocr:    ocrText,
	}
}

// ExtractFromURL fetches the document and returns its best-effort text plus
// an explicit flag telling whether the OCR path was engaged.
func (e *Extractor) ExtractFromURL(ctx context.Context, docURL string) domain.Extraction {
	if docURL == "" {
		return domain.Extraction{}
	}

	data, err := e.fetch(ctx, docURL)
	if err != nil {
		e.warn("fetch document", "url", docURL, "error", err)
		return domain.Extraction{}
	}

	return e.extract(data)
}

// extract applies the native pass and the short-text decision rule.
func (e *Extractor) extract(data []byte) domain.Extraction {
	text, err := e.native(data)
	if err == nil && len(strings.TrimSpace(text)) >= shortTextThreshold {
		return domain.Extraction{Text: text}
	}
	if err != nil {
		e.warn("native extraction failed, falling back to OCR", "error", err)
	} else {
		e.warn("native extraction yielded little to no text, falling back to OCR")
	}

	recognized, err := e.ocr(data, maxOCRPages)
	if err != nil {
		e.warn("ocr extraction failed", "error", err)
		return domain.Extraction{UsedOCR: true}
	}
	return domain.Extraction{Text: recognized, UsedOCR: true}
}

func (e *Extractor) fetch(ctx context.Context, docURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "LicitAI/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("document source returned %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read document body: %w", err)
	}
	return data, nil
}

func (e *Extractor) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
