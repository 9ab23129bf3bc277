package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// Licitacao is a core entity describing one procurement notice fetched from PNCP.
type Licitacao struct {
	ID            string
	Orgao         string
	CNPJOrgao     string
	Objeto        string
	ValorEstimado float64
	DataSessao    string
	LinkEdital    string
	Arquivos      []string
	Link          string
}

// DocumentURL resolves the edital reference: explicit link first, else the
// first attached file, else empty.
func (l Licitacao) DocumentURL() string {
	if l.LinkEdital != "" {
		return l.LinkEdital
	}
	if len(l.Arquivos) > 0 {
		return l.Arquivos[0]
	}
	return ""
}

// FallbackID derives a deterministic identifier for notices whose control
// number, id and idCompra are all absent, so repeated runs upsert the same row.
func FallbackID(l Licitacao) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%s", l.Orgao, l.Objeto, l.DataSessao)))
	return "synth-" + hex.EncodeToString(sum[:])
}

// Status enumerates the lifecycle of a persisted record.
type Status string

const (
	StatusNovo Status = "novo"
)

// ScoreResult is the fixed output shape of the scorer.
type ScoreResult struct {
	Score         int
	TechStack     string
	Justificativa string
}

// Extraction carries extracted document text together with an explicit flag
// telling whether the OCR fallback path was engaged. The flag is part of the
// contract; callers must not infer it from text length.
type Extraction struct {
	Text    string
	UsedOCR bool
}

// ScoredRecord is the persisted shape of a matched notice.
type ScoredRecord struct {
	ID            string
	Orgao         string
	CNPJOrgao     string
	Objeto        string
	ValorEstimado float64
	DataSessao    string
	Score         int
	Justificativa string
	Tecnologias   string
	Link          string
	Status        Status
}

// ItemMetrics is the fixed per-notice outcome tuple returned by the processor.
type ItemMetrics struct {
	Matched   bool
	Extracted bool
	UsedOCR   bool
	Errored   bool
}

// RunMetrics aggregates one full ingestion run; written once per run.
type RunMetrics struct {
	Total     int
	Matches   int
	Extraidos int
	OCR       int
	Erros     int
}

// Add folds one item outcome into the run accumulator.
func (m *RunMetrics) Add(item ItemMetrics) {
	if item.Matched {
		m.Matches++
	}
	if item.Extracted {
		m.Extraidos++
	}
	if item.UsedOCR {
		m.OCR++
	}
	if item.Errored {
		m.Erros++
	}
}

// HotRecord is a condensed view of a high-scoring record for the admin stats.
type HotRecord struct {
	ID          string `json:"id"`
	Orgao       string `json:"orgao"`
	Score       int    `json:"score"`
	Tecnologias string `json:"techs"`
	CreatedAt   string `json:"date"`
}

// AdminStats summarizes the last 24 hours for the dashboard endpoint.
type AdminStats struct {
	BuscasDiarias int         `json:"buscas_diarias"`
	OCRUsado      int         `json:"ocr_status"`
	AlertasErro   int         `json:"alertas_erro"`
	RecentHot     []HotRecord `json:"recent_hot"`
}
