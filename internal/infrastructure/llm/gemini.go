// Package llm adapts the Gemini API into the scorer contract.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"LicitAI/internal/config"
	"LicitAI/internal/domain"
	"LicitAI/internal/ports"
)

// Document text is truncated to this prefix before submission to bound
// request cost.
const maxEditalExcerpt = 3000

const promptTemplate = `Analise a seguinte oportunidade de licitação (SaaS de Inteligência Competitiva).
O foco técnico procurado é: Oportunidades de TI, Observabilidade e Monitoramento (Zabbix, Splunk, SolarWinds, AppDynamics, Grafana, NOC 24x7).

Dê um 'Score de Vencibilidade' de 0 a 10 para esta oportunidade.
- 0 a 3: Nenhuma relação com TI ou infraestrutura/monitoramento.
- 4 a 6: Contém itens de TI gerais, mas sem foco explícito em observabilidade/monitoramento.
- 7 a 10: Forte aderência a Monitoramento, Observabilidade, ou ferramentas específicas citadas.

Responda em JSON com as chaves "score" (inteiro 0-10), "tech_stack" (string) e "justificativa" (string).

Objeto da Licitação:
%s

Trecho do Edital (se disponível):
%s`

// GeminiScorer scores notices with Gemini structured output. It is a total
// function: every failure mode degrades to the zero-score fallback.
type GeminiScorer struct {
	apiKey string
	model  string
	logger *slog.Logger
}

var _ ports.Scorer = (*GeminiScorer)(nil)

// NewGeminiScorer builds a scorer from configuration. A missing API key is
// tolerated here and surfaces as the fallback result on every call.
func NewGeminiScorer(cfg config.GeminiConfig, logger *slog.Logger) *GeminiScorer {
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiScorer{apiKey: cfg.APIKey, model: model, logger: logger}
}

// Score classifies the notice subject plus a bounded edital excerpt.
func (s *GeminiScorer) Score(ctx context.Context, objeto, fullText string) domain.ScoreResult {
	if s.apiKey == "" {
		s.warn("gemini api key is not set")
		return fallback("Erro: API Key não configurada")
	}

	raw, err := s.generate(ctx, buildPrompt(objeto, fullText))
	if err != nil {
		s.warn("gemini scoring failed", "error", err)
		return fallback("Erro na IA: " + err.Error())
	}

	result, err := parseScoreJSON(raw)
	if err != nil {
		s.warn("gemini returned malformed score", "error", err)
		return fallback("Erro na IA: " + err.Error())
	}
	return result
}

func buildPrompt(objeto, fullText string) string {
	if len(fullText) > maxEditalExcerpt {
		fullText = fullText[:maxEditalExcerpt]
	}
	return fmt.Sprintf(promptTemplate, objeto, fullText)
}

func (s *GeminiScorer) generate(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(s.apiKey))
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(s.model)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return extractText(resp)
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}

// parseScoreJSON decodes the structured response, tolerating markdown code
// fences, and clamps the score into the contracted range.
func parseScoreJSON(raw string) (domain.ScoreResult, error) {
	var payload struct {
		Score         int    `json:"score"`
		TechStack     string `json:"tech_stack"`
		Justificativa string `json:"justificativa"`
	}
	if err := json.Unmarshal([]byte(cleanJSONBlock(raw)), &payload); err != nil {
		return domain.ScoreResult{}, fmt.Errorf("decode score payload: %w", err)
	}

	score := payload.Score
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return domain.ScoreResult{
		Score:         score,
		TechStack:     payload.TechStack,
		Justificativa: payload.Justificativa,
	}, nil
}

func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func fallback(reason string) domain.ScoreResult {
	return domain.ScoreResult{Score: 0, TechStack: "", Justificativa: reason}
}

func (s *GeminiScorer) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
