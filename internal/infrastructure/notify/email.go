package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"LicitAI/internal/config"
	"LicitAI/internal/domain"
	"LicitAI/internal/ports"
)

const resendEndpoint = "https://api.resend.com/emails"

// EmailNotifier sends alert emails through the Resend API.
type EmailNotifier struct {
	apiKey    string
	sender    string
	recipient string
	endpoint  string
	client    *http.Client
}

var _ ports.AlertNotifier = (*EmailNotifier)(nil)

// NewEmailNotifier wires Resend credentials and the fixed recipient.
func NewEmailNotifier(cfg config.EmailConfig) *EmailNotifier {
	return &EmailNotifier{
		apiKey:    cfg.APIKey,
		sender:    cfg.Sender,
		recipient: cfg.Recipient,
		endpoint:  resendEndpoint,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SendAlert posts an HTML alert email describing the record.
func (n *EmailNotifier) SendAlert(ctx context.Context, rec domain.ScoredRecord) error {
	if n.apiKey == "" || n.recipient == "" {
		return fmt.Errorf("email notifier misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"from":    n.sender,
		"to":      []string{n.recipient},
		"subject": fmt.Sprintf("[%d/10] Oportunidade: %s", rec.Score, rec.Orgao),
		"html":    formatEmailAlert(rec),
	})
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("resend error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	return nil
}

func formatEmailAlert(rec domain.ScoredRecord) string {
	return fmt.Sprintf(
		"<h2>🔥 Nova Oportunidade Quente Encontrada!</h2>"+
			"<p><strong>Órgão:</strong> %s</p>"+
			"<p><strong>Objeto:</strong> %s</p>"+
			"<p><strong>Valor Estimado:</strong> R$ %.2f</p>"+
			"<p><strong>Data da Sessão:</strong> %s</p>"+
			"<p><strong>Score de Vencibilidade:</strong> %d/10</p>"+
			"<p><strong>Tech Stack Identificada:</strong> %s</p>"+
			"<p><a href=%q>Ver Licitação no PNCP</a></p>",
		html.EscapeString(rec.Orgao), html.EscapeString(rec.Objeto),
		rec.ValorEstimado, html.EscapeString(rec.DataSessao),
		rec.Score, html.EscapeString(rec.Tecnologias), rec.Link,
	)
}
