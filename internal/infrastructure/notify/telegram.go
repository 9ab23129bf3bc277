// Package notify delivers best-effort high-score alerts over email and chat.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"LicitAI/internal/config"
	"LicitAI/internal/domain"
	"LicitAI/internal/ports"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier sends alerts to a Telegram chat via bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

var _ ports.AlertNotifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier registers bot token and chat identifier.
func NewTelegramNotifier(cfg config.TelegramConfig) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		baseURL:  telegramAPIBase,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// SendAlert posts a Markdown message describing the record.
func (n *TelegramNotifier) SendAlert(ctx context.Context, rec domain.ScoredRecord) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", formatTelegramAlert(rec))
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

func formatTelegramAlert(rec domain.ScoredRecord) string {
	return fmt.Sprintf(
		"🔥 *Nova Oportunidade Quente (Score %d/10)*\n\n"+
			"🏢 *Órgão*: %s\n"+
			"📝 *Objeto*: %s\n"+
			"💰 *Valor*: R$ %.2f\n"+
			"📅 *Data*: %s\n"+
			"💻 *Tech*: %s\n\n"+
			"🔗 [Acessar PNCP](%s)",
		rec.Score, rec.Orgao, rec.Objeto, rec.ValorEstimado,
		rec.DataSessao, rec.Tecnologias, rec.Link,
	)
}
