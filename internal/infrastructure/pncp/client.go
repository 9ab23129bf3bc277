// Package pncp fetches procurement notices from the PNCP public consulta API.
package pncp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"LicitAI/internal/config"
	"LicitAI/internal/domain"
	"LicitAI/internal/ports"
)

const dateLayout = "20060102"

// Client queries the date-scoped proposal listing endpoint.
type Client struct {
	baseURL  string
	pageSize int
	client   *http.Client
}

var _ ports.NoticeSource = (*Client)(nil)

// NewClient wires an HTTP client from config; pageSize defaults to 50.
func NewClient(cfg config.PNCPConfig, client *http.Client) *Client {
	if client == nil {
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Client{baseURL: cfg.BaseURL, pageSize: pageSize, client: client}
}

// FetchDaily returns all notices published for the given day (single page,
// fixed page size, per the consulta API contract).
func (c *Client) FetchDaily(ctx context.Context, day time.Time) ([]domain.Licitacao, error) {
	pageURL, err := c.buildURL(day)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "LicitAI/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pncp returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read listing body: %w", err)
	}

	items, err := decodeListing(body)
	if err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	notices := make([]domain.Licitacao, 0, len(items))
	for _, item := range items {
		notices = append(notices, mapLicitacao(item))
	}
	return notices, nil
}

func (c *Client) buildURL(day time.Time) (string, error) {
	parsed, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", c.baseURL, err)
	}

	date := day.Format(dateLayout)
	query := parsed.Query()
	query.Set("dataInicial", date)
	query.Set("dataFinal", date)
	query.Set("pagina", "1")
	query.Set("tamanhoPagina", strconv.Itoa(c.pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// decodeListing accepts either a bare array of notices or an object wrapping
// the array under "data".
func decodeListing(body []byte) ([]map[string]any, error) {
	var wrapped struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, nil
	}

	var bare []map[string]any
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, err
	}
	return bare, nil
}

// mapLicitacao reads PNCP fields with their documented fallbacks.
func mapLicitacao(item map[string]any) domain.Licitacao {
	lic := domain.Licitacao{
		Orgao:         nestedString(item, "orgaoEntidade", "razaoSocial"),
		CNPJOrgao:     nestedString(item, "orgaoEntidade", "cnpj"),
		Objeto:        stringAt(item, "objetoCompra", "objeto"),
		ValorEstimado: numberAt(item, "valorTotalEstimado"),
		DataSessao:    stringAt(item, "dataAberturaProposta"),
		LinkEdital:    stringAt(item, "linkEdital"),
		Arquivos:      fileURLs(item),
		Link:          stringAt(item, "linkSistemaOrigem", "link"),
	}
	if lic.Orgao == "" {
		lic.Orgao = stringAt(item, "orgao")
	}
	if lic.Orgao == "" {
		lic.Orgao = "Órgão Desconhecido"
	}

	lic.ID = stringAt(item, "numeroControlePNCP", "id")
	if lic.ID == "" {
		lic.ID = stringAt(item, "idCompra")
	}
	if lic.ID == "" {
		lic.ID = domain.FallbackID(lic)
	}
	return lic
}

func stringAt(item map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := item[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func nestedString(item map[string]any, outer, inner string) string {
	nested, ok := item[outer].(map[string]any)
	if !ok {
		return ""
	}
	return stringAt(nested, inner)
}

// numberAt normalizes the estimated value; absent or non-numeric yields 0.
func numberAt(item map[string]any, key string) float64 {
	switch v := item[key].(type) {
	case float64:
		return v
	case string:
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return 0
}

func fileURLs(item map[string]any) []string {
	raw, ok := item["arquivos"].([]any)
	if !ok {
		return nil
	}
	urls := make([]string, 0, len(raw))
	for _, entry := range raw {
		file, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if u := stringAt(file, "url"); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
