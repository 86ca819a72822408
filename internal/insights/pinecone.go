// Package insights ищет свежие рыночные новости по отрасли в векторном индексе Pinecone.
package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pribylovaa/orange-copywriter/internal/config"
)

// ErrRetrieval — поиск не удался (эмбеддинг или запрос к индексу).
var ErrRetrieval = errors.New("insights retrieval failed")

// noAnalysis подставляется для совпадений без поля Analysis.
const noAnalysis = "No Analysis Found"

const maxResponseBytes = 4 << 20

// Embedder строит вектор запроса.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Pinecone — поиск по индексу через REST API data plane.
type Pinecone struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	embedder     Embedder
	topK         int
	fallbackTopK int
	maxAge       time.Duration
	now          func() time.Time
}

// Option настраивает Pinecone.
type Option func(*Pinecone)

// WithClock подменяет источник времени для фильтра по свежести.
func WithClock(now func() time.Time) Option {
	return func(p *Pinecone) { p.now = now }
}

// NewPinecone создаёт клиента. Хост без схемы дополняется https://.
func NewPinecone(cfg config.InsightsConfig, embedder Embedder, hc *http.Client, opts ...Option) *Pinecone {
	if hc == nil {
		hc = http.DefaultClient
	}

	base := strings.TrimSuffix(cfg.PineconeHost, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	p := &Pinecone{
		baseURL:      base,
		apiKey:       cfg.APIKey,
		httpClient:   hc,
		embedder:     embedder,
		topK:         cfg.TopK,
		fallbackTopK: cfg.FallbackTopK,
		maxAge:       cfg.MaxAge,
		now:          time.Now,
	}

	for _, o := range opts {
		o(p)
	}

	return p
}

type queryRequest struct {
	Vector          []float32      `json:"vector"`
	TopK            int            `json:"topK"`
	IncludeMetadata bool           `json:"includeMetadata"`
	Filter          map[string]any `json:"filter,omitempty"`
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

// Insights возвращает тексты анализа для совпадений: сначала среди записей
// не старше maxAge (topK), при пустом результате — без фильтра (fallbackTopK).
func (p *Pinecone) Insights(ctx context.Context, query string) ([]string, error) {
	const op = "insights.Pinecone.Insights"

	vec, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrRetrieval, err)
	}

	cutoff := p.now().Add(-p.maxAge).Unix()
	res, err := p.query(ctx, queryRequest{
		Vector:          vec,
		TopK:            p.topK,
		IncludeMetadata: true,
		Filter:          map[string]any{"timestamp": map[string]any{"$gte": cutoff}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrRetrieval, err)
	}

	if len(res.Matches) == 0 {
		res, err = p.query(ctx, queryRequest{Vector: vec, TopK: p.fallbackTopK, IncludeMetadata: true})
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrRetrieval, err)
		}
	}

	out := make([]string, 0, len(res.Matches))
	for _, m := range res.Matches {
		text, ok := m.Metadata["Analysis"].(string)
		if !ok || strings.TrimSpace(text) == "" {
			text = noAnalysis
		}

		out = append(out, strings.TrimSpace(text))
	}

	return out, nil
}

func (p *Pinecone) query(ctx context.Context, q queryRequest) (*queryResponse, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pinecone query [%d]", resp.StatusCode)
	}

	var out queryResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &out, nil
}

// Retriever — источник рыночных новостей для промптов.
type Retriever interface {
	Insights(ctx context.Context, query string) ([]string, error)
}
