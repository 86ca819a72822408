package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pribylovaa/orange-copywriter/internal/config"
	"github.com/pribylovaa/orange-copywriter/internal/prompt"
)

// maxResponseBytes ограничивает чтение тела ответа внешнего API.
const maxResponseBytes = 8 << 20

// OpenAI — клиент OpenAI-совместимого API (chat completions и embeddings).
type OpenAI struct {
	baseURL        string
	apiKey         string
	model          string
	embeddingModel string
	httpClient     *http.Client
}

// NewOpenAI создаёт клиента. Таймауты задаются контекстом вызова;
// hc == nil означает http.DefaultClient.
func NewOpenAI(cfg config.OpenAIConfig, hc *http.Client) *OpenAI {
	if hc == nil {
		hc = http.DefaultClient
	}

	return &OpenAI{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		httpClient:     hc,
	}
}

// Name реализует Backend.
func (c *OpenAI) Name() string { return config.BackendOpenAI }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int64         `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message *chatMessage `json:"message"`
	} `json:"choices"`
}

type apiErrorResponse struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete реализует Backend через POST /v1/chat/completions.
func (c *OpenAI) Complete(ctx context.Context, p prompt.Prompt) (string, error) {
	const op = "llm.OpenAI.Complete"

	req := chatRequest{
		Model:       c.model,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
	}
	if p.System != "" {
		req.Messages = append(req.Messages, chatMessage{Role: "system", Content: p.System})
	}
	req.Messages = append(req.Messages, chatMessage{Role: "user", Content: p.User})

	var resp chatResponse
	if err := c.post(ctx, "/v1/chat/completions", req, &resp); err != nil {
		return "", upstreamErr(op, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return "", upstreamErr(op, errors.New("no choices in response"))
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", upstreamErr(op, errors.New("empty completion"))
	}

	return text, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed возвращает вектор для текста через POST /v1/embeddings.
func (c *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	const op = "llm.OpenAI.Embed"

	var resp embeddingResponse
	if err := c.post(ctx, "/v1/embeddings", embeddingRequest{Model: c.embeddingModel, Input: []string{text}}, &resp); err != nil {
		return nil, upstreamErr(op, err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, upstreamErr(op, errors.New("empty embedding"))
	}

	return resp.Data[0].Embedding, nil
}

func (c *OpenAI) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != nil {
			return fmt.Errorf("api error [%d]: %s (type: %s)", resp.StatusCode, apiErr.Error.Message, apiErr.Error.Type)
		}

		return fmt.Errorf("api error [%d]", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}
