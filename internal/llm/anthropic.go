package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pribylovaa/orange-copywriter/internal/config"
	"github.com/pribylovaa/orange-copywriter/internal/prompt"
)

// Anthropic — бэкенд на Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropic создаёт клиента с отключёнными повторами SDK.
// hc == nil означает http.DefaultClient.
func NewAnthropic(cfg config.AnthropicConfig, hc *http.Client) *Anthropic {
	if hc == nil {
		hc = http.DefaultClient
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(hc),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(cfg.Model),
		maxTokens: maxTokens,
	}
}

// Name реализует Backend.
func (a *Anthropic) Name() string { return config.BackendAnthropic }

// Complete реализует Backend: системные инструкции уходят в system,
// текст ответа — конкатенация text-блоков.
func (a *Anthropic) Complete(ctx context.Context, p prompt.Prompt) (string, error) {
	const op = "llm.Anthropic.Complete"

	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(p.User)),
		},
	}
	if p.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.System}}
	}
	if p.Temperature != nil {
		params.Temperature = anthropic.Float(*p.Temperature)
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", upstreamErr(op, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", upstreamErr(op, errors.New("empty completion"))
	}

	return text, nil
}
