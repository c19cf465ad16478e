// Package anthropicbackend adapts the Anthropic API as an llm.Backend.
// Grounded on llms/anthropic/anthropic.go's client construction (API key
// from env or option, default model/max-tokens) and response mapping
// (text blocks concatenated, usage pulled off resp.Usage), collapsed to a
// single-turn prompt since the harness never holds multi-turn state.
package anthropicbackend

import (
	"context"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/memorybench/harness/llm"
)

const defaultMaxTokens = 1024

// Backend calls the Anthropic Messages API.
type Backend struct {
	client *anthropic.Client
}

// New builds a Backend. An empty apiKey falls back to ANTHROPIC_API_KEY.
func New(apiKey, baseURL string) *Backend {
	opts := []option.RequestOption{}
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(opts...)
	return &Backend{client: &client}
}

func (b *Backend) Name() string { return "anthropic" }

func (b *Backend) GenerateText(ctx context.Context, req llm.Request) (llm.Response, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	resp, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(req.Temperature),
	})
	if err != nil {
		return llm.Response{}, fmt.Errorf("anthropicbackend: generate: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return llm.Response{
		Text:         text,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}
