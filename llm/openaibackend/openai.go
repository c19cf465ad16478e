// Package openaibackend adapts the OpenAI chat completions API as an
// llm.Backend. Grounded on llms/openai/openai.go's client construction
// (openai.NewClientWithConfig) and CreateChatCompletion call/response
// mapping, collapsed to a single-turn prompt.
package openaibackend

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/memorybench/harness/llm"
)

// Backend calls the OpenAI chat completions API.
type Backend struct {
	client *openai.Client
}

// New builds a Backend. An empty apiKey falls back to OPENAI_API_KEY.
func New(apiKey, baseURL string) *Backend {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Backend{client: openai.NewClientWithConfig(cfg)}
}

func (b *Backend) Name() string { return "openai" }

func (b *Backend) GenerateText(ctx context.Context, req llm.Request) (llm.Response, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: float32(req.Temperature),
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}

	resp, err := b.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return llm.Response{}, fmt.Errorf("openaibackend: generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return llm.Response{}, fmt.Errorf("openaibackend: no choices returned for model %q", req.Model)
	}

	return llm.Response{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}
