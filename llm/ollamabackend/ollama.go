// Package ollamabackend adapts a local Ollama instance as an llm.Backend.
// Grounded on llms/ollama/ollama.go's client construction
// (api.ClientFromEnvironment with a URL-parsed fallback) and its
// non-streaming Chat call (Stream: false, response collected via a single
// callback invocation).
package ollamabackend

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/memorybench/harness/llm"
)

// Backend calls a local Ollama server's chat API.
type Backend struct {
	client *api.Client
}

// New builds a Backend against host (e.g. "http://localhost:11434"). An
// empty host falls back to api.ClientFromEnvironment (OLLAMA_HOST).
func New(host string) (*Backend, error) {
	if host == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollamabackend: client from environment: %w", err)
		}
		return &Backend{client: client}, nil
	}
	parsed, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("ollamabackend: invalid host %q: %w", host, err)
	}
	return &Backend{client: api.NewClient(parsed, nil)}, nil
}

func (b *Backend) Name() string { return "ollama" }

func (b *Backend) GenerateText(ctx context.Context, req llm.Request) (llm.Response, error) {
	stream := false
	chatReq := &api.ChatRequest{
		Model: req.Model,
		Messages: []api.Message{
			{Role: "user", Content: req.Prompt},
		},
		Stream: &stream,
		Options: map[string]any{
			"temperature": req.Temperature,
		},
	}

	var final api.ChatResponse
	err := b.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		final = resp
		return nil
	})
	if err != nil {
		return llm.Response{}, fmt.Errorf("ollamabackend: generate: %w", err)
	}

	return llm.Response{
		Text:         final.Message.Content,
		InputTokens:  final.PromptEvalCount,
		OutputTokens: final.EvalCount,
	}, nil
}
