// Package llm exposes a single generateText contract used everywhere the
// harness needs a model call — answering a question, judging an answer, or
// a pack's custom scoring prompt — dispatched across real provider SDKs by
// a "{provider}/{model}" name. The contract is collapsed down to plain
// prompt-in/text-out since the harness never needs multi-turn conversation
// state, tool calls, or streaming.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/memorybench/harness/registry"
)

// Request is one generateText call.
type Request struct {
	Model       string // "{provider}/{model}", e.g. "anthropic/claude-3-5-sonnet-20241022"
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Response is the result of a generateText call, including token usage so
// the Runner can attach it to model.Telemetry.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Backend is a concrete model provider (Anthropic, OpenAI, Ollama, ...).
type Backend interface {
	// Name returns the provider prefix this backend handles, e.g.
	// "anthropic".
	Name() string
	GenerateText(ctx context.Context, req Request) (Response, error)
}

// Registry holds Backend implementations keyed by provider prefix.
var Registry = registry.New[Backend]("llm_backends")

// RegisterBackend adds b under its own Name(), returning a registry.Error
// on a name collision.
func RegisterBackend(b Backend, strict bool) error {
	return Registry.Register(b.Name(), b, strict)
}

// splitModel divides a "{provider}/{model}" string into its two halves. If
// no "/" is present, the provider is inferred from well-known model name
// prefixes (claude -> anthropic, gpt/o1/o3 -> openai, everything else ->
// ollama, since Ollama models carry arbitrary user-chosen names).
func splitModel(spec string) (provider, model string) {
	if idx := strings.Index(spec, "/"); idx >= 0 {
		return spec[:idx], spec[idx+1:]
	}
	lower := strings.ToLower(spec)
	switch {
	case strings.HasPrefix(lower, "claude"):
		return "anthropic", spec
	case strings.HasPrefix(lower, "gpt"), strings.HasPrefix(lower, "o1"), strings.HasPrefix(lower, "o3"):
		return "openai", spec
	default:
		return "ollama", spec
	}
}

// GenerateText dispatches req to the backend named by req.Model's provider
// prefix.
func GenerateText(ctx context.Context, req Request) (Response, error) {
	providerName, modelName := splitModel(req.Model)
	backend, err := Registry.GetOrError(providerName)
	if err != nil {
		return Response{}, fmt.Errorf("llm: %w", err)
	}
	req.Model = modelName
	return backend.GenerateText(ctx, req)
}
