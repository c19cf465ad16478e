// Package bedrockbackend adapts AWS Bedrock Runtime as an llm.Backend.
// Grounded on llms/bedrock/bedrock.go's client construction
// (awsconfig.LoadDefaultConfig, bedrockruntime.NewFromConfig) and
// bedrock_anthropic.go's InvokeModel request/response mapping for the
// Anthropic-on-Bedrock model family, collapsed to a single-turn prompt
// since the harness never holds multi-turn state.
package bedrockbackend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/memorybench/harness/llm"
)

const (
	anthropicVersion = "bedrock-2023-05-31"
	defaultMaxTokens = 1024
)

// Backend calls AWS Bedrock Runtime's InvokeModel for Anthropic-family
// model ids (e.g. "anthropic.claude-3-5-sonnet-20241022-v2:0").
type Backend struct {
	client *bedrockruntime.Client
}

// New builds a Backend. An empty region falls back to the AWS SDK's
// default resolution chain (AWS_REGION, shared config, EC2/ECS metadata).
func New(ctx context.Context, region string) (*Backend, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("bedrockbackend: load aws config: %w", err)
	}
	return &Backend{client: bedrockruntime.NewFromConfig(cfg)}, nil
}

func (b *Backend) Name() string { return "bedrock" }

type anthropicRequestBody struct {
	AnthropicVersion string                 `json:"anthropic_version"`
	Messages         []anthropicMessagePart `json:"messages"`
	MaxTokens        int                    `json:"max_tokens"`
	Temperature      *float64               `json:"temperature,omitempty"`
}

type anthropicMessagePart struct {
	Role    string                    `json:"role"`
	Content []anthropicMessageContent `json:"content"`
}

type anthropicMessageContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicResponseBody struct {
	Content []anthropicMessageContent `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (b *Backend) GenerateText(ctx context.Context, req llm.Request) (llm.Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body := anthropicRequestBody{
		AnthropicVersion: anthropicVersion,
		Messages: []anthropicMessagePart{
			{Role: "user", Content: []anthropicMessageContent{{Type: "text", Text: req.Prompt}}},
		},
		MaxTokens: maxTokens,
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return llm.Response{}, fmt.Errorf("bedrockbackend: marshal request: %w", err)
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(req.Model),
		Body:        payload,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return llm.Response{}, fmt.Errorf("bedrockbackend: invoke model %q: %w", req.Model, err)
	}

	var parsed anthropicResponseBody
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return llm.Response{}, fmt.Errorf("bedrockbackend: unmarshal response: %w", err)
	}

	var text string
	for _, c := range parsed.Content {
		if c.Type == "text" {
			text += c.Text
		}
	}

	return llm.Response{
		Text:         text,
		InputTokens:  parsed.Usage.InputTokens,
		OutputTokens: parsed.Usage.OutputTokens,
	}, nil
}
