package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	name     string
	lastReq  Request
}

func (f *fakeBackend) Name() string { return f.name }
func (f *fakeBackend) GenerateText(_ context.Context, req Request) (Response, error) {
	f.lastReq = req
	return Response{Text: "echo: " + req.Prompt}, nil
}

func TestSplitModel_ExplicitPrefix(t *testing.T) {
	provider, model := splitModel("openai/gpt-4o")
	assert.Equal(t, "openai", provider)
	assert.Equal(t, "gpt-4o", model)
}

func TestSplitModel_InferredFromName(t *testing.T) {
	cases := map[string]string{
		"claude-3-5-sonnet-20241022": "anthropic",
		"gpt-4o-mini":                "openai",
		"llama3.1":                   "ollama",
	}
	for name, wantProvider := range cases {
		provider, model := splitModel(name)
		assert.Equal(t, wantProvider, provider)
		assert.Equal(t, name, model)
	}
}

func TestGenerateText_DispatchesToRegisteredBackend(t *testing.T) {
	fb := &fakeBackend{name: "test-fake-provider"}
	require.NoError(t, RegisterBackend(fb, true))

	resp, err := GenerateText(context.Background(), Request{Model: "test-fake-provider/some-model", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", resp.Text)
	assert.Equal(t, "some-model", fb.lastReq.Model)
}

func TestGenerateText_UnknownProviderErrors(t *testing.T) {
	_, err := GenerateText(context.Background(), Request{Model: "nonexistent-provider/model", Prompt: "hi"})
	require.Error(t, err)
}
