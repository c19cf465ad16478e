package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memorybench/harness/model"
)

type fakeProvider struct {
	name         string
	initialized  bool
	cleanedUp    bool
	initErr      error
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) AddContext(context.Context, string, model.PreparedData) error { return nil }
func (f *fakeProvider) SearchQuery(context.Context, string, string, int) ([]model.SearchResult, error) {
	return nil, nil
}
func (f *fakeProvider) Clear(context.Context, string) error { return nil }
func (f *fakeProvider) Initialize(context.Context) error    { f.initialized = true; return f.initErr }
func (f *fakeProvider) Cleanup(context.Context) error       { f.cleanedUp = true; return nil }

func TestRegister_AndInitializeCleanup(t *testing.T) {
	fp := &fakeProvider{name: "test-fake"}
	require.NoError(t, Register(fp, true))

	got, ok := Registry.Get("test-fake")
	require.True(t, ok)

	require.NoError(t, Initialize(context.Background(), got))
	assert.True(t, fp.initialized)

	require.NoError(t, Cleanup(context.Background(), got))
	assert.True(t, fp.cleanedUp)
}

func TestInitialize_NoopWhenNotImplemented(t *testing.T) {
	var p Provider = &minimalProvider{}
	assert.NoError(t, Initialize(context.Background(), p))
	assert.NoError(t, Cleanup(context.Background(), p))
}

type minimalProvider struct{}

func (minimalProvider) Name() string { return "minimal" }
func (minimalProvider) AddContext(context.Context, string, model.PreparedData) error { return nil }
func (minimalProvider) SearchQuery(context.Context, string, string, int) ([]model.SearchResult, error) {
	return nil, nil
}
func (minimalProvider) Clear(context.Context, string) error { return nil }
