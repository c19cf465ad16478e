package redisprovider

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memorybench/harness/model"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return New(client)
}

func TestProvider_Initialize_PingsRedis(t *testing.T) {
	p := newTestProvider(t)
	require.NoError(t, p.Initialize(context.Background()))
}

func TestProvider_AddSearchClear(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.AddContext(ctx, "scope-1", model.PreparedData{ID: "a", Content: "the cat sat on the mat"}))
	require.NoError(t, p.AddContext(ctx, "scope-1", model.PreparedData{ID: "b", Content: "a wholly different sentence"}))

	results, err := p.SearchQuery(ctx, "scope-1", "cat sat mat", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)

	require.NoError(t, p.Clear(ctx, "scope-1"))
	results, err = p.SearchQuery(ctx, "scope-1", "cat sat mat", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestProvider_SearchQuery_EmptyScopeReturnsEmpty(t *testing.T) {
	p := newTestProvider(t)
	results, err := p.SearchQuery(context.Background(), "never-seen", "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
