package inmemoryprovider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memorybench/harness/model"
)

func TestProvider_AddSearchClear(t *testing.T) {
	p := New()
	ctx := context.Background()

	require.NoError(t, p.AddContext(ctx, "scope-1", model.PreparedData{ID: "a", Content: "the cat sat on the mat"}))
	require.NoError(t, p.AddContext(ctx, "scope-1", model.PreparedData{ID: "b", Content: "completely unrelated text"}))
	require.NoError(t, p.AddContext(ctx, "scope-2", model.PreparedData{ID: "c", Content: "the cat sat"}))

	results, err := p.SearchQuery(ctx, "scope-1", "cat sat mat", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)

	require.NoError(t, p.Clear(ctx, "scope-1"))
	results, err = p.SearchQuery(ctx, "scope-1", "cat sat mat", 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = p.SearchQuery(ctx, "scope-2", "cat sat", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestProvider_SearchQuery_RespectsTopK(t *testing.T) {
	p := New()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, p.AddContext(ctx, "s", model.PreparedData{ID: string(rune('a' + i)), Content: "token match"}))
	}
	results, err := p.SearchQuery(ctx, "s", "token match", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
