package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memorybench/harness/model"
)

func TestSinglePolicy_OneCall(t *testing.T) {
	calls := 0
	search := func(ctx context.Context, query string, topK int) ([]model.SearchResult, error) {
		calls++
		return []model.SearchResult{{ID: "a"}}, nil
	}
	results, err := SinglePolicy{}.Search(context.Background(), "question", 5, search)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, results, 1)
}

func TestMultiHopPolicy_StopsWhenNoNewResults(t *testing.T) {
	calls := 0
	search := func(ctx context.Context, query string, topK int) ([]model.SearchResult, error) {
		calls++
		return []model.SearchResult{{ID: "fixed", Content: "same content every time"}}, nil
	}
	p := MultiHopPolicy{MaxHops: 5, SubQueriesPerHop: 2}
	results, err := p.Search(context.Background(), "question", 5, search)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	// First hop finds "fixed" and derives a follow-up query from its
	// content; the second hop returns the same id again (no new results),
	// so the policy stops instead of looping MaxHops times.
	assert.Equal(t, 2, calls)
}

func TestMultiHopPolicy_AccumulatesAcrossHops(t *testing.T) {
	hop := 0
	search := func(ctx context.Context, query string, topK int) ([]model.SearchResult, error) {
		hop++
		if hop == 1 {
			return []model.SearchResult{{ID: "a", Content: "first hop content"}}, nil
		}
		return []model.SearchResult{{ID: "b", Content: "second hop content"}}, nil
	}
	p := MultiHopPolicy{MaxHops: 2, SubQueriesPerHop: 1}
	results, err := p.Search(context.Background(), "question", 5, search)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "b", results[1].ID)
}

func TestResolve(t *testing.T) {
	p, err := Resolve("1-hop")
	require.NoError(t, err)
	assert.Equal(t, "1-hop", p.Name())

	p, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "1-hop", p.Name())

	p, err = Resolve("H-hop")
	require.NoError(t, err)
	assert.Equal(t, "H-hop", p.Name())

	_, err = Resolve("bogus")
	assert.Error(t, err)
}

func TestDeriveSubQueries_SkipsEmptyLines(t *testing.T) {
	results := []model.SearchResult{{Content: "\n\nsome text"}, {Content: "more text"}}
	queries := deriveSubQueries(results, 5)
	assert.Equal(t, []string{"some text", "more text"}, queries)
}
