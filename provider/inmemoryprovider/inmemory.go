// Package inmemoryprovider implements a reference Provider that keeps
// ingested contexts in a process-local map and ranks search results by
// token-overlap similarity: a mutex-guarded map of documents, a pure
// numeric similarity function, and top-k selection by sorting, with
// cosine-over-embeddings replaced by Jaccard-over-tokens since this
// harness does not assume providers expose embeddings.
package inmemoryprovider

import (
	"context"
	"sort"
	"sync"

	"github.com/memorybench/harness/model"
	"github.com/memorybench/harness/relevance"
)

// Provider is a process-local, non-persistent reference implementation of
// provider.Provider. It exists so the harness and its tests can run without
// any external dependency, and as a baseline other adapters can be compared
// against.
type Provider struct {
	mu    sync.RWMutex
	byScope map[string][]model.PreparedData
}

// New returns a ready-to-use in-memory Provider.
func New() *Provider {
	return &Provider{byScope: make(map[string][]model.PreparedData)}
}

func (p *Provider) Name() string { return "inmemory" }

func (p *Provider) AddContext(_ context.Context, scope string, item model.PreparedData) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byScope[scope] = append(p.byScope[scope], item)
	return nil
}

func (p *Provider) SearchQuery(_ context.Context, scope, query string, topK int) ([]model.SearchResult, error) {
	p.mu.RLock()
	items := append([]model.PreparedData(nil), p.byScope[scope]...)
	p.mu.RUnlock()

	scored := make([]model.SearchResult, 0, len(items))
	for _, item := range items {
		score := relevance.JaccardTokens(query, item.Content)
		scored = append(scored, model.SearchResult{
			ID:       item.ID,
			Content:  item.Content,
			Score:    score,
			Metadata: item.Metadata,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if topK > 0 && topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

func (p *Provider) Clear(_ context.Context, scope string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.byScope, scope)
	return nil
}
