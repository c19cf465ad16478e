// Package redisprovider adapts Redis as a hosted memory/retrieval backend:
// a scoped-key convention (membench:contexts:<scope>), a
// marshal-the-whole-list-then-SET persistence strategy, and a narrow
// client seam for testability, using the real
// github.com/redis/go-redis/v9 client.
package redisprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/memorybench/harness/model"
	"github.com/memorybench/harness/relevance"
)

// Client is the subset of *redis.Client operations the provider needs,
// narrowed to keep the dependency mockable in tests.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Provider stores ingested contexts as a single JSON-encoded list per scope.
type Provider struct {
	client Client
	ttl    time.Duration
}

// Option configures a Provider created by New.
type Option func(*Provider)

// WithTTL sets the expiry applied to each scope's Redis key; zero means no
// expiry.
func WithTTL(ttl time.Duration) Option {
	return func(p *Provider) { p.ttl = ttl }
}

// New wraps client as a Provider.
func New(client Client, opts ...Option) *Provider {
	p := &Provider{client: client}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string { return "redis" }

// Initialize verifies connectivity to Redis before the Runner begins
// ingesting, so a misconfigured connection fails fast instead of mid-run.
func (p *Provider) Initialize(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redisprovider: ping: %w", err)
	}
	return nil
}

func (p *Provider) key(scope string) string {
	return fmt.Sprintf("membench:contexts:%s", scope)
}

func (p *Provider) AddContext(ctx context.Context, scope string, item model.PreparedData) error {
	items, err := p.load(ctx, scope)
	if err != nil {
		return err
	}
	items = append(items, item)
	return p.save(ctx, scope, items)
}

func (p *Provider) SearchQuery(ctx context.Context, scope, query string, topK int) ([]model.SearchResult, error) {
	items, err := p.load(ctx, scope)
	if err != nil {
		return nil, err
	}

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

func (p *Provider) Clear(ctx context.Context, scope string) error {
	if err := p.client.Del(ctx, p.key(scope)).Err(); err != nil {
		return fmt.Errorf("redisprovider: del: %w", err)
	}
	return nil
}

func (p *Provider) load(ctx context.Context, scope string) ([]model.PreparedData, error) {
	raw, err := p.client.Get(ctx, p.key(scope)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redisprovider: get: %w", err)
	}
	var items []model.PreparedData
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("redisprovider: unmarshal: %w", err)
		}
	}
	return items, nil
}

func (p *Provider) save(ctx context.Context, scope string, items []model.PreparedData) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("redisprovider: marshal: %w", err)
	}
	if err := p.client.Set(ctx, p.key(scope), string(raw), p.ttl).Err(); err != nil {
		return fmt.Errorf("redisprovider: set: %w", err)
	}
	return nil
}
