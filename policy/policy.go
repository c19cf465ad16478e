// Package policy implements the Runner's pluggable search-expansion step:
// an optional layer consulted before provider.SearchQuery that can turn
// one question into several rounds of retrieval. Construction follows the
// functional-options style used elsewhere in this module, and sub-queries
// are derived from previously retrieved content without any new
// dependency.
package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/memorybench/harness/model"
)

// SearchFunc is the provider operation a Policy drives, matching
// provider.Provider.SearchQuery's shape without importing the provider
// package (policy must stay usable against any searchable source, not just
// a live Provider, e.g. in tests).
type SearchFunc func(ctx context.Context, query string, topK int) ([]model.SearchResult, error)

// Policy decides how many times, and with what queries, to call a
// provider's search operation for one question.
type Policy interface {
	// Name identifies the policy for logging/config, e.g. "1-hop".
	Name() string
	// Search runs question through search, returning the deduplicated
	// union of every hop's results.
	Search(ctx context.Context, question string, topK int, search SearchFunc) ([]model.SearchResult, error)
}

// SinglePolicy is the default pass-through: one search call with the
// original question, no expansion.
type SinglePolicy struct{}

func (SinglePolicy) Name() string { return "1-hop" }

func (SinglePolicy) Search(ctx context.Context, question string, topK int, search SearchFunc) ([]model.SearchResult, error) {
	return search(ctx, question, topK)
}

// MultiHopPolicy iteratively expands a question into follow-up queries
// derived from the previous hop's retrieved content, stopping once
// MaxHops rounds have run or a round turns up no results not already
// seen. SubQueriesPerHop bounds how many follow-up queries each hop
// issues.
type MultiHopPolicy struct {
	MaxHops          int
	SubQueriesPerHop int
}

func (p MultiHopPolicy) Name() string { return "H-hop" }

func (p MultiHopPolicy) maxHops() int {
	if p.MaxHops > 0 {
		return p.MaxHops
	}
	return 3
}

func (p MultiHopPolicy) subQueriesPerHop() int {
	if p.SubQueriesPerHop > 0 {
		return p.SubQueriesPerHop
	}
	return 2
}

func (p MultiHopPolicy) Search(ctx context.Context, question string, topK int, search SearchFunc) ([]model.SearchResult, error) {
	seen := make(map[string]bool)
	var union []model.SearchResult

	queries := []string{question}
	for hop := 0; hop < p.maxHops() && len(queries) > 0; hop++ {
		addedThisHop := false
		var nextQueries []string

		for _, q := range queries {
			results, err := search(ctx, q, topK)
			if err != nil {
				return nil, fmt.Errorf("policy: hop %d query %q: %w", hop, q, err)
			}
			for _, r := range results {
				if seen[r.ID] {
					continue
				}
				seen[r.ID] = true
				union = append(union, r)
				addedThisHop = true
			}
			nextQueries = append(nextQueries, deriveSubQueries(results, p.subQueriesPerHop())...)
		}

		if !addedThisHop {
			break
		}
		queries = dedupeStrings(nextQueries)
	}

	return union, nil
}

// deriveSubQueries turns the top n retrieved results of one hop into
// follow-up queries, using each result's leading line of content as a
// proxy for "what this chunk is about" absent any embedding or LLM call.
func deriveSubQueries(results []model.SearchResult, n int) []string {
	var out []string
	for i, r := range results {
		if i >= n {
			break
		}
		line := firstLine(r.Content)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func firstLine(content string) string {
	content = strings.TrimSpace(content)
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		content = content[:idx]
	}
	const maxQueryLen = 200
	if len(content) > maxQueryLen {
		content = content[:maxQueryLen]
	}
	return strings.TrimSpace(content)
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Resolve maps a `--policy` flag value ("1-hop", "H-hop", "all") to a
// concrete Policy. "all" runs MultiHopPolicy with a generous hop budget so
// it approximates exhaustive expansion without an unbounded loop.
func Resolve(name string) (Policy, error) {
	switch name {
	case "", "1-hop":
		return SinglePolicy{}, nil
	case "H-hop":
		return MultiHopPolicy{}, nil
	case "all":
		return MultiHopPolicy{MaxHops: 10, SubQueriesPerHop: 4}, nil
	default:
		return nil, fmt.Errorf("policy: unknown policy %q (available: 1-hop, H-hop, all)", name)
	}
}
