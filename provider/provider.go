// Package provider defines the contract every memory/retrieval system under
// test must satisfy, and a registry of concrete adapters. Grounded on the
// teacher's Memory interface shape (pkg/memory/iface) and its scoped-key
// convention (pkg/memory/internal/redis/redis_memory.go's getRedisKey),
// generalized from chat-history storage to arbitrary ingest-then-search.
package provider

import (
	"context"

	"github.com/memorybench/harness/model"
	"github.com/memorybench/harness/registry"
)

// Provider is the contract a memory/retrieval system must implement to be
// benchmarked. Implementations are scoped per (benchmark, run) by the
// caller, not by the provider itself: AddContext/SearchQuery/Clear all take
// an explicit scope so one provider instance can safely serve concurrent
// pairs.
type Provider interface {
	// Name returns the provider's registry key.
	Name() string

	// AddContext ingests one prepared item of context under scope.
	AddContext(ctx context.Context, scope string, item model.PreparedData) error

	// SearchQuery retrieves the topK most relevant results for query within
	// scope.
	SearchQuery(ctx context.Context, scope, query string, topK int) ([]model.SearchResult, error)

	// Clear removes every context ingested under scope, so pairs don't leak
	// state into each other across runs.
	Clear(ctx context.Context, scope string) error
}

// Initializer is optionally implemented by a Provider that needs a one-time
// setup step (e.g. opening a connection pool) before first use.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Cleaner is optionally implemented by a Provider that holds resources (a
// connection, a temp directory) that must be released when the harness
// shuts down.
type Cleaner interface {
	Cleanup(ctx context.Context) error
}

// Registry holds the set of Provider adapters available to the Runner,
// keyed by provider name.
var Registry = registry.New[Provider]("providers")

// Register adds a Provider under its own Name(), returning a registry.Error
// on a name collision.
func Register(p Provider, strict bool) error {
	return Registry.Register(p.Name(), p, strict)
}

// Initialize calls p.Initialize if p implements Initializer; otherwise it is
// a no-op.
func Initialize(ctx context.Context, p Provider) error {
	if init, ok := p.(Initializer); ok {
		return init.Initialize(ctx)
	}
	return nil
}

// Cleanup calls p.Cleanup if p implements Cleaner; otherwise it is a no-op.
func Cleanup(ctx context.Context, p Provider) error {
	if cleaner, ok := p.(Cleaner); ok {
		return cleaner.Cleanup(ctx)
	}
	return nil
}
