// Package source defines the adapter contract for external job-listing
// origins and the registry that makes adapters pluggable by kind.
package source

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"jobharvest/internal/config"
	"jobharvest/internal/domain"
)

// Adapter fetches raw listings from one configured source. A returned error
// marks the source failed for the run; the coordinator never lets it escape
// the per-source boundary.
type Adapter interface {
	SourceID() string
	Fetch(ctx context.Context, since *time.Time) ([]domain.Listing, error)
}

// Factory builds an adapter from its source config and the shared client.
type Factory func(cfg config.Source, client *Client) (Adapter, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes an adapter kind available to New. Adapter files call it
// from init, like database/sql drivers.
func Register(kind string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[kind]; dup {
		panic("source: Register called twice for kind " + kind)
	}
	registry[kind] = f
}

// Kinds lists the registered adapter kinds, sorted.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New builds the adapter for one source config.
func New(cfg config.Source, client *Client) (Adapter, error) {
	registryMu.RLock()
	f, ok := registry[cfg.Kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("source %q: unknown adapter kind %q", cfg.ID, cfg.Kind)
	}
	return f(cfg, client)
}
