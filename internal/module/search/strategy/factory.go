package strategy

import (
	"sync"

	"github.com/searchmux/server/internal/module/search/engine"
)

// Factory creates and caches strategy instances by policy key. It is an
// explicit, owned object passed to its consumers; its lifecycle (create,
// reset, discard) belongs to the caller, not to package-level state.
type Factory struct {
	mu      sync.Mutex
	configs []engine.Config
	cache   map[Policy]Strategy
}

// NewFactory creates a strategy factory for the configured engines.
func NewFactory(configs []engine.Config) *Factory {
	return &Factory{
		configs: configs,
		cache:   make(map[Policy]Strategy),
	}
}

// Get returns the cached strategy for the policy, creating it on first
// use. Unknown policy keys fail.
func (f *Factory) Get(p Policy) (Strategy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.cache[p]; ok {
		return s, nil
	}

	s, err := newStrategy(p, f.configs)
	if err != nil {
		return nil, err
	}
	f.cache[p] = s
	return s, nil
}

// Reset discards all cached strategy instances and their accumulated
// state (e.g. round-robin position), returning the factory to its default
// configuration. Used for test isolation and configuration reloads.
func (f *Factory) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache = make(map[Policy]Strategy)
}
