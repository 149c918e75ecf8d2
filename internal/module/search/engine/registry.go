package engine

import (
	"fmt"
	"sync"
)

// Registry provides in-memory access to the configured engines, keyed by
// engine id. It is an explicit, owned object: construct one per process
// (or per test) instead of reaching for a package-level instance.
type Registry struct {
	mu      sync.RWMutex
	engines map[ID]Engine
	order   []ID
	configs map[ID]Config
}

// NewRegistry builds a registry from an ordered list of engine configs.
func NewRegistry(configs []Config) (*Registry, error) {
	r := &Registry{
		engines: make(map[ID]Engine, len(configs)),
		configs: make(map[ID]Config, len(configs)),
	}

	for _, cfg := range configs {
		eng, err := build(cfg)
		if err != nil {
			return nil, err
		}
		if _, exists := r.engines[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate engine id %q", cfg.ID)
		}
		r.engines[cfg.ID] = eng
		r.configs[cfg.ID] = cfg
		r.order = append(r.order, cfg.ID)
	}

	return r, nil
}

// build creates an engine implementation for the config.
func build(cfg Config) (Engine, error) {
	switch cfg.EngineType() {
	case "tavily":
		return NewTavily(cfg), nil
	case "brave":
		return NewBrave(cfg), nil
	case "searxng":
		return NewSearXNG(cfg), nil
	case "linkup":
		return NewLinkup(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngineType, cfg.EngineType())
	}
}

// Register adds or replaces an engine. Intended for tests and custom
// backends; configuration-driven engines come from NewRegistry.
func (r *Registry) Register(cfg Config, eng Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.engines[cfg.ID]; !exists {
		r.order = append(r.order, cfg.ID)
	}
	r.engines[cfg.ID] = eng
	r.configs[cfg.ID] = cfg
}

// Get returns an engine by id.
func (r *Registry) Get(id ID) (Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	eng, ok := r.engines[id]
	return eng, ok
}

// Config returns the config for an engine id.
func (r *Registry) Config(id ID) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[id]
	return cfg, ok
}

// Configs returns all engine configs in configuration order.
func (r *Registry) Configs() []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	configs := make([]Config, 0, len(r.order))
	for _, id := range r.order {
		configs = append(configs, r.configs[id])
	}
	return configs
}

// Metadata returns static metadata for every engine in configuration order.
func (r *Registry) Metadata() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta := make([]Metadata, 0, len(r.order))
	for _, id := range r.order {
		meta = append(meta, r.engines[id].Metadata())
	}
	return meta
}
