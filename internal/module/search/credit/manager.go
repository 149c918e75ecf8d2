package credit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/searchmux/server/internal/module/search/engine"
)

// Errors the ledger can produce.
var (
	// ErrUnknownEngine means the operation referenced an engine id absent
	// from configuration.
	ErrUnknownEngine = errors.New("unknown engine")

	// ErrNoCreditRecord means a configured engine was charged before the
	// manager was initialized.
	ErrNoCreditRecord = errors.New("no credit record")

	// ErrInsufficientCredits means the charge would exceed the engine's
	// monthly quota. The ledger is left untouched.
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// Manager is the authoritative, engine-keyed usage ledger. It applies the
// monthly reset rule on initialization and serializes all mutation behind
// a single mutex so concurrent charges can never overspend a quota.
//
// Charging mutates only the in-memory ledger; persistence is a separate,
// explicit operation so a failed charge never touches the backing store.
type Manager struct {
	mu      sync.RWMutex
	state   State // nil until Initialize
	configs []engine.Config
	byID    map[engine.ID]engine.Config
	store   StateProvider
	logger  *zap.Logger
}

// NewManager creates an uninitialized manager for the configured engines.
func NewManager(configs []engine.Config, store StateProvider, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	byID := make(map[engine.ID]engine.Config, len(configs))
	for _, cfg := range configs {
		byID[cfg.ID] = cfg
	}

	return &Manager{
		configs: configs,
		byID:    byID,
		store:   store,
		logger:  logger,
	}
}

// Initialize loads persisted state, applies the monthly reset rule per
// configured engine and materializes a zero-usage record for engines with
// no stored record. Load failures propagate; there is no silent fallback
// to an empty ledger at this layer.
func (m *Manager) Initialize(ctx context.Context) error {
	loaded, err := m.store.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("load credit state: %w", err)
	}

	now := time.Now().UTC()
	state := loaded.Clone()

	for _, cfg := range m.configs {
		key := string(cfg.ID)
		rec, ok := state[key]
		if !ok {
			state[key] = Record{Used: 0, LastReset: now}
			continue
		}
		if !sameMonth(rec.LastReset.UTC(), now) {
			m.logger.Info("monthly credit reset",
				zap.String("engine", key),
				zap.Int("previous_used", rec.Used),
				zap.Time("last_reset", rec.LastReset),
			)
			state[key] = Record{Used: 0, LastReset: now}
		}
	}

	m.mu.Lock()
	m.state = state
	m.mu.Unlock()

	return nil
}

// Charge attempts to consume the engine's cost-per-search from its
// remaining monthly credit. A zero-cost engine always succeeds without
// mutating usage. A rejected charge leaves the ledger untouched.
func (m *Manager) Charge(id engine.ID) error {
	cfg, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEngine, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.state[string(id)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoCreditRecord, id)
	}

	cost := cfg.CreditCost
	if cost == 0 {
		// Free engines never report usage.
		return nil
	}

	if rec.Used+cost > cfg.MonthlyQuota {
		return fmt.Errorf("%w: engine %s used %d of %d, cost %d",
			ErrInsufficientCredits, id, rec.Used, cfg.MonthlyQuota, cost)
	}

	rec.Used += cost
	m.state[string(id)] = rec
	return nil
}

// ChargeAndSave charges the engine and, only if the charge succeeded,
// persists the full ledger. A persistence failure propagates, but the
// in-memory charge has already been applied (at-least-once accounting).
func (m *Manager) ChargeAndSave(ctx context.Context, id engine.ID) error {
	if err := m.Charge(id); err != nil {
		return err
	}
	return m.SaveState(ctx)
}

// HasSufficientCredits reports whether one search on the engine is
// currently affordable. The check is cost-aware: it compares the engine's
// full cost-per-search against the remaining credit. Unknown engines are
// never affordable; a configured engine with no record yet (manager not
// initialized) is treated as having its full quota available.
func (m *Manager) HasSufficientCredits(id engine.ID) bool {
	cfg, ok := m.byID[id]
	if !ok {
		return false
	}
	if cfg.CreditCost == 0 {
		return true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.state[string(id)]
	if !ok {
		return cfg.CreditCost <= cfg.MonthlyQuota
	}
	return cfg.MonthlyQuota-rec.Used >= cfg.CreditCost
}

// Snapshot returns a read-only projection of one engine's credit state.
func (m *Manager) Snapshot(id engine.ID) (Snapshot, error) {
	cfg, ok := m.byID[id]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownEngine, id)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec := m.state[string(id)]
	return newSnapshot(id, cfg.MonthlyQuota, rec.Used), nil
}

// Snapshots returns snapshots for every configured engine, in
// configuration order. Unconfigured keys in the persisted state are not
// exposed here.
func (m *Manager) Snapshots() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshots := make([]Snapshot, 0, len(m.configs))
	for _, cfg := range m.configs {
		rec := m.state[string(cfg.ID)]
		snapshots = append(snapshots, newSnapshot(cfg.ID, cfg.MonthlyQuota, rec.Used))
	}
	return snapshots
}

// SaveState persists the full current ledger unconditionally. The copy is
// taken under the read lock and written after release so persistence never
// interleaves with an in-flight mutation.
func (m *Manager) SaveState(ctx context.Context) error {
	m.mu.RLock()
	snapshot := m.state.Clone()
	m.mu.RUnlock()

	return m.store.SaveState(ctx, snapshot)
}
