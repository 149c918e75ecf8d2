// Package strategy decides which engine(s) serve a search request. A
// strategy consumes credit snapshots and returns an ordered fallback
// sequence of eligible engines; the caller tries them in order.
package strategy

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/searchmux/server/internal/module/search/credit"
	"github.com/searchmux/server/internal/module/search/engine"
)

// Policy keys a selection strategy.
type Policy string

const (
	// PolicyPriority selects engines in configuration order.
	PolicyPriority Policy = "priority"

	// PolicyCostMin prefers the cheapest eligible engine.
	PolicyCostMin Policy = "cost_min"

	// PolicyRoundRobin rotates among eligible engines.
	PolicyRoundRobin Policy = "round_robin"
)

// Errors the selection layer can produce.
var (
	// ErrNoEligibleEngine means no configured engine has remaining credit.
	ErrNoEligibleEngine = errors.New("no eligible engine")

	// ErrUnknownPolicy means the factory was asked for an unregistered
	// policy key.
	ErrUnknownPolicy = errors.New("unknown selection policy")
)

// Strategy picks engines for a request from current credit snapshots.
type Strategy interface {
	// Name returns the policy key.
	Name() string

	// Select returns an ordered fallback sequence of eligible engines.
	// Engines whose credit is exhausted are never selected.
	Select(snapshots []credit.Snapshot) ([]engine.ID, error)
}

// eligible filters out exhausted engines, preserving snapshot order.
func eligible(snapshots []credit.Snapshot) []credit.Snapshot {
	out := make([]credit.Snapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if !s.Exhausted {
			out = append(out, s)
		}
	}
	return out
}

func ids(snapshots []credit.Snapshot) []engine.ID {
	out := make([]engine.ID, len(snapshots))
	for i, s := range snapshots {
		out[i] = s.EngineID
	}
	return out
}

// --- Priority strategy ---

// PriorityStrategy selects eligible engines in configuration order.
type PriorityStrategy struct{}

// NewPriorityStrategy creates a priority strategy.
func NewPriorityStrategy() *PriorityStrategy {
	return &PriorityStrategy{}
}

// Name returns the policy key.
func (s *PriorityStrategy) Name() string { return string(PolicyPriority) }

// Select returns eligible engines in snapshot (configuration) order.
func (s *PriorityStrategy) Select(snapshots []credit.Snapshot) ([]engine.ID, error) {
	candidates := eligible(snapshots)
	if len(candidates) == 0 {
		return nil, ErrNoEligibleEngine
	}
	return ids(candidates), nil
}

// --- Cost-minimizing strategy ---

// CostMinStrategy prefers the engine with the lowest cost per search,
// breaking ties by configuration order.
type CostMinStrategy struct {
	costs map[engine.ID]int
}

// NewCostMinStrategy creates a cost-minimizing strategy from the engine
// configs.
func NewCostMinStrategy(configs []engine.Config) *CostMinStrategy {
	costs := make(map[engine.ID]int, len(configs))
	for _, cfg := range configs {
		costs[cfg.ID] = cfg.CreditCost
	}
	return &CostMinStrategy{costs: costs}
}

// Name returns the policy key.
func (s *CostMinStrategy) Name() string { return string(PolicyCostMin) }

// Select returns eligible engines sorted by ascending cost.
func (s *CostMinStrategy) Select(snapshots []credit.Snapshot) ([]engine.ID, error) {
	candidates := eligible(snapshots)
	if len(candidates) == 0 {
		return nil, ErrNoEligibleEngine
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return s.costs[candidates[i].EngineID] < s.costs[candidates[j].EngineID]
	})
	return ids(candidates), nil
}

// --- Round-robin strategy ---

// RoundRobinStrategy rotates the starting engine among eligible engines
// on each call; the rest follow in order as fallbacks.
type RoundRobinStrategy struct {
	mu   sync.Mutex
	next int
}

// NewRoundRobinStrategy creates a round-robin strategy.
func NewRoundRobinStrategy() *RoundRobinStrategy {
	return &RoundRobinStrategy{}
}

// Name returns the policy key.
func (s *RoundRobinStrategy) Name() string { return string(PolicyRoundRobin) }

// Select returns eligible engines rotated by an advancing offset.
func (s *RoundRobinStrategy) Select(snapshots []credit.Snapshot) ([]engine.ID, error) {
	candidates := eligible(snapshots)
	if len(candidates) == 0 {
		return nil, ErrNoEligibleEngine
	}

	s.mu.Lock()
	offset := s.next % len(candidates)
	s.next++
	s.mu.Unlock()

	ordered := make([]engine.ID, 0, len(candidates))
	for i := 0; i < len(candidates); i++ {
		ordered = append(ordered, candidates[(offset+i)%len(candidates)].EngineID)
	}
	return ordered, nil
}

// newStrategy constructs a strategy for the policy key.
func newStrategy(p Policy, configs []engine.Config) (Strategy, error) {
	switch p {
	case PolicyPriority:
		return NewPriorityStrategy(), nil
	case PolicyCostMin:
		return NewCostMinStrategy(configs), nil
	case PolicyRoundRobin:
		return NewRoundRobinStrategy(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, p)
	}
}
