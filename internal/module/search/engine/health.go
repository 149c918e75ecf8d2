package engine

import (
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// HealthMonitorConfig contains circuit breaker configuration.
type HealthMonitorConfig struct {
	FailureThreshold    uint32
	Timeout             time.Duration
	MaxHalfOpenRequests uint32
}

// DefaultHealthMonitorConfig returns the default health monitor configuration.
func DefaultHealthMonitorConfig() *HealthMonitorConfig {
	return &HealthMonitorConfig{
		FailureThreshold:    5,
		Timeout:             60 * time.Second,
		MaxHalfOpenRequests: 1,
	}
}

// HealthMonitor wraps every engine call in a per-engine circuit breaker.
// An engine whose breaker is open is reported unavailable so the selection
// layer can skip it without paying for a doomed network call.
type HealthMonitor struct {
	mu       sync.RWMutex
	breakers map[ID]*gobreaker.CircuitBreaker[*Response]
	config   *HealthMonitorConfig
	logger   *zap.Logger
}

// NewHealthMonitor creates breakers for every configured engine.
func NewHealthMonitor(configs []Config, cfg *HealthMonitorConfig, logger *zap.Logger) *HealthMonitor {
	if cfg == nil {
		cfg = DefaultHealthMonitorConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &HealthMonitor{
		breakers: make(map[ID]*gobreaker.CircuitBreaker[*Response], len(configs)),
		config:   cfg,
		logger:   logger,
	}
	for _, c := range configs {
		m.breakers[c.ID] = m.newBreaker(c.ID)
	}
	return m
}

func (m *HealthMonitor) newBreaker(id ID) *gobreaker.CircuitBreaker[*Response] {
	threshold := m.config.FailureThreshold
	return gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        string(id),
		MaxRequests: m.config.MaxHalfOpenRequests,
		Timeout:     m.config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.logger.Warn("engine breaker state change",
				zap.String("engine", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Execute runs fn through the engine's circuit breaker.
func (m *HealthMonitor) Execute(id ID, fn func() (*Response, error)) (*Response, error) {
	m.mu.RLock()
	cb, ok := m.breakers[id]
	m.mu.RUnlock()
	if !ok {
		// Unregistered engine, run unguarded.
		return fn()
	}
	return cb.Execute(fn)
}

// Available reports whether the engine's breaker currently admits calls.
func (m *HealthMonitor) Available(id ID) bool {
	m.mu.RLock()
	cb, ok := m.breakers[id]
	m.mu.RUnlock()
	if !ok {
		return true
	}
	return cb.State() != gobreaker.StateOpen
}
