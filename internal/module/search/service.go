// Package search wires the meta-search pipeline: strategy-driven engine
// selection, credit accounting and the HTTP surface on top of them.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/searchmux/server/internal/module/search/credit"
	"github.com/searchmux/server/internal/module/search/engine"
	"github.com/searchmux/server/internal/module/search/history"
	"github.com/searchmux/server/internal/module/search/strategy"
	"github.com/searchmux/server/internal/shared/metrics"
)

// ErrEmptyQuery means the request carried no query text.
var ErrEmptyQuery = errors.New("empty query")

// Request is one meta-search request.
type Request struct {
	Query      string          `json:"query"`
	Limit      *int            `json:"limit,omitempty"`
	IncludeRaw bool            `json:"include_raw,omitempty"`
	Engine     engine.ID       `json:"engine,omitempty"`
	Policy     strategy.Policy `json:"policy,omitempty"`
}

// Service dispatches search requests: it asks the strategy layer for an
// ordered candidate sequence, runs candidates through their circuit
// breakers, and charges credits only after a response was normalized.
// Provider-call failures fall back to the next candidate; ledger failures
// propagate to the caller.
type Service struct {
	registry      *engine.Registry
	credits       *credit.Manager
	factory       *strategy.Factory
	health        *engine.HealthMonitor
	metrics       *metrics.Metrics
	history       history.Repository // nil when history is disabled
	logger        *zap.Logger
	defaultPolicy strategy.Policy
}

// ServiceConfig contains service dependencies.
type ServiceConfig struct {
	Registry      *engine.Registry
	Credits       *credit.Manager
	Factory       *strategy.Factory
	Health        *engine.HealthMonitor
	Metrics       *metrics.Metrics
	History       history.Repository
	Logger        *zap.Logger
	DefaultPolicy strategy.Policy
}

// NewService creates a search service.
func NewService(cfg *ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := cfg.DefaultPolicy
	if policy == "" {
		policy = strategy.PolicyPriority
	}

	return &Service{
		registry:      cfg.Registry,
		credits:       cfg.Credits,
		factory:       cfg.Factory,
		health:        cfg.Health,
		metrics:       cfg.Metrics,
		history:       cfg.History,
		logger:        logger,
		defaultPolicy: policy,
	}
}

// Search serves one request, falling back through the candidate sequence
// until an engine succeeds.
func (s *Service) Search(ctx context.Context, req *Request) (*engine.Response, error) {
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}

	candidates, err := s.candidates(req)
	if err != nil {
		return nil, err
	}

	q := &engine.Query{
		Text:       req.Query,
		Limit:      req.Limit,
		IncludeRaw: req.IncludeRaw,
	}

	var lastErr error
	for _, id := range candidates {
		if s.health != nil && !s.health.Available(id) {
			s.logger.Debug("skipping engine with open breaker", zap.String("engine", string(id)))
			continue
		}

		eng, ok := s.registry.Get(id)
		if !ok {
			continue
		}

		resp, err := s.dispatch(ctx, id, eng, q)
		if err != nil {
			s.logger.Warn("engine search failed, trying next candidate",
				zap.String("engine", string(id)),
				zap.Error(err),
			)
			if s.metrics != nil {
				s.metrics.SearchFallbacks.WithLabelValues(string(id)).Inc()
			}
			lastErr = err
			continue
		}

		// Charge only after a normalized response; ledger and
		// persistence failures are caller-visible, never retried here.
		if err := s.credits.ChargeAndSave(ctx, id); err != nil {
			return nil, err
		}
		cost := s.observeCharge(id)
		s.recordHistory(ctx, id, req.Query, len(resp.Results), resp.TookMs, cost, true)

		return resp, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all candidate engines failed: %w", lastErr)
	}
	return nil, strategy.ErrNoEligibleEngine
}

// candidates resolves the ordered engine sequence for the request. An
// explicit engine bypasses the strategy but is still charged normally.
func (s *Service) candidates(req *Request) ([]engine.ID, error) {
	if req.Engine != "" {
		if _, ok := s.registry.Get(req.Engine); !ok {
			return nil, fmt.Errorf("%w: %s", credit.ErrUnknownEngine, req.Engine)
		}
		return []engine.ID{req.Engine}, nil
	}

	policy := req.Policy
	if policy == "" {
		policy = s.defaultPolicy
	}

	strat, err := s.factory.Get(policy)
	if err != nil {
		return nil, err
	}
	return strat.Select(s.credits.Snapshots())
}

// dispatch runs one breaker-guarded engine call and records its metrics
// and history row.
func (s *Service) dispatch(ctx context.Context, id engine.ID, eng engine.Engine, q *engine.Query) (*engine.Response, error) {
	call := func() (*engine.Response, error) {
		return eng.Search(ctx, q)
	}

	start := time.Now()
	var resp *engine.Response
	var err error
	if s.health != nil {
		resp, err = s.health.Execute(id, call)
	} else {
		resp, err = call()
	}

	if s.metrics != nil {
		s.metrics.RecordSearch(string(id), err, time.Since(start))
	}
	if err != nil {
		s.recordHistory(ctx, id, q.Text, 0, time.Since(start).Milliseconds(), 0, false)
		return nil, err
	}
	return resp, nil
}

// observeCharge updates credit metrics after a successful charge and
// returns the cost that was charged.
func (s *Service) observeCharge(id engine.ID) int {
	cost := 0
	if cfg, ok := s.registry.Config(id); ok {
		cost = cfg.CreditCost
	}

	if s.metrics != nil {
		if cost > 0 {
			s.metrics.CreditsChargedTotal.WithLabelValues(string(id)).Add(float64(cost))
		}
		if snap, err := s.credits.Snapshot(id); err == nil {
			s.metrics.CreditsRemaining.WithLabelValues(string(id)).Set(float64(snap.Remaining))
		}
	}

	return cost
}

// recordHistory writes a best-effort history row.
func (s *Service) recordHistory(ctx context.Context, id engine.ID, query string, results int, tookMs int64, cost int, success bool) {
	if s.history == nil {
		return
	}
	rec := &history.Record{
		EngineID:       string(id),
		Query:          query,
		ResultCount:    results,
		TookMs:         tookMs,
		CreditsCharged: cost,
		Success:        success,
	}
	if err := s.history.Create(ctx, rec); err != nil {
		s.logger.Warn("failed to record search history", zap.Error(err))
	}
}
