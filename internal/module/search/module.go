package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/searchmux/server/internal/module/search/credit"
	"github.com/searchmux/server/internal/module/search/engine"
	"github.com/searchmux/server/internal/module/search/history"
	"github.com/searchmux/server/internal/module/search/strategy"
	"github.com/searchmux/server/internal/shared/metrics"
)

// Module bundles the meta-search components: engine registry, credit
// manager, strategy factory, health monitor, service and HTTP handler.
type Module struct {
	registry *engine.Registry
	credits  *credit.Manager
	factory  *strategy.Factory
	health   *engine.HealthMonitor
	service  *Service
	handler  *Handler
}

// ModuleConfig contains module dependencies.
type ModuleConfig struct {
	// Engines is the ordered engine configuration.
	Engines []engine.Config

	// StateProvider persists the credit ledger.
	StateProvider credit.StateProvider

	// HealthConfig tunes per-engine circuit breaking. Nil uses defaults.
	HealthConfig *engine.HealthMonitorConfig

	// Metrics is optional.
	Metrics *metrics.Metrics

	// History is optional; nil disables the search history log.
	History history.Repository

	// Logger is the module logger.
	Logger *zap.Logger

	// DefaultPolicy is the selection policy used when a request names none.
	DefaultPolicy strategy.Policy
}

// NewModule creates the search module.
func NewModule(cfg *ModuleConfig) (*Module, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	registry, err := engine.NewRegistry(cfg.Engines)
	if err != nil {
		return nil, err
	}

	credits := credit.NewManager(cfg.Engines, cfg.StateProvider, logger.Named("credit"))
	factory := strategy.NewFactory(cfg.Engines)
	health := engine.NewHealthMonitor(cfg.Engines, cfg.HealthConfig, logger.Named("health"))

	service := NewService(&ServiceConfig{
		Registry:      registry,
		Credits:       credits,
		Factory:       factory,
		Health:        health,
		Metrics:       cfg.Metrics,
		History:       cfg.History,
		Logger:        logger.Named("service"),
		DefaultPolicy: cfg.DefaultPolicy,
	})

	return &Module{
		registry: registry,
		credits:  credits,
		factory:  factory,
		health:   health,
		service:  service,
		handler:  NewHandler(service, credits, registry, cfg.History),
	}, nil
}

// Start initializes the credit ledger from persisted state.
func (m *Module) Start(ctx context.Context) error {
	return m.credits.Initialize(ctx)
}

// Stop persists the credit ledger. Save failures are returned so the
// caller can log them; shutdown proceeds regardless.
func (m *Module) Stop(ctx context.Context) error {
	return m.credits.SaveState(ctx)
}

// Handler returns the module's HTTP handler.
func (m *Module) Handler() *Handler { return m.handler }

// Service returns the search service.
func (m *Module) Service() *Service { return m.service }

// Credits returns the credit manager.
func (m *Module) Credits() *credit.Manager { return m.credits }

// Factory returns the strategy factory.
func (m *Module) Factory() *strategy.Factory { return m.factory }
