package app

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/searchmux/server/internal/module/search"
	"github.com/searchmux/server/internal/module/search/credit"
	"github.com/searchmux/server/internal/module/search/engine"
	"github.com/searchmux/server/internal/module/search/history"
	"github.com/searchmux/server/internal/module/search/strategy"
	"github.com/searchmux/server/internal/shared/cache"
	"github.com/searchmux/server/internal/shared/config"
	"github.com/searchmux/server/internal/shared/database"
	"github.com/searchmux/server/internal/shared/logger"
	"github.com/searchmux/server/internal/shared/metrics"
	"github.com/searchmux/server/internal/shared/middleware"
)

// App wires configuration, shared infrastructure and the search module
// into a runnable HTTP server.
type App struct {
	cfg      *config.Config
	log      *logger.Logger
	zlog     *zap.Logger
	redis    redis.UniversalClient
	db       *gorm.DB
	search   *search.Module
	registry *prometheus.Registry
	server   *http.Server
}

// New builds the application from configuration.
func New(cfg *config.Config) (*App, error) {
	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	}
	log := logger.New(logCfg)

	zlog, err := logger.NewZapLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("create zap logger: %w", err)
	}

	a := &App{cfg: cfg, log: log, zlog: zlog}

	if cfg.Redis.Address != "" {
		client, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = client
	}

	var hist history.Repository
	if cfg.Database.Enabled {
		db, err := database.New(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.db = db

		hist, err = history.NewRepository(db)
		if err != nil {
			return nil, fmt.Errorf("init history repository: %w", err)
		}
	}

	provider, err := a.stateProvider()
	if err != nil {
		return nil, err
	}

	m, reg := metrics.New("searchmux")
	a.registry = reg

	mod, err := search.NewModule(&search.ModuleConfig{
		Engines:       engineConfigs(cfg.Engines),
		StateProvider: provider,
		HealthConfig: &engine.HealthMonitorConfig{
			FailureThreshold:    cfg.Search.FailureThreshold,
			Timeout:             cfg.Search.BreakerTimeout,
			MaxHalfOpenRequests: 1,
		},
		Metrics:       m,
		History:       hist,
		Logger:        zlog,
		DefaultPolicy: strategy.Policy(cfg.Search.Policy),
	})
	if err != nil {
		return nil, fmt.Errorf("init search module: %w", err)
	}
	a.search = mod

	a.server = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      a.router(m),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return a, nil
}

// stateProvider selects the credit state backend.
func (a *App) stateProvider() (credit.StateProvider, error) {
	switch a.cfg.Search.StateBackend {
	case "redis":
		if a.redis == nil {
			return nil, fmt.Errorf("state_backend is redis but redis.address is not configured")
		}
		return credit.NewRedisStateProvider(a.redis, a.cfg.Search.StateKey), nil
	default:
		return credit.NewFileStateProvider(a.cfg.Search.StatePath), nil
	}
}

// router builds the gin engine with shared middleware and routes.
func (a *App) router(m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.Recovery(a.log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.log))
	r.Use(middleware.CORS())
	r.Use(middleware.Metrics(m))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	a.search.Handler().RegisterRoutes(api)

	return r
}

// Start initializes the search module and serves HTTP until the server
// is shut down.
func (a *App) Start(ctx context.Context) error {
	if err := a.search.Start(ctx); err != nil {
		return fmt.Errorf("start search module: %w", err)
	}

	a.log.Info("server starting", logger.String("address", a.cfg.Server.Address))
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server, persists credit state and
// closes infrastructure clients.
func (a *App) Stop(ctx context.Context) error {
	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error("server shutdown", logger.Err(err))
	}

	if err := a.search.Stop(ctx); err != nil {
		a.log.Error("persist credit state", logger.Err(err))
	}

	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.log.Error("close database", logger.Err(err))
		}
	}
	if a.redis != nil {
		if err := cache.Close(a.redis); err != nil {
			a.log.Error("close redis", logger.Err(err))
		}
	}

	_ = a.zlog.Sync()
	return nil
}

// engineConfigs converts configuration entries to engine configs,
// preserving their order.
func engineConfigs(entries []config.EngineConfig) []engine.Config {
	out := make([]engine.Config, 0, len(entries))
	for _, e := range entries {
		out = append(out, engine.Config{
			ID:            engine.ID(e.ID),
			Type:          e.Type,
			Name:          e.Name,
			MonthlyQuota:  e.MonthlyQuota,
			CreditCost:    e.CreditCost,
			CredentialEnv: e.CredentialEnv,
			BaseURL:       e.BaseURL,
		})
	}
	return out
}
