package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Search: SearchConfig{StateBackend: "file"},
		Engines: []EngineConfig{
			{ID: "tavily", MonthlyQuota: 1000, CreditCost: 1},
			{ID: "brave", MonthlyQuota: 2000, CreditCost: 1},
		},
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("missing engine id", func(t *testing.T) {
		cfg := validConfig()
		cfg.Engines[0].ID = ""
		assert.ErrorContains(t, cfg.Validate(), "id required")
	})

	t.Run("duplicate engine id", func(t *testing.T) {
		cfg := validConfig()
		cfg.Engines[1].ID = "tavily"
		assert.ErrorContains(t, cfg.Validate(), "duplicate engine id")
	})

	t.Run("negative quota", func(t *testing.T) {
		cfg := validConfig()
		cfg.Engines[0].MonthlyQuota = -1
		assert.ErrorContains(t, cfg.Validate(), "monthly_quota")
	})

	t.Run("negative cost", func(t *testing.T) {
		cfg := validConfig()
		cfg.Engines[0].CreditCost = -1
		assert.ErrorContains(t, cfg.Validate(), "credit_cost")
	})

	t.Run("bad state backend", func(t *testing.T) {
		cfg := validConfig()
		cfg.Search.StateBackend = "s3"
		assert.ErrorContains(t, cfg.Validate(), "state_backend")
	})

	t.Run("redis backend allowed", func(t *testing.T) {
		cfg := validConfig()
		cfg.Search.StateBackend = "redis"
		assert.NoError(t, cfg.Validate())
	})
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := &DatabaseConfig{
		Host:     "db.local",
		Port:     5433,
		User:     "app",
		Password: "secret",
		Database: "searchmux",
		SSLMode:  "require",
	}
	assert.Equal(t,
		"host=db.local port=5433 user=app password=secret dbname=searchmux sslmode=require",
		cfg.DSN(),
	)
}

func TestEngineTypeDefaults(t *testing.T) {
	// Engines default their implementation type to their id; Validate does
	// not resolve types, the registry does.
	cfg := validConfig()
	cfg.Engines = append(cfg.Engines, EngineConfig{ID: "tavily-eu", Type: "tavily"})
	assert.NoError(t, cfg.Validate())
}
