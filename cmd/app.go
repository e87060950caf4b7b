package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	orchestratorx "github.com/tanpawarit/chative-support/agent/agents/orchestrator"
	"github.com/tanpawarit/chative-support/agent/agents/specialist"
	llmx "github.com/tanpawarit/chative-support/agent/llm"
	metricsx "github.com/tanpawarit/chative-support/agent/metrics"
	storex "github.com/tanpawarit/chative-support/agent/store"
	"github.com/tanpawarit/chative-support/agent/store/bunstore"
	"github.com/tanpawarit/chative-support/agent/store/memstore"
	"github.com/tanpawarit/chative-support/api"
	configx "github.com/tanpawarit/chative-support/pkg/config"
	databasex "github.com/tanpawarit/chative-support/pkg/database"
)

const (
	storeMemory   = "memory"
	storePostgres = "postgres"
)

var _ api.Service = (*orchestratorx.Orchestrator)(nil)

type AppConfig struct {
	Store        string        `envconfig:"STORE" default:"memory"`
	FAQCacheSize int           `envconfig:"FAQ_CACHE_SIZE" split_words:"true" default:"128"`
	FAQCacheTTL  time.Duration `envconfig:"FAQ_CACHE_TTL" split_words:"true" default:"5m"`
}

func loadAppConfig() (*AppConfig, error) {
	cfg, err := configx.New[AppConfig]("APP")
	if err != nil {
		return nil, fmt.Errorf("load app config: %w", err)
	}
	if storeBackend != "" {
		cfg.Store = storeBackend
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	return cfg, nil
}

// backend is an open record store with its lifecycle hooks.
type backend struct {
	store   storex.Store
	migrate func(context.Context) error
	seed    func(context.Context) error
	close   func() error
}

// openBackend opens the configured store. The in-memory store starts seeded,
// since it has nothing to migrate and would otherwise be empty.
func openBackend(ctx context.Context, cfg AppConfig) (*backend, error) {
	switch cfg.Store {
	case storeMemory:
		mem := memstore.New()
		if err := mem.Seed(ctx); err != nil {
			return nil, fmt.Errorf("seed memory store: %w", err)
		}
		store := storex.WithFAQCache(mem, cfg.FAQCacheSize, cfg.FAQCacheTTL)
		return &backend{
			store:   store,
			migrate: func(context.Context) error { return nil },
			seed:    storex.PurgeAfterSeed(store, mem.Seed),
			close:   func() error { return nil },
		}, nil

	case storePostgres:
		dbCfg, err := configx.New[databasex.Config]("DATABASE")
		if err != nil {
			return nil, fmt.Errorf("load database config: %w", err)
		}
		db, err := databasex.Open(ctx, *dbCfg)
		if err != nil {
			return nil, err
		}
		bs := bunstore.New(db)
		store := storex.WithFAQCache(bs, cfg.FAQCacheSize, cfg.FAQCacheTTL)
		return &backend{
			store:   store,
			migrate: bs.Migrate,
			seed:    storex.PurgeAfterSeed(store, bs.Seed),
			close:   db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q (want %s or %s)", cfg.Store, storeMemory, storePostgres)
	}
}

// newOrchestrator wires the agents and the turn pipeline on top of store.
// Metrics are registered on reg.
func newOrchestrator(ctx context.Context, store storex.Store, reg prometheus.Registerer) (*orchestratorx.Orchestrator, error) {
	llmCfg, err := configx.New[llmx.Config]("OPENROUTER")
	if err != nil {
		return nil, fmt.Errorf("load llm config: %w", err)
	}

	metrics := metricsx.NewMetrics(reg)
	registry, err := specialist.NewRegistry(ctx, *llmCfg, store,
		specialist.WithLogger(log.Logger),
		specialist.WithMetrics(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("build agents: %w", err)
	}

	return orchestratorx.New(store, registry,
		orchestratorx.WithLogger(log.Logger),
		orchestratorx.WithMetrics(metrics),
	)
}
