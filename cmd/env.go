package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrichment/internal/config"
	"github.com/sells-group/lead-enrichment/internal/provider"
	"github.com/sells-group/lead-enrichment/internal/queue"
	"github.com/sells-group/lead-enrichment/internal/store"
	"github.com/sells-group/lead-enrichment/pkg/anthropic"
	"github.com/sells-group/lead-enrichment/pkg/apollo"
	"github.com/sells-group/lead-enrichment/pkg/hunter"
)

// openStore connects the configured store driver.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	}
	return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// openQueue connects the configured queue driver.
func openQueue(cfg *config.Config) (queue.Queue, error) {
	switch cfg.Queue.Driver {
	case "kafka":
		return queue.NewKafka(queue.KafkaConfig{
			Brokers: cfg.Queue.Brokers,
			Topic:   cfg.Queue.Topic,
			GroupID: cfg.Queue.GroupID,
		}), nil
	case "memory":
		return queue.NewMemory(cfg.Queue.Buffer), nil
	}
	return nil, eris.Errorf("unknown queue driver %q", cfg.Queue.Driver)
}

// buildRegistry wires one adapter per enrichment kind. Adapters whose
// provider has no API key are still registered; they degrade or fail per
// kind (the email adapter falls back to syntax checks, apollo and ai report
// a missing-key failure on each task).
func buildRegistry(cfg *config.Config) *provider.Registry {
	var hunterClient hunter.Client
	if cfg.Hunter.Key != "" {
		hunterClient = hunter.NewClient(cfg.Hunter.Key, hunter.WithBaseURL(cfg.Hunter.BaseURL))
	}

	var apolloClient apollo.Client
	if cfg.Apollo.Key != "" {
		apolloClient = apollo.NewClient(cfg.Apollo.Key, apollo.WithBaseURL(cfg.Apollo.BaseURL))
	}

	var anthropicClient anthropic.Client
	if cfg.Anthropic.Key != "" {
		anthropicClient = anthropic.NewClient(cfg.Anthropic.Key)
	}

	scraperHTTP := &http.Client{
		Timeout: time.Duration(cfg.Provider.ScraperTimeoutSecs) * time.Second,
	}

	reg := provider.NewRegistry()
	reg.Register(provider.NewEmailAdapter(hunterClient))
	reg.Register(provider.NewApolloAdapter(apolloClient))
	reg.Register(provider.NewAIAdapter(anthropicClient, cfg.Anthropic.InsightModel))
	reg.Register(provider.NewScraperAdapter(scraperHTTP))
	return reg
}
