package commands

import (
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gulfmed/scout/internal/agent/provider"
	"github.com/gulfmed/scout/internal/agent/tools"
	"github.com/gulfmed/scout/internal/config"
	"github.com/gulfmed/scout/internal/logging"
	"github.com/gulfmed/scout/internal/metrics"
	"github.com/gulfmed/scout/internal/notion"
	"github.com/gulfmed/scout/internal/ratelimit"
	"github.com/gulfmed/scout/internal/research/competitors"
	"github.com/gulfmed/scout/internal/research/contacts"
	"github.com/gulfmed/scout/internal/research/fda"
	"github.com/gulfmed/scout/internal/research/scrape"
	"github.com/gulfmed/scout/internal/research/search"
	"github.com/gulfmed/scout/internal/store"
)

// webRequestsPerMinute bounds outbound search and scrape traffic. The
// per-request jitter from the config delays does most of the pacing; this
// is the hard ceiling behind it.
const webRequestsPerMinute = 30

// setupMetrics registers run counters and, when configured, starts the
// scrape endpoint. The run label is a fresh ID each invocation.
func setupMetrics(cfg *config.Config) *metrics.Metrics {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, uuid.NewString()[:8])
	if cfg.MetricsAddr != "" {
		metrics.Serve(cfg.MetricsAddr, reg)
	}
	return m
}

func webLimiter(cfg *config.Config) *ratelimit.Limiter {
	minDelay := time.Duration(cfg.MinDelaySeconds * float64(time.Second))
	maxDelay := time.Duration(cfg.MaxDelaySeconds * float64(time.Second))
	return ratelimit.New(webRequestsPerMinute, minDelay, maxDelay)
}

// buildDeps wires the research executors behind the tool registry.
// Optional backends (Notion, Hunter, Apollo) are only attached when their
// credentials are configured; the registry skips tools with nil executors.
func buildDeps(cfg *config.Config, outputDir string, m *metrics.Metrics) (tools.Dependencies, *store.Store, error) {
	st, err := store.New(outputDir)
	if err != nil {
		return tools.Dependencies{}, nil, err
	}

	limiter := webLimiter(cfg)

	var fdaOpts []fda.Option
	if cfg.FDAAPIKey != "" {
		fdaOpts = append(fdaOpts, fda.WithAPIKey(cfg.FDAAPIKey))
	}

	var hunter *contacts.HunterClient
	if cfg.HunterAPIKey != "" {
		hunter = contacts.NewHunterClient(cfg.HunterAPIKey, "")
	}
	var apollo *contacts.ApolloClient
	if cfg.ApolloAPIKey != "" {
		apollo = contacts.NewApolloClient(cfg.ApolloAPIKey, "")
	}

	var notionClient *notion.Client
	if cfg.NotionAPIKey != "" && cfg.NotionDatabaseID != "" {
		notionClient = notion.NewClient(cfg.NotionAPIKey, cfg.NotionDatabaseID, "")
	}

	deps := tools.Dependencies{
		Search:      search.NewClient(limiter),
		Scraper:     scrape.New(limiter),
		FDA:         fda.NewClient(fdaOpts...),
		Competitors: competitors.New(),
		Contacts:    contacts.NewFinder(hunter, apollo),
		Notion:      notionClient,
		Store:       st,
		Metrics:     m,
	}
	return deps, st, nil
}

// flushPartial writes pending records to a chunk. Commands call it before
// exiting on a session error so completed saves survive the failure.
func flushPartial(st *store.Store, logger *logging.Logger) error {
	saved := st.Len()
	chunk, err := st.FlushChunk()
	if err != nil {
		return err
	}
	if chunk != "" {
		logger.Info("saved %d companies to %s", saved, chunk)
	}
	return nil
}

// researchProvider builds the completion backend for agent sessions.
func researchProvider(cfg *config.Config) (provider.Provider, error) {
	if cfg.AnthropicAPIKey == "" {
		return nil, config.NewConfigError("anthropic API key is required (set ANTHROPIC_API_KEY)")
	}
	return provider.NewAnthropicProviderWithKey(cfg.AnthropicAPIKey, provider.Config{
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	})
}
