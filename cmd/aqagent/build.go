package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aqagent/aqagent/internal/agent"
	"github.com/aqagent/aqagent/internal/agent/providers"
	"github.com/aqagent/aqagent/internal/cache"
	"github.com/aqagent/aqagent/internal/config"
	"github.com/aqagent/aqagent/internal/cost"
	"github.com/aqagent/aqagent/internal/health"
	"github.com/aqagent/aqagent/internal/sessions"
	"github.com/aqagent/aqagent/internal/tools/airquality"
	"github.com/aqagent/aqagent/internal/tools/policy"
	"github.com/aqagent/aqagent/internal/tools/websearch"
	"github.com/redis/go-redis/v9"
)

// runtime bundles everything buildPipeline assembles, so callers (serve,
// health) can shut it down cleanly without reaching into package internals.
type runtime struct {
	pipeline *agent.Pipeline
	sessions sessions.Store
	health   *health.Monitor
	resolver *policy.Resolver
	policy   *policy.Policy
	cost     *cost.Tracker
}

func (rt *runtime) Close() {
	if rt.cost != nil {
		rt.cost.Close()
	}
}

// buildRuntime wires every component named in SPEC_FULL.md §2 from a loaded
// Config, grounded on the teacher's runServe (handlers_serve.go) pattern of
// constructing one manager per config section before starting the server.
func buildRuntime(cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	store := buildCacheStore(cfg.Cache, logger)
	freshness := cache.NewFreshnessPolicy()

	sessionStore := sessions.NewMemoryStore()
	lockTimeout := cfg.Session.LockTimeout
	if lockTimeout <= 0 {
		lockTimeout = sessions.DefaultLockTimeout
	}
	locker := sessions.NewSessionLocker(lockTimeout)

	registry := agent.NewToolRegistry()
	searchCfg := &websearch.Config{
		SearXNGURL:     cfg.Tools.WebSearch.SearXNGURL,
		BraveAPIKey:    cfg.Tools.WebSearch.BraveAPIKey,
		DefaultBackend: websearch.SearchBackend(cfg.Tools.WebSearch.DefaultBackend),
		ExtractContent: cfg.Tools.WebSearch.ExtractContent,
	}
	fetchCfg := &websearch.FetchConfig{MaxChars: cfg.Tools.WebSearch.FetchMaxChars}
	airquality.RegisterDefaults(registry, searchCfg, fetchCfg)

	executor := agent.NewExecutor(registry, agent.DefaultExecutorConfig())
	orchestrator := agent.NewOrchestrator(agent.DefaultOrchestratorConfig(executor))

	provider, model, err := buildProvider(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to build LLM provider: %w", err)
	}

	tracker := cost.NewTracker(cost.Limits{
		MaxRequests: cfg.Cost.MaxRequests,
		MaxTokens:   cfg.Cost.MaxTokens,
		MaxCostUSD:  cfg.Cost.MaxCostUSD,
	})

	monitor := health.NewMonitor()
	monitor.SetComponentStatus("llm_provider", health.StatusHealthy, provider.Name())
	monitor.SetComponentStatus("session_store", health.StatusHealthy, "")
	monitor.SetComponentStatus("cache", health.StatusHealthy, cfg.Cache.Backend)

	pipeline := agent.NewPipeline(agent.PipelineConfig{
		Sessions:     sessionStore,
		SessionLock:  locker,
		Cache:        store,
		Freshness:    freshness,
		Registry:     registry,
		Orchestrator: orchestrator,
		Cost:         tracker,
		Provider:     provider,
		Model:        model,
	})

	resolver := policy.NewResolver()
	toolPolicy := policy.GetProfilePolicy(cfg.Tools.Profile)

	return &runtime{
		pipeline: pipeline,
		sessions: sessionStore,
		health:   monitor,
		resolver: resolver,
		policy:   toolPolicy,
		cost:     tracker,
	}, nil
}

func buildCacheStore(cfg config.CacheConfig, logger *slog.Logger) cache.Store {
	if cfg.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return cache.NewRedisStore(client, logger)
	}

	opts := cache.MemoryStoreOptions{
		MaxPerNamespace: cfg.MaxPerNamespace,
		HardWall:        cfg.HardWall,
		SweepInterval:   cfg.SweepInterval,
	}
	if opts.MaxPerNamespace == 0 && opts.HardWall == 0 && opts.SweepInterval == 0 {
		opts = cache.DefaultMemoryStoreOptions()
	}
	return cache.NewMemoryStore(opts)
}

// buildProvider selects and constructs the LLM provider named by
// cfg.DefaultProvider, then — if cfg.FallbackChain names further
// providers — wraps it in an agent.FailoverOrchestrator that tries each
// chain entry in order on failure, per spec §8's provider-unavailable
// degradation path. Falls back to the mock provider when nothing is
// configured, so a bare `aqagent serve` run with no config file still
// works end to end.
func buildProvider(cfg config.LLMConfig) (agent.LLMProvider, string, error) {
	primary, model, err := buildNamedProvider(cfg, cfg.DefaultProvider)
	if err != nil {
		return nil, "", err
	}
	if len(cfg.FallbackChain) == 0 {
		return primary, model, nil
	}

	failover := agent.NewFailoverOrchestrator(primary, agent.DefaultFailoverConfig())
	for _, name := range cfg.FallbackChain {
		fallback, _, err := buildNamedProvider(cfg, name)
		if err != nil {
			return nil, "", fmt.Errorf("failed to build fallback provider %q: %w", name, err)
		}
		failover.AddProvider(fallback)
	}
	return failover, model, nil
}

// buildNamedProvider constructs the single provider named name, using its
// entry in cfg.Providers for credentials.
func buildNamedProvider(cfg config.LLMConfig, name string) (agent.LLMProvider, string, error) {
	if name == "" {
		name = "mock"
	}
	entry := cfg.Providers[name]

	switch name {
	case "anthropic":
		p, err := providers.NewAnthropicProvider(providers.AnthropicConfig{
			APIKey:       entry.APIKey,
			BaseURL:      entry.BaseURL,
			DefaultModel: entry.DefaultModel,
		})
		if err != nil {
			return nil, "", err
		}
		return p, defaultModel(entry, "claude-sonnet-4-20250514"), nil

	case "openai":
		return providers.NewOpenAIProvider(entry.APIKey), defaultModel(entry, "gpt-4o"), nil

	case "bedrock":
		// AccessKeyID/SecretAccessKey are left empty: providers.BedrockConfig
		// falls back to the default AWS credential chain, which is how the
		// bedrock.DiscoveryConfig side of Config is meant to run too.
		p, err := providers.NewBedrockProvider(providers.BedrockConfig{
			Region:       cfg.Bedrock.Region,
			DefaultModel: entry.DefaultModel,
		})
		if err != nil {
			return nil, "", err
		}
		return p, defaultModel(entry, "anthropic.claude-3-sonnet"), nil

	case "ollama":
		return providers.NewOllamaProvider(providers.OllamaConfig{
			BaseURL:      entry.BaseURL,
			DefaultModel: entry.DefaultModel,
			Timeout:      30 * time.Second,
		}), defaultModel(entry, "llama3"), nil

	default:
		return providers.NewMockProvider("mock-v1"), "mock-v1", nil
	}
}

func defaultModel(entry config.LLMProviderConfig, fallback string) string {
	if entry.DefaultModel != "" {
		return entry.DefaultModel
	}
	return fallback
}
