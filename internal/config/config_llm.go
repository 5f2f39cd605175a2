package config

// LLMConfig configures the Provider Abstraction (C8): which provider
// backs a turn by default, per-provider credentials, the fallback chain
// tried when the default provider errors, and Bedrock foundation-model
// discovery.
type LLMConfig struct {
	DefaultProvider string                       `yaml:"default_provider"`
	Providers       map[string]LLMProviderConfig `yaml:"providers"`

	// FallbackChain specifies provider IDs to try if the default provider
	// fails, in order, until one succeeds.
	FallbackChain []string `yaml:"fallback_chain"`

	// Bedrock configures AWS Bedrock foundation-model discovery, consumed
	// by internal/providers/bedrock.DiscoveryConfig.
	Bedrock BedrockConfig `yaml:"bedrock"`
}

// LLMProviderConfig holds one provider's credentials and default model.
type LLMProviderConfig struct {
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
	BaseURL      string `yaml:"base_url"`
	APIVersion   string `yaml:"api_version"`
}

// BedrockConfig configures AWS Bedrock model discovery, mirroring
// internal/providers/bedrock.DiscoveryConfig's field set so it can be
// passed straight through at startup.
type BedrockConfig struct {
	// Enabled turns on Bedrock foundation-model discovery at startup.
	Enabled bool `yaml:"enabled"`

	// Region is the AWS region to query for models. Default: us-east-1.
	Region string `yaml:"region"`

	// RefreshInterval is how often to refresh the model list (e.g. "1h").
	RefreshInterval string `yaml:"refresh_interval"`

	// ProviderFilter limits discovery to specific model providers, e.g.
	// ["anthropic", "amazon", "meta"]. Empty means all providers.
	ProviderFilter []string `yaml:"provider_filter"`

	// DefaultContextWindow is used when a model doesn't report context size.
	DefaultContextWindow int `yaml:"default_context_window"`

	// DefaultMaxTokens is used when a model doesn't report max output.
	DefaultMaxTokens int `yaml:"default_max_tokens"`
}
