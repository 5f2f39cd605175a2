package config

// CostConfig mirrors internal/cost.Limits so the Cost Tracker (C10) can be
// built directly from the loaded configuration. A zero field means
// unlimited, matching cost.DefaultLimits.
type CostConfig struct {
	MaxRequests int64   `yaml:"max_requests"`
	MaxTokens   int64   `yaml:"max_tokens"`
	MaxCostUSD  float64 `yaml:"max_cost_usd"`
}
