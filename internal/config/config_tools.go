package config

// ToolsConfig controls the Tool Registry & Executor (C4): which approval
// profile gates tool execution, and credentials/backend selection for the
// web-search tool.
type ToolsConfig struct {
	// Profile selects an internal/tools/policy.Policy by name via
	// policy.GetProfilePolicy (e.g. "default", "readonly", "strict").
	Profile string `yaml:"profile"`

	WebSearch WebSearchConfig `yaml:"web_search"`
}

// WebSearchConfig mirrors internal/tools/websearch.Config/FetchConfig so
// it can be constructed directly from the loaded configuration.
type WebSearchConfig struct {
	SearXNGURL     string `yaml:"searxng_url"`
	BraveAPIKey    string `yaml:"brave_api_key"`
	DefaultBackend string `yaml:"default_backend"`
	ExtractContent bool   `yaml:"extract_content"`
	FetchMaxChars  int    `yaml:"fetch_max_chars"`
}
