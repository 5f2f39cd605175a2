package config

import "time"

// Config is the consolidated configuration for the whole agent: every
// subsystem's knobs in one tree, loaded from YAML/JSON5 via Load.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Cache   CacheConfig   `yaml:"cache"`
	Tools   ToolsConfig   `yaml:"tools"`
	Cost    CostConfig    `yaml:"cost"`
	Session SessionConfig `yaml:"session"`
}

// Default returns a Config populated with the defaults a bare `aqagent
// serve` run should use absent any config file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			HTTPPort:    8080,
			MetricsPort: 9090,
		},
		LLM: LLMConfig{
			DefaultProvider: "mock",
		},
		Cache: CacheConfig{
			Backend:         "memory",
			MaxPerNamespace: 1000,
			HardWall:        4 * time.Hour,
			SweepInterval:   5 * time.Minute,
		},
		Tools: ToolsConfig{
			Profile: "default",
		},
		Session: SessionConfig{
			LockTimeout: 5 * time.Second,
		},
	}
}

// Load reads path (resolving any $include directives) and decodes it into
// a Config seeded with Default's values, so a config file only needs to
// specify the fields it overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := LoadRaw(path)
	if err != nil {
		return nil, err
	}
	decoded, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}
	overlay(cfg, decoded)
	return cfg, nil
}

// overlay applies every non-zero field of src onto dst in place. It's
// intentionally shallow per top-level section: a config file that sets
// cache.backend still gets the rest of Default's Cache fields, but a
// config file that sets server.http_port must set the whole server
// section's other fields itself if it wants them to differ from Default.
func overlay(dst, src *Config) {
	if src.Server != (ServerConfig{}) {
		dst.Server = src.Server
	}
	if src.LLM.DefaultProvider != "" || len(src.LLM.Providers) > 0 || len(src.LLM.FallbackChain) > 0 || src.LLM.Bedrock.Enabled {
		dst.LLM = src.LLM
	}
	if src.Cache.Backend != "" {
		dst.Cache = src.Cache
	}
	if src.Tools.Profile != "" || src.Tools.WebSearch != (WebSearchConfig{}) {
		dst.Tools = src.Tools
	}
	if src.Cost != (CostConfig{}) {
		dst.Cost = src.Cost
	}
	if src.Session != (SessionConfig{}) {
		dst.Session = src.Session
	}
}
