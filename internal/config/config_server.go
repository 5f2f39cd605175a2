package config

// ServerConfig controls the HTTP listener the Agent Pipeline is served
// behind (cmd/aqagent's "serve" subcommand).
type ServerConfig struct {
	Host        string `yaml:"host"`
	HTTPPort    int    `yaml:"http_port"`
	MetricsPort int    `yaml:"metrics_port"`
}
