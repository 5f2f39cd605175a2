// Package main provides the CLI entry point for the air-quality
// conversational agent.
//
// # Basic Usage
//
// Start the server:
//
//	aqagent serve --config aqagent.yaml
//
// Check the configured components without starting a listener:
//
//	aqagent health
//
// # Environment Variables
//
//   - AQAGENT_CONFIG: path to the configuration file (default: aqagent.yaml)
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Build-time injected via:
//
//	go build -ldflags "-X main.version=v1.0.0 -X main.commit=$(git rev-parse HEAD) -X main.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached,
// kept separate from main for testability, per the teacher's
// cmd/nexus/main.go convention.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "aqagent",
		Short: "aqagent - conversational air-quality assistant",
		Long: `aqagent answers air-quality and weather questions over HTTP, backed
by a query classifier, a dependency-aware tool orchestrator, and a
pluggable LLM provider (Anthropic, OpenAI, Bedrock, Ollama, or a local mock).`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(buildServeCmd(), buildHealthCmd(), buildVersionCmd())
	return rootCmd
}

// resolveConfigPath applies the same precedence the teacher's CLI uses:
// an explicit --config flag wins, then AQAGENT_CONFIG, then the empty
// string (config.Load treats "" as "use Default() only").
func resolveConfigPath(path string) string {
	if strings.TrimSpace(path) != "" {
		return path
	}
	return strings.TrimSpace(os.Getenv("AQAGENT_CONFIG"))
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "aqagent %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		},
	}
}
