package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aqagent/aqagent/internal/config"
	"github.com/aqagent/aqagent/internal/web"
	"github.com/spf13/cobra"
)

// buildServeCmd creates the "serve" command that starts the chat API and
// metrics listeners, grounded on the teacher's cmd/nexus/commands_serve.go
// buildServeCmd (same --config/--debug flags, same RunE shape).
func buildServeCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the aqagent HTTP server",
		Long: `Start the aqagent HTTP server.

The server will:
1. Load configuration from the specified file (or AQAGENT_CONFIG)
2. Build the cache, session store, tool registry, and LLM provider
3. Start the chat API (POST /chat, POST /chat/stream, session routes)
4. Start the metrics listener (GET /healthz, GET /metrics)

Graceful shutdown is handled on SIGINT/SIGTERM.`,
		Example: `  # Start with default config
  aqagent serve

  # Start with a custom config file
  aqagent serve --config /etc/aqagent/production.yaml

  # Start with debug logging
  aqagent serve --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), resolveConfigPath(configPath), debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML/JSON5 configuration file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

// runServe implements the serve command: load config, build every
// component, start both listeners, and wait for a shutdown signal.
func runServe(ctx context.Context, configPath string, debug bool) error {
	if debug {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	slog.Info("starting aqagent", "version", version, "commit", commit, "config", configPath, "debug", debug)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	rt, err := buildRuntime(cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to initialize runtime: %w", err)
	}
	defer rt.Close()

	server, err := web.NewServer(web.ServerConfig{
		Host:           cfg.Server.Host,
		HTTPPort:       cfg.Server.HTTPPort,
		MetricsPort:    cfg.Server.MetricsPort,
		Pipeline:       rt.pipeline,
		Sessions:       rt.sessions,
		Health:         rt.health,
		ToolResolver:   rt.resolver,
		ToolPolicy:     rt.policy,
		APIKeys:        apiKeysFromEnv(),
		AllowedOrigins: []string{"*"},
		Logger:         slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("failed to build HTTP server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	slog.Info("aqagent started",
		"chat_addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		"metrics_addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.MetricsPort),
	)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	slog.Info("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	slog.Info("aqagent stopped gracefully")
	return nil
}

// apiKeysFromEnv reads AQAGENT_API_KEYS as a comma-separated list. An empty
// result disables auth enforcement, matching AuthMiddleware's documented
// local-development posture.
func apiKeysFromEnv() []string {
	raw := os.Getenv("AQAGENT_API_KEYS")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
