package main

import (
	"fmt"
	"log/slog"

	"github.com/aqagent/aqagent/internal/config"
	"github.com/spf13/cobra"
)

// buildHealthCmd creates the "health" command: build every component from
// config without binding a listener, and report what came up, so an
// operator can validate a config file before running serve.
func buildHealthCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Build the configured components and report their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			rt, err := buildRuntime(cfg, slog.Default())
			if err != nil {
				return fmt.Errorf("failed to initialize runtime: %w", err)
			}
			defer rt.Close()

			status, breakdown := rt.health.CheckHealth(true)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "overall: %s\n", status)
			for _, c := range breakdown {
				fmt.Fprintf(out, "  %-16s %-10s %s\n", c.Name, c.Status, c.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML/JSON5 configuration file")
	return cmd
}
