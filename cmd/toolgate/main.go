// ABOUTME: Entry point for the toolgate tool-invocation gateway
// ABOUTME: Cobra root command, config path resolution and shared helpers

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/2389/toolgate/internal/config"
)

// Version is set by goreleaser at build time.
var version = "dev"

// defaultConfigFile is used when it exists and no path is given.
const defaultConfigFile = "toolgate.yaml"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "toolgate",
		Short: "Schema-checked tool invocation gateway",
		Long: `toolgate exposes a registry of tools over HTTP and MCP. Every invocation is
validated against the tool's JSON Schema, and wallet transfers additionally
require a confirmation token and an idempotency key.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "config file (default $TOOLGATE_CONFIG or ./"+defaultConfigFile+")")

	root.AddCommand(newServeCmd(), newInitCmd(), newConfirmCmd(), newTokenCmd(), newHealthCmd(), newVersionCmd())
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfigPath returns the config file to load.
// Priority: --config flag > TOOLGATE_CONFIG env var > ./toolgate.yaml if present.
// An empty result means defaults plus environment only.
func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if envPath := os.Getenv("TOOLGATE_CONFIG"); envPath != "" {
		return envPath
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	flag, _ := cmd.Flags().GetString("config")
	path := resolveConfigPath(flag)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}
