// ABOUTME: serve command: prints the banner and runs the HTTP gateway
// ABOUTME: Runs until SIGINT/SIGTERM, then shuts down gracefully

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/toolgate/internal/config"
	"github.com/2389/toolgate/internal/gateway"
	"github.com/2389/toolgate/internal/logging"
)

const banner = `
  _              _             _
 | |_ ___   ___ | | __ _  __ _| |_ ___
 | __/ _ \ / _ \| |/ _' |/ _' | __/ _ \
 | || (_) | (_) | | (_| | (_| | ||  __/
  \__\___/ \___/|_|\__, |\__,_|\__\___|
                   |___/
`

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			printBanner(cfg, path)
			logger := logging.New(cfg.Logging)

			logger.Info("starting toolgate",
				"config", path,
				"http_addr", cfg.Server.HTTPAddr,
				"mode", cfg.Mode,
			)

			gw, err := gateway.New(cfg, logger, gateway.WithVersion(version))
			if err != nil {
				return fmt.Errorf("creating gateway: %w", err)
			}
			return gw.Run(cmd.Context())
		},
	}
}

func printBanner(cfg *config.Config, path string) {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	if path == "" {
		path = "(defaults + environment)"
	}
	green.Print("    ▶ ")
	fmt.Printf("Config:      %s\n", path)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:        %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Mode:        ")
	if cfg.Mode == config.ModeLive {
		yellow.Print(cfg.Mode)
	} else {
		cyan.Print(cfg.Mode)
	}
	if cfg.DryRun() {
		gray.Print(" (dry run)")
	}
	fmt.Println()
	green.Print("    ▶ ")
	fmt.Printf("Idempotency: %s\n", cfg.Idempotency.Driver)
	if cfg.MCP.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("MCP:         %s\n", cfg.MCP.Path)
	}
	fmt.Println()
}
