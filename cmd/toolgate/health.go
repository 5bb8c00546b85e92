// ABOUTME: health and version commands
// ABOUTME: health queries a running gateway's /health endpoint

package main

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/2389/toolgate/internal/gateway"
)

func newHealthCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check gateway health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				cfg, _, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				addr = cfg.Server.HTTPAddr
			}

			url := "http://" + dialAddr(addr) + "/health"
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
			if err != nil {
				return fmt.Errorf("creating request: %w", err)
			}

			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
			}

			var health gateway.HealthResponse
			if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
				return fmt.Errorf("decoding health response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "healthy (mode: %s, time: %s)\n", health.Mode, health.Timestamp)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "gateway address (default server.http_addr)")
	return cmd
}

// dialAddr turns a listen address like ":8787" into one a client can dial.
func dialAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "toolgate %s\n", version)
		},
	}
}
