// ABOUTME: init command: writes an annotated example configuration file
// ABOUTME: Refuses to overwrite an existing file unless --force is given

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/toolgate/internal/assets"
)

func newInitCmd() *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an example config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := assets.WriteExampleConfig(path, force); err != nil {
				return err
			}

			green := color.New(color.FgGreen)
			green.Fprint(cmd.OutOrStdout(), "✓ ")
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "  edit it, then run: toolgate serve --config", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "output", "o", assets.ExampleConfigName, "where to write the config")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
