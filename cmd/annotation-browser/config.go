// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the merged configuration as YAML",
	Long: `Show prints the configuration after defaults, the config file,
ANNOTATION_BROWSER_* environment variables and flags are merged. Secrets
are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cfg
		if c.Storage.RedisPassword != "" {
			c.Storage.RedisPassword = "********"
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
