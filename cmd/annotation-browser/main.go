// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the annotation-browser CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/annotation-browser/internal/logger"
	"github.com/pdiddy/annotation-browser/internal/secrets"
	"github.com/pdiddy/annotation-browser/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg and log are populated by the root command before any subcommand runs.
var (
	cfg types.Config
	log = zap.NewNop()
)

// rootCmd is the base command for the annotation-browser CLI.
var rootCmd = &cobra.Command{
	Use:   "annotation-browser",
	Short: "Federated search and filter state over a genome annotation catalog",
	Long: `annotation-browser searches a genome annotation catalog for organisms,
taxa and assemblies in one query, records selected results in a short
recent-search history and keeps the shared annotation filter state.

The serve subcommand exposes the same operations over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}

		l, err := logger.NewLogger(c.Logging.Env, c.Logging.Level)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, l)
		if err != nil {
			return err
		}
		secrets.Apply(&c, s)

		cfg, log = c, l
		if f := viper.ConfigFileUsed(); f != "" {
			log.Debug("using config file", zap.String("path", f))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./annotation-browser.yaml or ~/.config/annotation-browser/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of secret key files")
	rootCmd.PersistentFlags().String("storage", "", "storage backend: sqlite, redis or memory")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("storage.backend", rootCmd.PersistentFlags().Lookup("storage"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("annotation-browser")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "annotation-browser"))
		}
	}

	setDefaults(viper.GetViper(), types.DefaultConfig())

	viper.SetEnvPrefix("ANNOTATION_BROWSER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// setDefaults registers every config key so environment variables can
// override keys that no config file mentions.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("catalog.base_url", d.Catalog.BaseURL)
	v.SetDefault("catalog.timeout", d.Catalog.Timeout)
	v.SetDefault("catalog.user_agent", d.Catalog.UserAgent)
	v.SetDefault("catalog.max_retries", d.Catalog.MaxRetries)

	v.SetDefault("search.debounce", d.Search.Debounce)
	v.SetDefault("search.organism_limit", d.Search.OrganismLimit)
	v.SetDefault("search.taxon_limit", d.Search.TaxonLimit)
	v.SetDefault("search.assembly_limit", d.Search.AssemblyLimit)

	v.SetDefault("storage.backend", string(d.Storage.Backend))
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.redis_addrs", d.Storage.RedisAddrs)
	v.SetDefault("storage.redis_password", d.Storage.RedisPassword)
	v.SetDefault("storage.key_prefix", d.Storage.KeyPrefix)

	v.SetDefault("logging.env", d.Logging.Env)
	v.SetDefault("logging.level", d.Logging.Level)

	v.SetDefault("server.addr", d.Server.Addr)
}

// loadConfig decodes the merged defaults, file, environment and flags.
func loadConfig() (types.Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (types.Config, error) {
	c := types.DefaultConfig()
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return c, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
