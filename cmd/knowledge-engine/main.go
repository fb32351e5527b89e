// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the knowledge-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/knowledge-engine/internal/secrets"
	"github.com/pdiddy/knowledge-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the knowledge-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "knowledge-engine",
	Short: "Multi-agent research pipeline with a persistent result cache",
	Long: `knowledge-engine runs research queries through a four-phase pipeline:
source collection, multi-agent analysis, synthesis with conflict
resolution, and validation scoring. Completed results are cached in a
local SQLite database with TTL expiry.

Use "research conduct" to run a query, "research search" and
"research history" to explore cached results, and "cache" to manage the
store directly.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./knowledge-engine.yaml or ~/.config/knowledge-engine/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log pipeline internals to stderr")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("knowledge-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "knowledge-engine"))
		}
	}

	viper.SetDefault("cache.dir", ".knowledge-cache")
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("cache.max_entries", 1000)
	viper.SetDefault("collect.max_sources", 10)
	viper.SetDefault("collect.max_in_flight", 5)
	viper.SetDefault("collect.timeout", "30s")
	viper.SetDefault("collect.user_agent", "knowledge-engine/"+version)
	viper.SetDefault("analyze.max_in_flight", 4)
	viper.SetDefault("analyze.prompt_sources", 5)
	viper.SetDefault("analyze.model", "claude-sonnet-4-20250514")

	viper.SetEnvPrefix("KNOWLEDGE_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig assembles the typed config from viper.
func engineConfig() types.EngineConfig {
	return types.EngineConfig{
		Collect: types.CollectConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("collect.timeout"),
				UserAgent: viper.GetString("collect.user_agent"),
			},
			MaxSources:     viper.GetInt("collect.max_sources"),
			MaxInFlight:    viper.GetInt("collect.max_in_flight"),
			Seed:           viper.GetInt64("collect.seed"),
			SearchEndpoint: viper.GetString("collect.search_endpoint"),
		},
		Analyze: types.AnalyzeConfig{
			MaxInFlight:   viper.GetInt("analyze.max_in_flight"),
			PromptSources: viper.GetInt("analyze.prompt_sources"),
			Model:         viper.GetString("analyze.model"),
			APIKeys:       loadedSecrets,
		},
		Cache: types.CacheConfig{
			Directory:  viper.GetString("cache.dir"),
			TTL:        viper.GetDuration("cache.ttl"),
			MaxEntries: viper.GetInt("cache.max_entries"),
		},
	}
}

// newLogger returns a stderr logger when --verbose is set, a no-op
// logger otherwise.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// commandTimeout is the upper bound for any single CLI invocation.
const commandTimeout = 10 * time.Minute

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
