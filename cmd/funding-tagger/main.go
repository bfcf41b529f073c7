// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the funding-tagger CLI: classify
// funding-opportunity text, scrape and deliver new listings, inspect the
// delivery ledger, manage rule files and serve the classification API.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/funding-tagger/internal/logging"
	"github.com/pdiddy/funding-tagger/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets secrets.Secrets

	// logger is built from the log.* settings before any command runs.
	logger logging.Logger = logging.NewNop()
)

// rootCmd is the base command for the funding-tagger CLI.
var rootCmd = &cobra.Command{
	Use:   "funding-tagger",
	Short: "Keyword classification for scholarship and research funding calls",
	Long: `funding-tagger assigns a degree level, field of study, theme and UN
Sustainable Development Goal codes to funding-opportunity text using ordered
keyword rule tables.

Use classify for ad-hoc text, scrape to collect listings from the known
sources and deliver them to the ingest backend, ledger to review what was
delivered, rules to manage rule files, and serve to expose the engine over
HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(loadConfig().Log)
		if err != nil {
			return err
		}
		logger = l

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := s.Keys()
			sort.Strings(keys)
			logger.Debug("loaded secrets", logging.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	setDefaults()

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./funding-tagger.yaml or ~/.config/funding-tagger/funding-tagger.yaml)")
	pf.String("rules", "", "YAML rules file (default: built-in tables)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("secrets-dir", ".secrets/", "directory of secret files")
	pf.String("ledger", "", "ledger database path (default: data/ledger.db)")

	viper.BindPFlag("rules_file", pf.Lookup("rules"))
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("ledger.path", pf.Lookup("ledger"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("funding-tagger")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "funding-tagger"))
		}
	}

	viper.SetEnvPrefix("FUNDING_TAGGER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
