// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the essay-brainstormer CLI.
package main

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/essay-brainstormer/internal/logging"
	"github.com/pdiddy/essay-brainstormer/internal/secrets"
	"github.com/pdiddy/essay-brainstormer/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// secretsDir holds one file per API key.
const secretsDir = ".secrets/"

var (
	// cfg is the resolved configuration, set in PersistentPreRunE.
	cfg types.Config

	// logger is built from cfg.Log in PersistentPreRunE.
	logger = zap.NewNop()
)

// rootCmd is the base command for the essay-brainstormer CLI.
var rootCmd = &cobra.Command{
	Use:   "essay-brainstormer",
	Short: "Guided brainstorming for a college application essay",
	Long: `essay-brainstormer walks a student through three reflective questions
about their background and goals, then produces a structured outline for
their application essay. Questions and the outline come from a text
generation service (OpenAI or Anthropic).

Run "serve" to expose the dialogue over HTTP, or "chat" to brainstorm in the
terminal. Completed dialogues are logged to a SQLite transcript that
"transcript" lists and exports.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./essay-brainstormer.yaml or ~/.config/essay-brainstormer/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	setDefaults(viper.GetViper())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("essay-brainstormer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "essay-brainstormer"))
		}
	}

	bindEnv(viper.GetViper())

	_ = viper.ReadInConfig()
}

// setup resolves configuration, builds the logger, and fills the API key
// from .secrets/ when the config does not carry one.
func setup(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	log, err := logging.New(c.Log)
	if err != nil {
		return err
	}
	if f := viper.ConfigFileUsed(); f != "" {
		log.Debug("using config file", zap.String("path", f))
	}

	s, err := secrets.Load(secretsDir, log)
	if err != nil {
		return err
	}
	if len(s) > 0 {
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		log.Debug("loaded secrets", zap.Strings("keys", keys))
	}
	if c.AI.APIKey == "" {
		c.AI.APIKey = s.APIKey(c.AI.Provider)
	}

	cfg, logger = c, log
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
