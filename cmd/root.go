package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vecgrep/internal/config"
)

var (
	flagConfig string
	flagOllama string
	flagModel  string
	flagDebug  bool
)

var rootCmd = &cobra.Command{
	Use:          "vecgrep",
	Short:        "Semantic code search over a persistent, incrementally-updated index",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.vecgrep/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagOllama, "ollama", "", "ollama base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "embedding model (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "verbose logging to stderr")
}

// loadRuntime resolves the effective config and logger for a command.
// Logs go to stderr only; stdout belongs to command output and, in mcp
// mode, to the stdio transport.
func loadRuntime() (config.Config, *zap.Logger, error) {
	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	if flagOllama != "" {
		cfg.OllamaURL = flagOllama
	}
	if flagModel != "" {
		cfg.EmbedModel = flagModel
	}

	var log *zap.Logger
	if flagDebug {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return cfg, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
