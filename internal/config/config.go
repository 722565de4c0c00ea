// Package config loads the optional ~/.vecgrep/config.yaml. Flags override
// anything set here; a missing file just yields the defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the tunables for embedding and search.
type Config struct {
	OllamaURL      string `yaml:"ollama_url"`
	EmbedModel     string `yaml:"embed_model"`
	EmbedBatchSize int    `yaml:"embed_batch_size"`
	TopKMax        int    `yaml:"top_k_max"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OllamaURL:      "http://localhost:11434",
		EmbedModel:     "nomic-embed-text",
		EmbedBatchSize: 64,
		TopKMax:        20,
	}
}

// Load reads the config file at path, applying defaults for unset fields.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// DefaultPath returns ~/.vecgrep/config.yaml, or "" when the home directory
// cannot be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".vecgrep", "config.yaml")
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.OllamaURL == "" {
		cfg.OllamaURL = def.OllamaURL
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = def.EmbedModel
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = def.EmbedBatchSize
	}
	if cfg.TopKMax <= 0 {
		cfg.TopKMax = def.TopKMax
	}
}
