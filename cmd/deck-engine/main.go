// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the deck-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/deck-engine/internal/secrets"
	"github.com/pdiddy/deck-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Per-backend model defaults, used when neither config nor flag names one.
const (
	defaultClaudeModel = "claude-sonnet-4-5-20250929"
	defaultGeminiModel = "gemini-2.5-pro"
)

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the deck-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "deck-engine",
	Short: "Turn lecture slide decks into Anki-ready flashcard CSVs",
	Long: `deck-engine processes lecture slide PDFs into flashcard decks. Intake PDFs
are sanitized, sent to a generation backend (Claude or Gemini) for card
extraction, validated against the card schema, and emitted as pipe-delimited
CSVs that Anki imports directly.

Each stage is a subcommand (sanitize, extract, convert, merge); run executes
the whole pipeline. Documents move between stage directories as they advance,
so an interrupted run picks up where it left off.`,
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./deck-engine.yaml or ~/.config/deck-engine/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "base directory for the stage tree (default \"data\")")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("deck-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "deck-engine"))
		}
	}

	viper.SetEnvPrefix("DECK_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the run configuration from the config file,
// environment, and persistent flags. API keys come from explicit config
// first, then from .secrets/ (anthropic-api-key or gemini-api-key).
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	base := viper.GetString("data_dir")
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		base = v
	}
	if base == "" {
		base = "data"
	}

	cfg := types.PipelineConfig{
		Dirs: types.DefaultDirs(base),
		Sanitize: types.SanitizeConfig{
			CompressThresholdBytes: viper.GetInt64("sanitize.compress_threshold_bytes"),
		},
		Extraction: types.ExtractionConfig{
			AIConfig: types.AIConfig{
				Model:      viper.GetString("extraction.model"),
				APIKey:     viper.GetString("extraction.api_key"),
				MaxRetries: viper.GetInt("extraction.max_retries"),
				RetryDelay: viper.GetDuration("extraction.retry_delay"),
			},
			Backend:    viper.GetString("extraction.backend"),
			PromptsDir: viper.GetString("extraction.prompts_dir"),
			Segments: types.SegmentConfig{
				MinPages: viper.GetInt("extraction.segments.min_pages"),
				MaxPages: viper.GetInt("extraction.segments.max_pages"),
			},
		},
		Merge:   types.MergeConfig{Output: viper.GetString("merge.output")},
		Journal: types.JournalConfig{Path: viper.GetString("journal.path")},
	}

	if cfg.Extraction.Backend == "" {
		cfg.Extraction.Backend = "gemini"
	}
	if cfg.Extraction.PromptsDir == "" {
		cfg.Extraction.PromptsDir = "prompts"
	}
	if cfg.Extraction.MaxRetries == 0 {
		cfg.Extraction.MaxRetries = 3
	}
	if cfg.Extraction.RetryDelay == 0 {
		cfg.Extraction.RetryDelay = 5 * time.Second
	}
	if cfg.Extraction.Segments.MinPages == 0 {
		cfg.Extraction.Segments.MinPages = 25
	}
	if cfg.Extraction.Segments.MaxPages == 0 {
		cfg.Extraction.Segments.MaxPages = 40
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = filepath.Join(base, "journal.db")
	}
	return cfg
}

// resolveBackend applies the backend/model flag overrides and fills the API
// key and model default for the selected backend.
func resolveBackend(cmd *cobra.Command, cfg *types.PipelineConfig) {
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.Extraction.Backend = v
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.Extraction.Model = v
	}
	if cfg.Extraction.Model == "" {
		if cfg.Extraction.Backend == "claude" {
			cfg.Extraction.Model = defaultClaudeModel
		} else {
			cfg.Extraction.Model = defaultGeminiModel
		}
	}
	if cfg.Extraction.APIKey == "" {
		key := secrets.GeminiKeyFile
		if cfg.Extraction.Backend == "claude" {
			key = secrets.AnthropicKeyFile
		}
		cfg.Extraction.APIKey = loadedSecrets[key]
	}
}

// ensureDirs creates the stage directory tree for standalone stage commands.
func ensureDirs(cfg types.PipelineConfig) error {
	for _, dir := range cfg.Dirs.All() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("preparing directory tree: %w", err)
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
