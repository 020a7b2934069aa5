package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/riskhound/riskhound/internal/config"
	"github.com/riskhound/riskhound/internal/deduplication"
	"github.com/riskhound/riskhound/internal/embedding"
	"github.com/riskhound/riskhound/internal/storage"
)

var (
	cfgFile string
	dbPath  string

	appCfg *config.Config
	store  storage.Storage
	actor  string
)

var rootCmd = &cobra.Command{
	Use:   "riskhound",
	Short: "Risk register with tiered duplicate detection",
	Long: `RiskHound maintains a project risk register and refuses duplicate
entries before they pollute it.

Every new risk passes through four detection tiers: exact string match,
fuzzy lexical similarity, TF-IDF term overlap, and embedding-based
semantic similarity via a local Ollama server. When the embedding
provider is unreachable the semantic tier degrades gracefully and the
other tiers still apply.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environment takes precedence
		_ = godotenv.Load()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Database.Path = dbPath
		}
		appCfg = cfg
		actor = cfg.Actor

		s, err := storage.NewStorage(cmd.Context(), &storage.Config{Path: cfg.Database.Path})
		if err != nil {
			return fmt.Errorf("failed to open risk register: %w", err)
		}
		store = s
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			store.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".riskhound/config.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Risk register database path (overrides config)")
}

// newEmbedder builds the configured embedding client, or nil when the
// semantic tier is disabled
func newEmbedder() embedding.Embedder {
	if appCfg.Embedding.Disabled {
		return nil
	}
	return embedding.NewOllamaClient(embedding.OllamaConfig{
		BaseURL: appCfg.Embedding.BaseURL,
		Model:   appCfg.Embedding.Model,
		Timeout: appCfg.Embedding.Timeout,
	})
}

// newEngine builds the duplicate detection engine from environment-tuned
// thresholds and the configured embedder
func newEngine() (*deduplication.Engine, error) {
	cfg, err := deduplication.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if appCfg.Embedding.Disabled {
		cfg.DisableSemantic = true
	}
	return deduplication.NewEngine(newEmbedder(), cfg)
}

func main() {
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
