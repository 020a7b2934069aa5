package deduplication

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds configuration for the duplicate detection engine
type Config struct {
	// LexicalThreshold is the fuzzy string-similarity ratio (0.0-1.0) above
	// which the lexical tier alone declares a duplicate.
	// Default: 0.85
	LexicalThreshold float64

	// StatisticalThreshold is the TF-IDF relevance score above which the
	// statistical tier alone declares a duplicate. TF-IDF scores are
	// unbounded and corpus-size dependent; the default was tuned on small
	// registers and should be re-checked against a production corpus.
	// Default: 2.5
	StatisticalThreshold float64

	// SemanticThreshold is the minimum cosine similarity (typically 0.0-1.0
	// for natural-text embeddings) for the semantic tier to declare a
	// duplicate.
	// Default: 0.8
	SemanticThreshold float64

	// MaxCandidates caps how many corpus entries are compared against.
	// Limits both token work and embedding backfill cost.
	// Default: 200
	MaxCandidates int

	// MaxDescriptionLength is the longest candidate description accepted.
	// Default: 500
	MaxDescriptionLength int

	// EmbedTimeout bounds each individual embedding request. A timed-out
	// request degrades that one comparison, never the whole check.
	// Default: 10s
	EmbedTimeout time.Duration

	// MaxConcurrentEmbeds bounds the embedding backfill fan-out.
	// Default: 4
	MaxConcurrentEmbeds int

	// DisableSemantic turns the network-dependent semantic tier off
	// entirely (offline and test environments).
	// Default: false
	DisableSemantic bool
}

// DefaultConfig returns the default engine configuration.
//
// The three thresholds were tuned independently and have not been
// reconciled against a shared labeled dataset; treat them as starting
// points, not ground truth.
func DefaultConfig() Config {
	return Config{
		LexicalThreshold:     0.85,
		StatisticalThreshold: 2.5,
		SemanticThreshold:    0.8,
		MaxCandidates:        200,
		MaxDescriptionLength: 500,
		EmbedTimeout:         10 * time.Second,
		MaxConcurrentEmbeds:  4,
		DisableSemantic:      false,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.LexicalThreshold < 0.0 || c.LexicalThreshold > 1.0 {
		return fmt.Errorf("lexical_threshold must be between 0.0 and 1.0 (got %.2f)", c.LexicalThreshold)
	}
	if c.StatisticalThreshold < 0.0 {
		return fmt.Errorf("statistical_threshold cannot be negative (got %.2f)", c.StatisticalThreshold)
	}
	if c.SemanticThreshold < -1.0 || c.SemanticThreshold > 1.0 {
		return fmt.Errorf("semantic_threshold must be between -1.0 and 1.0 (got %.2f)", c.SemanticThreshold)
	}
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("max_candidates must be positive (got %d)", c.MaxCandidates)
	}
	if c.MaxCandidates > 10000 {
		return fmt.Errorf("max_candidates too large (got %d, max 10000)", c.MaxCandidates)
	}
	if c.MaxDescriptionLength <= 0 {
		return fmt.Errorf("max_description_length must be positive (got %d)", c.MaxDescriptionLength)
	}
	if c.EmbedTimeout <= 0 {
		return fmt.Errorf("embed_timeout must be positive (got %v)", c.EmbedTimeout)
	}
	if c.EmbedTimeout > 5*time.Minute {
		return fmt.Errorf("embed_timeout too large (got %v, max 5 minutes)", c.EmbedTimeout)
	}
	if c.MaxConcurrentEmbeds <= 0 {
		return fmt.Errorf("max_concurrent_embeds must be positive (got %d)", c.MaxConcurrentEmbeds)
	}
	if c.MaxConcurrentEmbeds > 64 {
		return fmt.Errorf("max_concurrent_embeds too large (got %d, max 64)", c.MaxConcurrentEmbeds)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{Lexical: %.2f, Statistical: %.2f, Semantic: %.2f, MaxCandidates: %d, "+
			"EmbedTimeout: %v, MaxConcurrentEmbeds: %d, DisableSemantic: %t}",
		c.LexicalThreshold, c.StatisticalThreshold, c.SemanticThreshold, c.MaxCandidates,
		c.EmbedTimeout, c.MaxConcurrentEmbeds, c.DisableSemantic,
	)
}

// ConfigFromEnv creates a Config from environment variables, falling back
// to defaults.
//
// Environment variables:
//   - RISKHOUND_DEDUP_LEXICAL_THRESHOLD: Fuzzy ratio threshold (default: 0.85)
//   - RISKHOUND_DEDUP_STATISTICAL_THRESHOLD: TF-IDF threshold (default: 2.5)
//   - RISKHOUND_DEDUP_SEMANTIC_THRESHOLD: Cosine threshold (default: 0.8)
//   - RISKHOUND_DEDUP_MAX_CANDIDATES: Corpus comparison cap (default: 200)
//   - RISKHOUND_DEDUP_EMBED_TIMEOUT_SECS: Per-embedding timeout (default: 10)
//   - RISKHOUND_DEDUP_MAX_CONCURRENT_EMBEDS: Backfill fan-out (default: 4)
//   - RISKHOUND_DEDUP_DISABLE_SEMANTIC: Disable semantic tier (default: false)
//
// Returns an error if any environment variable has an invalid value.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := parseEnvFloat("RISKHOUND_DEDUP_LEXICAL_THRESHOLD", &cfg.LexicalThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("RISKHOUND_DEDUP_STATISTICAL_THRESHOLD", &cfg.StatisticalThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("RISKHOUND_DEDUP_SEMANTIC_THRESHOLD", &cfg.SemanticThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("RISKHOUND_DEDUP_MAX_CANDIDATES", &cfg.MaxCandidates); err != nil {
		return cfg, err
	}
	if err := parseEnvDuration("RISKHOUND_DEDUP_EMBED_TIMEOUT_SECS", &cfg.EmbedTimeout, time.Second); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("RISKHOUND_DEDUP_MAX_CONCURRENT_EMBEDS", &cfg.MaxConcurrentEmbeds); err != nil {
		return cfg, err
	}
	if err := parseEnvBool("RISKHOUND_DEDUP_DISABLE_SEMANTIC", &cfg.DisableSemantic); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}

	return cfg, nil
}

// parseEnvFloat parses a float64 from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvDuration parses a duration from an environment variable.
// The multiplier converts the numeric value to a duration
// (e.g., for seconds: multiplier = time.Second)
func parseEnvDuration(key string, dest *time.Duration, multiplier time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = time.Duration(parsed) * multiplier
	return nil
}
