package storage

import (
	"context"

	"github.com/riskhound/riskhound/internal/storage/sqlite"
	"github.com/riskhound/riskhound/internal/types"
)

// Storage defines the interface for risk register backends
type Storage interface {
	// Risks
	CreateRisk(ctx context.Context, risk *types.Risk, actor string) error
	GetRisk(ctx context.Context, id string) (*types.Risk, error)
	ListRisks(ctx context.Context, filter types.RiskFilter) ([]*types.Risk, error)
	UpdateRisk(ctx context.Context, id string, updates map[string]interface{}, actor string) error

	// Embeddings - cached semantic vectors, derived from descriptions
	SaveEmbedding(ctx context.Context, id string, embedding []float32) error

	// Events
	AddComment(ctx context.Context, riskID, actor, comment string) error
	GetEvents(ctx context.Context, riskID string, limit int) ([]*types.Event, error)

	// Config
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path
	// Default: ".riskhound/rk.db"
	Path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path: ".riskhound/rk.db",
	}
}

// NewStorage creates a new SQLite storage backend.
// The ctx parameter is currently unused but kept for API consistency
// and future extension possibilities.
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if cfg.Path == "" {
		cfg.Path = ".riskhound/rk.db"
	}

	return sqlite.New(cfg.Path)
}
