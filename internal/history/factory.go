package history

import (
	"fmt"
	"os"
	"path/filepath"

	"hg-go/internal/config"
	"hg-go/internal/hg"
)

// NewHistoryFromConfig creates a History implementation based on the history config type.
func NewHistoryFromConfig(cfg config.HistoryConfig, clock hg.Clock) (*SQLiteHistory, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite history")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
		return NewSQLiteHistory(filepath.Join(cfg.DataDir, "history.db"), clock)
	case "memory":
		return NewSQLiteHistory(":memory:", clock)
	default:
		return nil, fmt.Errorf("unknown history type: %s", cfg.Type)
	}
}
