// Package store provides the durable key-value stores behind session
// persistence. Every store implements ports.KeyValueStore and
// ports.HealthChecker.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jsamuelsen/quote-session/internal/platform/config"
	"github.com/jsamuelsen/quote-session/internal/ports"
)

// Supported store drivers.
const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Store is a KeyValueStore that can also report its health.
type Store interface {
	ports.KeyValueStore
	ports.HealthChecker
}

// Open creates the store selected by cfg.Driver.
func Open(cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(
		slog.String("component", "store"),
		slog.String("driver", cfg.Driver),
	)

	switch cfg.Driver {
	case DriverMemory:
		logger.Warn("using in-memory store; sessions will not survive a restart")
		return NewMemory(), nil
	case DriverBolt, "":
		if err := ensureDir(cfg.Path); err != nil {
			return nil, err
		}

		logger.Info("opening store", slog.String("path", cfg.Path))

		return OpenBolt(cfg.Path, cfg.Bucket)
	case DriverSQLite:
		if cfg.Path != ":memory:" {
			if err := ensureDir(cfg.Path); err != nil {
				return nil, err
			}
		}

		logger.Info("opening store", slog.String("path", cfg.Path))

		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func ensureDir(path string) error {
	if path == "" {
		return errors.New("store path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	return nil
}
