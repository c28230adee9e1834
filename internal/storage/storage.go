// Package storage provides object-store backends for attachment binaries.
// Objects are written publicly retrievable under ticket-scoped paths.
package storage

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/mailroom/internal/config"
	"github.com/spec-kit/mailroom/internal/ingest"
)

// New selects a backend from configuration.
func New(cfg config.StorageConfig, logger *zap.Logger) (ingest.ObjectStore, error) {
	switch cfg.Backend {
	case "filesystem", "":
		return NewFileStore(cfg.BasePath, cfg.PublicBaseURL, logger), nil
	case "s3":
		return NewS3Store(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
