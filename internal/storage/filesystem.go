package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FileStore writes attachment binaries to the local filesystem. Intended
// for development and single-node deployments; the public URL assumes the
// base path is served statically.
type FileStore struct {
	basePath      string
	publicBaseURL string
	logger        *zap.Logger
}

// NewFileStore constructs the store.
func NewFileStore(basePath, publicBaseURL string, logger *zap.Logger) *FileStore {
	return &FileStore{
		basePath:      basePath,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		logger:        logger,
	}
}

// Put writes data under the store's base path and returns the public URL.
func (s *FileStore) Put(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// Object paths are built internally from uuids, but never trust them
	// with the filesystem.
	clean := filepath.Clean(objectPath)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object path %q", objectPath)
	}

	fullPath := filepath.Join(s.basePath, clean)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create attachment directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}

	s.logger.Debug("attachment written",
		zap.String("path", fullPath),
		zap.Int("size", len(data)),
		zap.String("content_type", contentType))
	return s.publicBaseURL + "/" + filepath.ToSlash(clean), nil
}
