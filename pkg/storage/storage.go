// Package storage provides content-addressed blob storage with Azure Blob
// Storage and in-memory implementations.
package storage

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/JaimeStill/veridid/pkg/lifecycle"
)

// System is a flat blob store keyed by "cid/name".
type System interface {
	// Start registers any startup work with the coordinator.
	Start(lc *lifecycle.Coordinator) error
	// Upload writes reader to key with the given content type.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download opens the blob at key. The caller closes the reader.
	// Returns ErrNotFound for a missing blob.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Exists reports whether a blob is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// New creates the System for cfg.Backend. The azure backend resolves
// credentials here and creates its container on Start.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	if cfg.Backend == BackendMemory {
		return NewMemory(logger), nil
	}
	return newAzure(cfg, logger)
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	for seg := range strings.SplitSeq(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
