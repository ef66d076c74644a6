// Package storage uploads and removes vehicle documents in an object store.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/richxcame/fleet/pkg/config"
)

// ProgressFunc receives the percentage [0,100] of the current object sent so far
type ProgressFunc func(percent float64)

// Storage is an object store addressed by key
type Storage interface {
	// Upload stores body under key and returns the stored key
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string, onProgress ProgressFunc) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	Ping(ctx context.Context) error
}

// New builds the driver selected in cfg
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case config.StorageDriverS3:
		return NewS3Storage(ctx, cfg)
	case config.StorageDriverMinio:
		return NewMinioStorage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
