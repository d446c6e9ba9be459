// Package storage writes event archives to object storage.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/eventdesk/apiserver/config"
)

// ObjectStorage is the write side of an archive bucket. Objects are written
// once and never updated in place.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string, metadata map[string]string) error
	Bucket() string
	Close() error
}

// Open constructs the backend selected by cfg.Backend and ensures its
// bucket exists. It returns nil when archiving is disabled.
func Open(ctx context.Context, cfg config.ArchiveConfig) (ObjectStorage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "minio":
		backend, err = NewMinioClient(cfg.Minio)
	case "gcs":
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s archive: %w", cfg.Backend, err)
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return backend, nil
}
