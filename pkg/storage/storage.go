package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/feichai0017/minutes-generator/config"
	"github.com/feichai0017/minutes-generator/pkg/logger"
	"github.com/feichai0017/minutes-generator/pkg/storage/local"
	"github.com/feichai0017/minutes-generator/pkg/storage/minio"
	"github.com/feichai0017/minutes-generator/pkg/storage/s3"
)

// Storage archives generated documents.
type Storage interface {
	// Store writes the content under key and returns the stored key.
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// CleanupBefore deletes objects last modified before threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// NewStorage builds the backend selected by cfg. It returns nil, nil when
// archiving is disabled.
func NewStorage(cfg config.StorageConfig, log logger.Logger) (Storage, error) {
	var (
		store Storage
		err   error
	)
	switch cfg.Type {
	case "", config.StorageTypeNone:
		return nil, nil
	case config.StorageTypeLocal:
		store, err = local.NewLocalStorage(cfg.Local.Dir, log)
	case config.StorageTypeS3:
		store, err = s3.NewS3Storage(context.Background(), cfg.S3, log)
	case config.StorageTypeMinio:
		store, err = minio.NewMinioStorage(context.Background(), cfg.Minio, log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to init %s storage: %w", cfg.Type, err)
	}
	return store, nil
}
