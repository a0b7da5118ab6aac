package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ktnshm/receipt-scanner/pkg/logger"
	"github.com/ktnshm/receipt-scanner/pkg/storage/minio"
)

// StorageType selects the object store backend.
type StorageType string

const (
	StorageTypeMinio StorageType = "minio"
)

// Storage holds uploaded receipt files while they wait in the batch queue.
type Storage interface {
	// Store writes a file and returns its object key.
	Store(ctx context.Context, reader io.Reader, filename string) (string, error)
	// Get opens a stored file for reading.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes a stored file.
	Delete(ctx context.Context, key string) error
	// CleanupBefore removes files older than the threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// NewStorage creates a storage backend.
func NewStorage(storageType StorageType, log logger.Logger) (Storage, error) {
	switch storageType {
	case StorageTypeMinio:
		return minio.GetClient(log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
