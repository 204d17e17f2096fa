// Package storage selects the artifact store from configuration.
package storage

import (
	"fmt"

	"finsync/internal/config"
	"finsync/internal/port"
	"finsync/internal/storage/localfs"
	"finsync/internal/storage/s3"
)

// New returns the configured ObjectStorage.
func New(cfg *config.StorageConfig) (port.ObjectStorage, error) {
	switch cfg.Provider {
	case "", "local":
		return localfs.New(cfg.BasePath)
	case "s3":
		return s3.NewS3Client(&cfg.S3, cfg.BasePath)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
