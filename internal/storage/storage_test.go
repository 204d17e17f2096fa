package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsync/internal/config"
	"finsync/internal/storage/localfs"
)

func TestNew_Local(t *testing.T) {
	store, err := New(&config.StorageConfig{Provider: "local", BasePath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &localfs.Storage{}, store)
}

func TestNew_S3RequiresBucket(t *testing.T) {
	_, err := New(&config.StorageConfig{Provider: "s3"})
	assert.ErrorContains(t, err, "bucket")
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(&config.StorageConfig{Provider: "ftp"})
	assert.ErrorContains(t, err, "unknown storage provider")
}
