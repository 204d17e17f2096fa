package localfs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsync/internal/domain"
	"finsync/internal/port"
	"finsync/internal/storage/localfs"
)

func TestStorage_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := localfs.New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	out, err := s.Upload(ctx, port.UploadInput{Key: "batches/abc/report.csv", Body: strings.NewReader("a,b\n")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "batches/abc/report.csv"), out.Location)

	data, err := s.Download(ctx, "batches/abc/report.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	require.NoError(t, s.Delete(ctx, "batches/abc/report.csv"))
	_, err = os.Stat(out.Location)
	assert.True(t, os.IsNotExist(err))
}

func TestStorage_MissingKey(t *testing.T) {
	s, err := localfs.New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Download(context.Background(), "nope.xlsx")
	assert.ErrorIs(t, err, domain.ErrReportNotFound)
	assert.NoError(t, s.Delete(context.Background(), "nope.xlsx"))
}

func TestStorage_RejectsTraversal(t *testing.T) {
	s, err := localfs.New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), port.UploadInput{Key: "../escape.txt", Body: strings.NewReader("x")})
	assert.Error(t, err)
	_, err = s.Download(context.Background(), "")
	assert.Error(t, err)
}
