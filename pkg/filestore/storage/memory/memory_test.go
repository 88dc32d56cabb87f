package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datadives/project-roodha/pkg/filestore"
	"github.com/datadives/project-roodha/pkg/filestore/storage/memory"
)

const testKey = "T001/uploads/2024/06/01/f.txt"

func TestPutAndHead(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	err := backend.Put(ctx, testKey, strings.NewReader("hello world"), "text/plain")
	require.NoError(t, err)

	meta, err := backend.Head(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, testKey, meta.Key)
	assert.Equal(t, int64(11), meta.Size)
	assert.Equal(t, "text/plain", meta.ContentType)
	assert.NotEmpty(t, meta.ETag)
	assert.NotEmpty(t, meta.VersionID)
}

func TestHeadMissing(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	_, err := backend.Head(ctx, "nope")
	assert.ErrorIs(t, err, filestore.ErrObjectNotFound)
}

func TestDownload(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	require.NoError(t, backend.Put(ctx, testKey, strings.NewReader("payload"), "text/plain"))

	reader, err := backend.Download(ctx, testKey)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestPutLastWriterWins(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	require.NoError(t, backend.Put(ctx, testKey, strings.NewReader("first"), "text/plain"))
	require.NoError(t, backend.Put(ctx, testKey, strings.NewReader("second"), "text/plain"))

	reader, err := backend.Download(ctx, testKey)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestVersionsRetained(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	require.NoError(t, backend.Put(ctx, testKey, strings.NewReader("first"), "text/plain"))
	first, err := backend.Head(ctx, testKey)
	require.NoError(t, err)

	require.NoError(t, backend.Put(ctx, testKey, strings.NewReader("second"), "text/plain"))
	second, err := backend.Head(ctx, testKey)
	require.NoError(t, err)
	assert.NotEqual(t, first.VersionID, second.VersionID)

	// The overwritten version remains retrievable by id
	reader, err := backend.DownloadVersion(ctx, testKey, first.VersionID)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestDeleteRetainsVersions(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	require.NoError(t, backend.Put(ctx, testKey, strings.NewReader("kept"), "text/plain"))
	meta, err := backend.Head(ctx, testKey)
	require.NoError(t, err)

	require.NoError(t, backend.Delete(ctx, testKey))

	_, err = backend.Head(ctx, testKey)
	assert.ErrorIs(t, err, filestore.ErrObjectNotFound)

	reader, err := backend.DownloadVersion(ctx, testKey, meta.VersionID)
	require.NoError(t, err)
	reader.Close()
}

func TestList(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	keys := []string{
		"T001/uploads/2024/06/01/a.txt",
		"T001/uploads/2024/06/01/b.txt",
		"T002/uploads/2024/06/01/c.txt",
	}
	for _, key := range keys {
		require.NoError(t, backend.Put(ctx, key, strings.NewReader("x"), "text/plain"))
	}

	listed, err := backend.List(ctx, "T001/")
	require.NoError(t, err)
	assert.Equal(t, keys[:2], listed)

	all, err := backend.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
