package memory

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/datadives/project-roodha/pkg/filestore"
)

const backendName = "memory"

type version struct {
	data         []byte
	contentType  string
	etag         string
	versionID    string
	lastModified time.Time
}

// Backend is an in-memory, versioned implementation of
// filestore.BlobStore. Every Put retains the prior version, retrievable
// by version id; writes are atomic per key and last-writer-wins.
type Backend struct {
	mu       sync.RWMutex
	current  map[string]*version
	versions map[string][]*version
	now      func() time.Time
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		current:  make(map[string]*version),
		versions: make(map[string][]*version),
		now:      time.Now,
	}
}

// NewWithClock creates a backend with an injected clock; meant for tests
func NewWithClock(now func() time.Time) *Backend {
	b := New()
	b.now = now
	return b
}

func (b *Backend) Put(ctx context.Context, key string, reader io.Reader, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return &filestore.StorageError{Backend: backendName, Key: key, Op: "put", Err: err}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	sum := md5.Sum(data)
	v := &version{
		data:         data,
		contentType:  contentType,
		etag:         hex.EncodeToString(sum[:]),
		versionID:    uuid.New().String(),
		lastModified: b.now().UTC(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if prior, exists := b.current[key]; exists {
		b.versions[key] = append(b.versions[key], prior)
	}
	b.current[key] = v

	return nil
}

func (b *Backend) Head(ctx context.Context, key string) (*filestore.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, exists := b.current[key]
	if !exists {
		return nil, &filestore.StorageError{Backend: backendName, Key: key, Op: "head", Err: filestore.ErrObjectNotFound}
	}

	return &filestore.ObjectMeta{
		Key:          key,
		Size:         int64(len(v.data)),
		ContentType:  v.contentType,
		LastModified: v.lastModified,
		ETag:         v.etag,
		VersionID:    v.versionID,
		Metadata:     map[string]string{"content_type": v.contentType},
	}, nil
}

func (b *Backend) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, exists := b.current[key]
	if !exists {
		return nil, &filestore.StorageError{Backend: backendName, Key: key, Op: "download", Err: filestore.ErrObjectNotFound}
	}

	return io.NopCloser(bytes.NewReader(v.data)), nil
}

// DownloadVersion returns the bytes of a retained prior (or current)
// version by version id. Not part of the BlobStore interface; mirrors
// the version-retrieval guarantee of a versioned bucket.
func (b *Backend) DownloadVersion(ctx context.Context, key, versionID string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if v, exists := b.current[key]; exists && v.versionID == versionID {
		return io.NopCloser(bytes.NewReader(v.data)), nil
	}
	for _, v := range b.versions[key] {
		if v.versionID == versionID {
			return io.NopCloser(bytes.NewReader(v.data)), nil
		}
	}

	return nil, &filestore.StorageError{Backend: backendName, Key: key, Op: "download_version", Err: filestore.ErrObjectNotFound}
}

// Delete removes the current version. Prior versions stay retained, as a
// versioned bucket would keep them.
func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	v, exists := b.current[key]
	if !exists {
		return &filestore.StorageError{Backend: backendName, Key: key, Op: "delete", Err: filestore.ErrObjectNotFound}
	}

	b.versions[key] = append(b.versions[key], v)
	delete(b.current, key)

	return nil
}

func (b *Backend) List(ctx context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var keys []string
	for key := range b.current {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	return keys, nil
}

var _ filestore.BlobStore = (*Backend)(nil)
