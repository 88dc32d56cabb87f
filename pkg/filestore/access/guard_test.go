package access_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datadives/project-roodha/pkg/filestore"
	"github.com/datadives/project-roodha/pkg/filestore/access"
	"github.com/datadives/project-roodha/pkg/filestore/presign"
	memorystorage "github.com/datadives/project-roodha/pkg/filestore/storage/memory"
)

const testBucket = "app-files"

func setupPolicies() *access.PolicySet {
	policies := access.NewPolicySet()
	policies.BindRole("backend", access.ReadWriteBindings(testBucket)...)
	policies.BindRole("edge", access.ReadOnlyBindings(testBucket)...)
	return policies
}

func TestGuardReadWrite(t *testing.T) {
	ctx := context.Background()
	store := memorystorage.New()
	guard := access.NewGuard("backend", testBucket, setupPolicies(), store)

	key := "T001/uploads/2024/06/01/f.txt"
	err := guard.Put(ctx, key, strings.NewReader("hello"), "text/plain")
	require.NoError(t, err)

	meta, err := guard.Head(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(5), meta.Size)

	keys, err := guard.List(ctx, "T001/")
	require.NoError(t, err)
	assert.Contains(t, keys, key)

	require.NoError(t, guard.Delete(ctx, key))
}

func TestGuardReadOnlyDeniesWrites(t *testing.T) {
	ctx := context.Background()
	store := memorystorage.New()
	policies := setupPolicies()

	backend := access.NewGuard("backend", testBucket, policies, store)
	edge := access.NewGuard("edge", testBucket, policies, store)

	key := "T001/uploads/2024/06/01/f.txt"
	require.NoError(t, backend.Put(ctx, key, strings.NewReader("hello"), "text/plain"))

	// Reads pass through
	meta, err := edge.Head(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", meta.ContentType)

	// Writes and deletes are stopped at the guard
	err = edge.Put(ctx, key, strings.NewReader("evil"), "text/plain")
	assert.ErrorIs(t, err, filestore.ErrAccessDenied)

	err = edge.Delete(ctx, key)
	assert.ErrorIs(t, err, filestore.ErrAccessDenied)

	// List was not granted to the read role
	_, err = edge.List(ctx, "")
	assert.ErrorIs(t, err, filestore.ErrAccessDenied)

	// The denial carries the principal for audit
	var storageErr *filestore.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "edge", storageErr.Backend)
}

func TestGuardUnknownPrincipal(t *testing.T) {
	ctx := context.Background()
	guard := access.NewGuard("stranger", testBucket, setupPolicies(), memorystorage.New())

	_, err := guard.Download(ctx, "T001/uploads/2024/06/01/f.txt")
	assert.ErrorIs(t, err, filestore.ErrAccessDenied)
}

func TestSignerGuard(t *testing.T) {
	ctx := context.Background()
	signer := presign.New(
		presign.WithSecretKey("secret"),
		presign.WithBucket(testBucket),
		presign.WithBaseURL("https://files.example.com"),
	)

	allowed := access.NewSignerGuard("backend", testBucket, setupPolicies(), signer)
	grant, err := allowed.SignUpload(ctx, "T001/uploads/2024/06/01/f.txt", "text/plain", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, testBucket, grant.Bucket)

	denied := access.NewSignerGuard("edge", testBucket, setupPolicies(), signer)
	_, err = denied.SignUpload(ctx, "T001/uploads/2024/06/01/f.txt", "text/plain", time.Hour)
	assert.ErrorIs(t, err, filestore.ErrAccessDenied)
}
