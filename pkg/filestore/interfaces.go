package filestore

import (
	"context"
	"io"
	"time"
)

// BlobStore defines the interface for object storage backends.
//
// Implementations must provide atomic per-key writes: a Put either fully
// succeeds or leaves the prior version intact. Concurrent Puts to the same
// key are last-writer-wins.
type BlobStore interface {
	// Put uploads an object under the given key with the declared content type
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Download returns the object bytes for the given key
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Head retrieves metadata for an object without fetching its bytes
	Head(ctx context.Context, key string) (*ObjectMeta, error)

	// Delete removes the current version of an object
	Delete(ctx context.Context, key string) error

	// List returns the keys under the given prefix, ascending
	List(ctx context.Context, prefix string) ([]string, error)
}

// UploadSigner is the delegated write credential the presigned upload
// protocol signs with. It is passed into the service as an explicit
// capability; the service never holds a long-lived store credential of
// its own, and clients only ever see the signed URL.
type UploadSigner interface {
	// SignUpload produces a grant authorizing a single PUT of the given
	// content type against the given key, valid for ttl from now.
	SignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (*UploadGrant, error)
}

// Registry defines the interface for tenant/user persistence.
//
// The registry is append-mostly: there are no update or delete operations,
// and deactivation is modeled as a status attribute. Referential integrity
// (every user references an existing tenant) is enforced here at write
// time, not delegated to storage.
type Registry interface {
	// CreateTenant records a new tenant. Fails with ErrDuplicateKey if the
	// tenant already exists.
	CreateTenant(ctx context.Context, tenantID string) (*Tenant, error)

	// GetTenant returns the tenant or ErrTenantNotFound
	GetTenant(ctx context.Context, tenantID string) (*Tenant, error)

	// CreateUser records a new user under an existing tenant. Fails with
	// ErrTenantNotFound if the tenant is absent, ErrDuplicateKey if the
	// (tenant, user) pair exists.
	CreateUser(ctx context.Context, tenantID, userID string) (*User, error)

	// ListUsers returns users of a tenant ordered by user ID ascending.
	// The listing is restartable: resume with the returned cursor.
	ListUsers(ctx context.Context, req ListUsersRequest) (*UserPage, error)
}
