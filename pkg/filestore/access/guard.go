package access

import (
	"context"
	"io"
	"time"

	"github.com/datadives/project-roodha/pkg/filestore"
)

// Guard enforces a PolicySet at the store boundary. It wraps a BlobStore
// on behalf of one principal; any operation outside the principal's
// granted set fails with ErrAccessDenied here, before it reaches the
// backend. Application code must not attempt its own authorization
// shortcut around the guard.
type Guard struct {
	principal string
	bucket    string
	policies  *PolicySet
	store     filestore.BlobStore
}

// NewGuard wraps a store for the given principal.
func NewGuard(principal, bucket string, policies *PolicySet, store filestore.BlobStore) *Guard {
	return &Guard{
		principal: principal,
		bucket:    bucket,
		policies:  policies,
		store:     store,
	}
}

// Principal returns the identity this guard acts as.
func (g *Guard) Principal() string {
	return g.principal
}

func (g *Guard) authorize(action Action, key, op string) error {
	resource := g.bucket
	if key != "" {
		resource = g.bucket + "/" + key
	}
	if !g.policies.Allows(g.principal, action, resource) {
		return &filestore.StorageError{
			Backend: g.principal,
			Key:     key,
			Op:      op,
			Err:     filestore.ErrAccessDenied,
		}
	}
	return nil
}

func (g *Guard) Put(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if err := g.authorize(ActionPut, key, "put"); err != nil {
		return err
	}
	return g.store.Put(ctx, key, reader, contentType)
}

func (g *Guard) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := g.authorize(ActionGet, key, "download"); err != nil {
		return nil, err
	}
	return g.store.Download(ctx, key)
}

func (g *Guard) Head(ctx context.Context, key string) (*filestore.ObjectMeta, error) {
	if err := g.authorize(ActionGet, key, "head"); err != nil {
		return nil, err
	}
	return g.store.Head(ctx, key)
}

func (g *Guard) Delete(ctx context.Context, key string) error {
	if err := g.authorize(ActionDelete, key, "delete"); err != nil {
		return err
	}
	return g.store.Delete(ctx, key)
}

func (g *Guard) List(ctx context.Context, prefix string) ([]string, error) {
	// List is a bucket-scope action
	if err := g.authorize(ActionList, "", "list"); err != nil {
		return nil, err
	}
	return g.store.List(ctx, prefix)
}

// SignerGuard applies the same policy check to grant issuance: signing a
// PUT URL for a key requires the Put grant the eventual upload would
// need. This keeps the signing credential inside the access control
// layer instead of handing the service an unchecked signer.
type SignerGuard struct {
	principal string
	bucket    string
	policies  *PolicySet
	signer    filestore.UploadSigner
}

// NewSignerGuard wraps an UploadSigner for the given principal.
func NewSignerGuard(principal, bucket string, policies *PolicySet, signer filestore.UploadSigner) *SignerGuard {
	return &SignerGuard{
		principal: principal,
		bucket:    bucket,
		policies:  policies,
		signer:    signer,
	}
}

func (g *SignerGuard) SignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (*filestore.UploadGrant, error) {
	if !g.policies.Allows(g.principal, ActionPut, g.bucket+"/"+key) {
		return nil, &filestore.StorageError{
			Backend: g.principal,
			Key:     key,
			Op:      "sign_upload",
			Err:     filestore.ErrAccessDenied,
		}
	}
	return g.signer.SignUpload(ctx, key, contentType, ttl)
}

var (
	_ filestore.BlobStore    = (*Guard)(nil)
	_ filestore.UploadSigner = (*SignerGuard)(nil)
)
