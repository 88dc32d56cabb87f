package filestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/datadives/project-roodha/pkg/filestore/objectkey"
)

const (
	defaultUploadTTL      = 1 * time.Hour
	defaultVerifyAttempts = 3
	defaultVerifyDelay    = 200 * time.Millisecond
)

type service struct {
	registry Registry
	store    BlobStore
	signer   UploadSigner
	keygen   objectkey.Generator
	now      func() time.Time

	uploadTTL      time.Duration
	verifyAttempts int
	verifyDelay    time.Duration
}

// New creates a new Service with the given options. A registry, a store
// and a signing capability are required.
func New(opts ...Option) (Service, error) {
	s := &service{
		keygen:         objectkey.NewDateGenerator(),
		now:            time.Now,
		uploadTTL:      defaultUploadTTL,
		verifyAttempts: defaultVerifyAttempts,
		verifyDelay:    defaultVerifyDelay,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil {
		return nil, errors.New("registry is required")
	}
	if s.store == nil {
		return nil, errors.New("store is required")
	}
	if s.signer == nil {
		return nil, errors.New("signer is required")
	}
	if s.verifyAttempts < 1 {
		s.verifyAttempts = 1
	}

	return s, nil
}

// Tenant/user registry operations

func (s *service) CreateTenant(ctx context.Context, tenantID string) (*Tenant, error) {
	if tenantID == "" {
		return nil, &RegistryError{TenantID: tenantID, Op: "create_tenant", Err: ErrInvalidRequest}
	}
	return s.registry.CreateTenant(ctx, tenantID)
}

func (s *service) CreateUser(ctx context.Context, tenantID, userID string) (*User, error) {
	if tenantID == "" || userID == "" {
		return nil, &RegistryError{TenantID: tenantID, UserID: userID, Op: "create_user", Err: ErrInvalidRequest}
	}
	return s.registry.CreateUser(ctx, tenantID, userID)
}

func (s *service) ListUsers(ctx context.Context, req ListUsersRequest) (*UserPage, error) {
	if req.TenantID == "" {
		return nil, &RegistryError{Op: "list_users", Err: ErrInvalidRequest}
	}
	return s.registry.ListUsers(ctx, req)
}

// Presigned upload protocol

// RequestUpload derives the object key and issues a fresh grant through
// the signing capability. Re-requesting for the same inputs produces the
// same derived key but an independent grant; grants are never cached.
func (s *service) RequestUpload(ctx context.Context, req UploadRequest) (*UploadGrant, error) {
	if err := validateUploadRequest(req); err != nil {
		return nil, &GrantError{TenantID: req.TenantID, Op: "request_upload", Err: err}
	}

	// The registry is the authority on tenant existence; a grant must
	// never be issued for an unknown tenant.
	if _, err := s.registry.GetTenant(ctx, req.TenantID); err != nil {
		return nil, &GrantError{TenantID: req.TenantID, Op: "request_upload", Err: err}
	}

	key := s.keygen.GenerateKey(req.TenantID, req.Module, req.FileName, s.now().UTC())

	// Isolation invariant: the key prefix must be the authenticated tenant,
	// regardless of the generator in use.
	if !objectkey.BelongsToTenant(key, req.TenantID) {
		return nil, &GrantError{
			TenantID: req.TenantID,
			Key:      key,
			Op:       "request_upload",
			Err:      fmt.Errorf("derived key escapes tenant namespace: %w", ErrAccessDenied),
		}
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = s.uploadTTL
	}

	grant, err := s.signer.SignUpload(ctx, key, req.ContentType, ttl)
	if err != nil {
		return nil, &GrantError{TenantID: req.TenantID, Key: key, Op: "request_upload", Err: err}
	}

	return grant, nil
}

// VerifyUpload confirms that the client completed the PUT for a grant.
// It polls Head with a bounded retry to tolerate store read-after-write
// latency; success requires the object to exist with a positive size.
// Absence after the retry budget is terminal: ErrUploadExpired.
func (s *service) VerifyUpload(ctx context.Context, grant *UploadGrant) (*VerifyResult, error) {
	if grant == nil || grant.Key == "" {
		return nil, &GrantError{Op: "verify_upload", Err: ErrInvalidRequest}
	}

	tenantID := objectkey.TenantOf(grant.Key)

	var lastErr error
	for attempt := 0; attempt < s.verifyAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.verifyDelay):
			}
		}

		meta, err := s.store.Head(ctx, grant.Key)
		if err != nil {
			if errors.Is(err, ErrObjectNotFound) {
				lastErr = err
				continue
			}
			return nil, &GrantError{TenantID: tenantID, Key: grant.Key, Op: "verify_upload", Err: err}
		}

		if meta.Size <= 0 {
			lastErr = fmt.Errorf("object has no content")
			continue
		}

		return &VerifyResult{
			Key:          grant.Key,
			Size:         meta.Size,
			ContentType:  meta.ContentType,
			ETag:         meta.ETag,
			LastModified: meta.LastModified,
		}, nil
	}

	// The object never became visible. Whether the window has already
	// closed or the client simply never uploaded, the grant is spent.
	err := fmt.Errorf("%w: %v", ErrUploadExpired, lastErr)
	return nil, &GrantError{TenantID: tenantID, Key: grant.Key, Op: "verify_upload", Err: err}
}

func validateUploadRequest(req UploadRequest) error {
	switch {
	case req.TenantID == "":
		return fmt.Errorf("%w: tenant_id is required", ErrInvalidRequest)
	case req.Module == "":
		return fmt.Errorf("%w: module is required", ErrInvalidRequest)
	case req.FileName == "":
		return fmt.Errorf("%w: file_name is required", ErrInvalidRequest)
	case strings.ContainsAny(req.FileName, "/\\"):
		return fmt.Errorf("%w: file_name must not contain path separators", ErrInvalidRequest)
	case req.ContentType == "":
		return fmt.Errorf("%w: content_type is required", ErrInvalidRequest)
	}
	return nil
}
