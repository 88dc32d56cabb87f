package filestore

import (
	"context"
)

// Service defines the main interface for the file storage backbone: the
// tenant/user registry operations and the presigned upload protocol.
type Service interface {
	// Tenant/user registry operations
	CreateTenant(ctx context.Context, tenantID string) (*Tenant, error)
	CreateUser(ctx context.Context, tenantID, userID string) (*User, error)
	ListUsers(ctx context.Context, req ListUsersRequest) (*UserPage, error)

	// Presigned upload protocol
	RequestUpload(ctx context.Context, req UploadRequest) (*UploadGrant, error)
	VerifyUpload(ctx context.Context, grant *UploadGrant) (*VerifyResult, error)
}
