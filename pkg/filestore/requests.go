package filestore

import "time"

// Request/Response DTOs

// UploadRequest contains the client-supplied parameters for requesting an
// upload grant. The object key date is always derived from the server's
// clock; there is deliberately no date field here.
type UploadRequest struct {
	TenantID    string
	Module      string
	FileName    string
	ContentType string

	// TTL overrides the service default expiry window when positive.
	TTL time.Duration
}

// ListUsersRequest contains parameters for listing a tenant's users.
type ListUsersRequest struct {
	TenantID string

	// Cursor resumes a prior listing after the given user ID. Empty starts
	// from the beginning.
	Cursor string

	// Limit caps the page size. Zero uses the registry default.
	Limit int
}
