package filestore

import (
	"time"
)

// TenantStatus is the domain type for tenant lifecycle states.
type TenantStatus string

// Tenant status constants (typed). Tenants are never physically deleted in
// the hot path; deactivation is a status change.
const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
)

// UserStatus is the domain type for user lifecycle states.
type UserStatus string

// User status constants (typed).
const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// Tenant represents an isolated customer namespace.
type Tenant struct {
	ID        string    `json:"tenant_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// User belongs to exactly one tenant. The (TenantID, ID) pair is unique;
// ID is unique only within the tenant's namespace.
type User struct {
	TenantID  string    `json:"tenant_id"`
	ID        string    `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// UserPage is one page of a restartable user listing. NextCursor is empty
// on the last page; passing it back resumes the listing after the last
// returned user.
type UserPage struct {
	Users      []*User `json:"users"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
	VersionID    string
	Metadata     map[string]string
}

// UploadGrant is the ephemeral authorization produced by a signing
// operation. It authorizes exactly one PUT against exactly one key with
// one Content-Type, until ExpiresAt. Grants are never persisted or
// deduplicated; an unconsumed grant simply expires with no side effect.
type UploadGrant struct {
	Bucket      string    `json:"bucket"`
	Key         string    `json:"key"`
	Method      string    `json:"method"`
	ContentType string    `json:"content_type"`
	URL         string    `json:"url"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the grant's window has closed at the given instant.
func (g *UploadGrant) Expired(now time.Time) bool {
	return now.After(g.ExpiresAt)
}

// VerifyResult is the outcome of a successful upload verification.
type VerifyResult struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}
