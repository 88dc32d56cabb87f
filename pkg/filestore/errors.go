package filestore

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrTenantNotFound indicates the referenced tenant does not exist
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrDuplicateKey indicates a tenant or user with the same identity already exists
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrObjectNotFound indicates an object was not found in the store
	ErrObjectNotFound = errors.New("object not found")

	// ErrAccessDenied indicates the principal is not granted the attempted action
	ErrAccessDenied = errors.New("access denied")

	// ErrInsecureTransport indicates a request arrived without transport encryption
	ErrInsecureTransport = errors.New("insecure transport")

	// ErrSignatureMismatch indicates a presigned URL signature did not validate,
	// including uploads whose Content-Type differs from the one that was signed
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrUploadExpired indicates a granted upload was never completed within its window
	ErrUploadExpired = errors.New("upload expired")

	// ErrMethodNotAllowed indicates an HTTP method outside the allowed set
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrInvalidRequest indicates a malformed or incomplete request
	ErrInvalidRequest = errors.New("invalid request")
)

// RegistryError represents an error from a tenant/user registry operation
type RegistryError struct {
	TenantID string
	UserID   string
	Op       string
	Err      error
}

func (e *RegistryError) Error() string {
	if e.UserID != "" {
		return fmt.Sprintf("registry operation %s failed for user %s/%s: %v", e.Op, e.TenantID, e.UserID, e.Err)
	}
	return fmt.Sprintf("registry operation %s failed for tenant %s: %v", e.Op, e.TenantID, e.Err)
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

// StorageError represents an error from a storage operation
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// GrantError represents an error from the presigned upload protocol
type GrantError struct {
	TenantID string
	Key      string
	Op       string
	Err      error
}

func (e *GrantError) Error() string {
	return fmt.Sprintf("upload grant operation %s failed for tenant %s key %s: %v", e.Op, e.TenantID, e.Key, e.Err)
}

func (e *GrantError) Unwrap() error {
	return e.Err
}
