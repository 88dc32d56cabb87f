// Package objectkey derives hierarchical object keys for tenant uploads.
//
// Keys have the shape tenant/module/YYYY/MM/DD/filename. The leading
// tenant segment is the isolation boundary: no key may be issued or
// accepted whose prefix does not match the requesting tenant.
package objectkey

import (
	"fmt"
	"strings"
	"time"
)

// Generator defines the interface for object key derivation strategies
type Generator interface {
	// GenerateKey derives the storage key for an upload. The date segments
	// come from now, which callers must take from the server clock in UTC.
	GenerateKey(tenantID, module, fileName string, now time.Time) string
}

// DateGenerator produces date-partitioned keys:
// tenant/module/YYYY/MM/DD/filename
type DateGenerator struct{}

func NewDateGenerator() *DateGenerator {
	return &DateGenerator{}
}

func (g *DateGenerator) GenerateKey(tenantID, module, fileName string, now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("%s/%s/%04d/%02d/%02d/%s",
		SanitizePathComponent(tenantID),
		SanitizePathComponent(module),
		now.Year(), int(now.Month()), now.Day(),
		SanitizeFileName(fileName))
}

// TenantOf returns the tenant segment of a key, the part before the first
// slash. Empty if the key has no slash.
func TenantOf(key string) string {
	idx := strings.IndexByte(key, '/')
	if idx <= 0 {
		return ""
	}
	return key[:idx]
}

// BelongsToTenant reports whether the key's prefix segment matches the
// given tenant.
func BelongsToTenant(key, tenantID string) bool {
	return tenantID != "" && TenantOf(key) == SanitizePathComponent(tenantID)
}

// SanitizeFileName replaces characters that are problematic in object keys
// or filesystems.
func SanitizeFileName(fileName string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return replacer.Replace(fileName)
}

// SanitizePathComponent sanitizes a single path segment. Tenant
// identifiers keep their case; only separators and whitespace are
// replaced.
func SanitizePathComponent(component string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		" ", "_",
	)
	return replacer.Replace(strings.TrimSpace(component))
}
