package presign

import (
	"strings"
	"time"
)

// Option is a functional option for configuring a Signer
type Option func(*Signer)

// WithSecretKey sets the secret key used for HMAC signing.
// The key should be at least 32 bytes.
func WithSecretKey(key string) Option {
	return func(s *Signer) {
		s.secretKey = []byte(key)
	}
}

// WithBucket sets the logical bucket name recorded on issued grants
func WithBucket(bucket string) Option {
	return func(s *Signer) {
		s.bucket = bucket
	}
}

// WithBaseURL prefixes signed URLs with an absolute base, e.g.
// "https://api.example.com"
func WithBaseURL(baseURL string) Option {
	return func(s *Signer) {
		s.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithURLPattern sets the URL pattern used for signing and object key
// extraction. The pattern must contain the {key} placeholder.
// Examples: "/upload/{key}", "/api/v1/upload/{key}"
func WithURLPattern(pattern string) Option {
	return func(s *Signer) {
		s.urlPattern = pattern
	}
}

// WithDefaultTTL sets the default expiry window for signed URLs
// (default 1 hour)
func WithDefaultTTL(ttl time.Duration) Option {
	return func(s *Signer) {
		s.defaultTTL = ttl
	}
}

// WithClock overrides the clock used for expiry; meant for tests
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}
