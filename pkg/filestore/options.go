package filestore

import (
	"time"

	"github.com/datadives/project-roodha/pkg/filestore/objectkey"
)

// Option configures the service
type Option func(*service)

// WithRegistry sets the tenant/user registry (required)
func WithRegistry(registry Registry) Option {
	return func(s *service) {
		s.registry = registry
	}
}

// WithStore sets the object store used for upload verification (required)
func WithStore(store BlobStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithSigner sets the delegated signing capability grants are issued
// through (required)
func WithSigner(signer UploadSigner) Option {
	return func(s *service) {
		s.signer = signer
	}
}

// WithKeyGenerator overrides the object key derivation strategy
func WithKeyGenerator(gen objectkey.Generator) Option {
	return func(s *service) {
		s.keygen = gen
	}
}

// WithClock overrides the clock used for key derivation and expiry checks.
// Key dates always come from this clock, never from the client.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// WithUploadTTL sets the default grant expiry window (default 1 hour)
func WithUploadTTL(ttl time.Duration) Option {
	return func(s *service) {
		s.uploadTTL = ttl
	}
}

// WithVerifyRetry configures the bounded retry used by VerifyUpload to
// tolerate store read-after-write latency (default 3 attempts, 200ms apart)
func WithVerifyRetry(attempts int, delay time.Duration) Option {
	return func(s *service) {
		s.verifyAttempts = attempts
		s.verifyDelay = delay
	}
}
