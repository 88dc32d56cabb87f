package presign

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/datadives/project-roodha/pkg/filestore"
)

// Signer generates and validates HMAC-signed upload URLs for self-hosted
// store endpoints. A signature covers exactly one method, one key, one
// Content-Type, one expiry instant and one per-grant nonce; changing any
// of them invalidates the URL. The nonce keeps grants independent even
// when the same key is signed twice within the same second.
type Signer struct {
	secretKey  []byte
	bucket     string
	baseURL    string
	urlPattern string
	defaultTTL time.Duration
	now        func() time.Time
}

// New creates a new Signer with the given options.
func New(opts ...Option) *Signer {
	s := &Signer{
		defaultTTL: 1 * time.Hour,
		urlPattern: "/upload/{key}",
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SignUpload implements filestore.UploadSigner. It returns a grant whose
// URL is valid for a single PUT of the given content type against the
// given key until now+ttl.
func (s *Signer) SignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (*filestore.UploadGrant, error) {
	if len(s.secretKey) == 0 {
		return nil, ErrNoSecretKey
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(ttl)
	nonce := uuid.NewString()

	path := strings.Replace(s.urlPattern, "{key}", key, 1)
	signature := s.signature(http.MethodPut, path, contentType, nonce, expiresAt.Unix())

	url := fmt.Sprintf("%s%s?signature=%s&expires=%d&nonce=%s", s.baseURL, path, signature, expiresAt.Unix(), nonce)

	return &filestore.UploadGrant{
		Bucket:      s.bucket,
		Key:         key,
		Method:      http.MethodPut,
		ContentType: contentType,
		URL:         url,
		IssuedAt:    issuedAt,
		ExpiresAt:   expiresAt,
	}, nil
}

// ValidateRequest validates the signature and expiration of an incoming
// upload request. The request's own Content-Type header participates in
// signature recomputation, so an upload with a different type than the
// one signed fails with ErrSignatureMismatch.
func (s *Signer) ValidateRequest(r *http.Request) error {
	query := r.URL.Query()
	signature := query.Get("signature")
	expiresStr := query.Get("expires")
	nonce := query.Get("nonce")

	if signature == "" {
		return ErrMissingSignature
	}
	if expiresStr == "" {
		return ErrMissingExpiration
	}
	if nonce == "" {
		return ErrMissingNonce
	}

	expiresAt, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExpiration, err)
	}

	return s.Validate(r.Method, r.URL.Path, r.Header.Get("Content-Type"), nonce, signature, expiresAt)
}

// Validate checks a signature against the method, path, content type,
// nonce and expiry it claims to cover.
func (s *Signer) Validate(method, path, contentType, nonce, signature string, expiresAt int64) error {
	if s.now().Unix() > expiresAt {
		return filestore.ErrUploadExpired
	}

	expected := s.signature(method, path, contentType, nonce, expiresAt)

	// Constant-time comparison to prevent timing attacks
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return filestore.ErrSignatureMismatch
	}

	return nil
}

// ExtractObjectKey extracts the object key from a URL path based on the
// configured URL pattern.
func (s *Signer) ExtractObjectKey(path string) (string, error) {
	idx := strings.Index(s.urlPattern, "{key}")
	if idx == -1 {
		return "", fmt.Errorf("URL pattern does not contain {key} placeholder")
	}

	prefix := s.urlPattern[:idx]
	suffix := s.urlPattern[idx+len("{key}"):]

	if !strings.HasPrefix(path, prefix) {
		return "", fmt.Errorf("path does not match URL pattern prefix")
	}

	key := strings.TrimPrefix(path, prefix)
	if suffix != "" {
		key = strings.TrimSuffix(key, suffix)
	}
	if key == "" {
		return "", fmt.Errorf("empty object key")
	}

	return key, nil
}

// signature computes the hex HMAC-SHA256 over
// METHOD|PATH|CONTENT_TYPE|NONCE|EXPIRES.
func (s *Signer) signature(method, path, contentType, nonce string, expiresAt int64) string {
	payload := fmt.Sprintf("%s|%s|%s|%s|%d", method, path, contentType, nonce, expiresAt)
	h := hmac.New(sha256.New, s.secretKey)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

var _ filestore.UploadSigner = (*Signer)(nil)
