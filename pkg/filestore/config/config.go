// Package config assembles the file storage backbone from configuration:
// registry, blob store, signer, and the guarded views each surface uses.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/datadives/project-roodha/pkg/filestore"
	"github.com/datadives/project-roodha/pkg/filestore/access"
	"github.com/datadives/project-roodha/pkg/filestore/presign"
	registrymem "github.com/datadives/project-roodha/pkg/filestore/registry/memory"
	registrypg "github.com/datadives/project-roodha/pkg/filestore/registry/postgres"
	memorystorage "github.com/datadives/project-roodha/pkg/filestore/storage/memory"
	s3storage "github.com/datadives/project-roodha/pkg/filestore/storage/s3"
)

// Principal names for the backend roles that hold read-write access, and
// for the edge delivery role that holds read-only access.
const (
	PrincipalBackendLambda = "backend-lambda"
	PrincipalBackendEC2    = "backend-ec2"
	PrincipalEdge          = "edge-delivery"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top
// of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:            "8080",
		Environment:     "development",
		RegistryType:    "memory",
		StorageType:     "memory",
		UploadTTL:       time.Hour,
		EdgeCacheTTL:    time.Minute,
		FrontendOrigins: []string{"http://localhost:3000"},
		WritePrincipals: []string{PrincipalBackendLambda, PrincipalBackendEC2},
		ServePrincipal:  PrincipalBackendLambda,
	}
}

// ServerConfig represents server configuration for the file storage
// backbone service.
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production

	// Registry configuration
	RegistryType string // "memory", "postgres"
	DatabaseURL  string

	// Storage configuration
	StorageType string // "memory", "s3"
	S3          s3storage.Config

	// Bucket overrides the environment-derived bucket name when set.
	Bucket string

	// Presign protocol
	SigningSecret string
	BaseURL       string
	UploadTTL     time.Duration

	// API auth. Empty disables JWT authentication.
	JWTSecret string

	// Edge delivery
	FrontendOrigins []string
	EdgeCacheTTL    time.Duration

	// Access control. WritePrincipals get read-write bindings on the
	// bucket; ServePrincipal is the identity the server itself acts as.
	WritePrincipals []string
	ServePrincipal  string
}

// BucketName returns the configured bucket, defaulting to the
// environment-derived application bucket name.
func (c *ServerConfig) BucketName() string {
	if c.Bucket != "" {
		return c.Bucket
	}
	return fmt.Sprintf("jobwork-app-files-%s", c.Environment)
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.RegistryType != "memory" && c.RegistryType != "postgres" {
		return errors.New("registry_type must be 'memory' or 'postgres'")
	}

	if c.RegistryType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if c.StorageType != "memory" && c.StorageType != "s3" {
		return errors.New("storage_type must be 'memory' or 's3'")
	}

	if c.StorageType == "memory" && c.SigningSecret == "" {
		return errors.New("signing_secret is required when using memory storage")
	}

	if c.UploadTTL <= 0 {
		return errors.New("upload_ttl must be positive")
	}

	if len(c.WritePrincipals) == 0 {
		return errors.New("at least one write principal is required")
	}

	found := false
	for _, p := range c.WritePrincipals {
		if p == c.ServePrincipal {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("serve principal %q not among write principals", c.ServePrincipal)
	}

	return nil
}

// Stack is the assembled service plus the guarded views each HTTP
// surface uses. UploadStore writes under the serve principal's identity;
// EdgeStore reads under the edge role and can never write.
type Stack struct {
	Service     filestore.Service
	Registry    filestore.Registry
	Store       filestore.BlobStore
	UploadStore filestore.BlobStore
	EdgeStore   filestore.BlobStore
	Signer      filestore.UploadSigner
	HMACSigner  *presign.Signer
	Policies    *access.PolicySet
}

// BuildStack creates the full service stack from the configuration.
func (c *ServerConfig) BuildStack(ctx context.Context) (*Stack, error) {
	registry, err := c.buildRegistry(ctx)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	bucket := c.BucketName()

	var (
		store      filestore.BlobStore
		signer     filestore.UploadSigner
		hmacSigner *presign.Signer
	)
	switch c.StorageType {
	case "s3":
		s3cfg := c.S3
		if s3cfg.Bucket == "" {
			s3cfg.Bucket = bucket
		}
		backend, err := s3storage.New(s3cfg)
		if err != nil {
			return nil, fmt.Errorf("build s3 storage: %w", err)
		}
		store = backend
		signer = backend
	default:
		store = memorystorage.New()
		hmacSigner = presign.New(
			presign.WithSecretKey(c.SigningSecret),
			presign.WithBucket(bucket),
			presign.WithBaseURL(c.BaseURL),
			presign.WithDefaultTTL(c.UploadTTL),
		)
		signer = hmacSigner
	}

	policies := access.NewPolicySet()
	for _, principal := range c.WritePrincipals {
		policies.BindRole(principal, access.ReadWriteBindings(bucket)...)
	}
	policies.BindRole(PrincipalEdge, access.ReadOnlyBindings(bucket)...)

	guardedStore := access.NewGuard(c.ServePrincipal, bucket, policies, store)
	guardedSigner := access.NewSignerGuard(c.ServePrincipal, bucket, policies, signer)
	edgeStore := access.NewGuard(PrincipalEdge, bucket, policies, store)

	svc, err := filestore.New(
		filestore.WithRegistry(registry),
		filestore.WithStore(guardedStore),
		filestore.WithSigner(guardedSigner),
		filestore.WithUploadTTL(c.UploadTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("build service: %w", err)
	}

	return &Stack{
		Service:     svc,
		Registry:    registry,
		Store:       store,
		UploadStore: guardedStore,
		EdgeStore:   edgeStore,
		Signer:      guardedSigner,
		HMACSigner:  hmacSigner,
		Policies:    policies,
	}, nil
}

func (c *ServerConfig) buildRegistry(ctx context.Context) (filestore.Registry, error) {
	switch c.RegistryType {
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		reg := registrypg.NewWithPool(pool)
		if err := reg.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate registry schema: %w", err)
		}
		return reg, nil
	default:
		return registrymem.New(), nil
	}
}

// splitOrigins parses a comma-separated origin list.
func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
