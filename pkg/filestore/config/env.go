package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	s3storage "github.com/datadives/project-roodha/pkg/filestore/storage/s3"
)

// envConfig is the flat environment mapping read by cleanenv.
//
//	PORT            - server port (default: "8080")
//	DEPLOY_ENV      - deployment environment, part of the bucket name
//	DATABASE_URL    - postgres connection string; empty selects the
//	                  in-memory registry
//	STORAGE_TYPE    - "memory" or "s3"
//	S3_*            - region, endpoint, credentials for the s3 backend
//	BUCKET_NAME     - overrides the environment-derived bucket name
//	FRONTEND_ORIGIN - comma-separated CORS allow-list
//	UPLOAD_URL_TTL  - grant lifetime in seconds (default: 3600)
//	SIGNING_SECRET  - HMAC key for the built-in signer
//	JWT_SECRET      - API token key; empty disables authentication
type envConfig struct {
	Port           string `env:"PORT" env-default:"8080"`
	DeployEnv      string `env:"DEPLOY_ENV" env-default:"development"`
	DatabaseURL    string `env:"DATABASE_URL"`
	StorageType    string `env:"STORAGE_TYPE" env-default:"memory"`
	Bucket         string `env:"BUCKET_NAME"`
	BaseURL        string `env:"BASE_URL"`
	FrontendOrigin string `env:"FRONTEND_ORIGIN" env-default:"http://localhost:3000"`
	UploadTTLSec   int64  `env:"UPLOAD_URL_TTL" env-default:"3600"`
	EdgeCacheSec   int64  `env:"EDGE_CACHE_TTL" env-default:"60"`
	SigningSecret  string `env:"SIGNING_SECRET"`
	JWTSecret      string `env:"JWT_SECRET"`

	S3Region       string `env:"S3_REGION" env-default:"us-east-1"`
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3AccessKey    string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey    string `env:"S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	S3EnableSSE    bool   `env:"S3_ENABLE_SSE" env-default:"true"`
}

// WithEnv applies environment variable overrides.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env envConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("read environment: %w", err)
		}

		c.Port = env.Port
		c.Environment = env.DeployEnv
		c.StorageType = env.StorageType
		c.Bucket = env.Bucket
		c.BaseURL = env.BaseURL
		c.FrontendOrigins = splitOrigins(env.FrontendOrigin)
		c.UploadTTL = time.Duration(env.UploadTTLSec) * time.Second
		c.EdgeCacheTTL = time.Duration(env.EdgeCacheSec) * time.Second
		c.SigningSecret = env.SigningSecret
		c.JWTSecret = env.JWTSecret

		if env.DatabaseURL != "" {
			c.RegistryType = "postgres"
			c.DatabaseURL = env.DatabaseURL
		}

		c.S3 = s3storage.Config{
			Region:          env.S3Region,
			Endpoint:        env.S3Endpoint,
			AccessKeyID:     env.S3AccessKey,
			SecretAccessKey: env.S3SecretKey,
			UsePathStyle:    env.S3UsePathStyle,
			PresignTTL:      int(env.UploadTTLSec),
			EnableSSE:       env.S3EnableSSE,
			SSEAlgorithm:    "AES256",
		}

		return nil
	}
}
