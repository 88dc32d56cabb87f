package s3

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ProvisionOptions declare the bucket posture EnsureBucket converges on.
// They mirror the secure defaults for a private upload bucket: no public
// access, versioning, SSE at rest, TLS-only transport, CORS limited to
// the verbs the presigned protocol needs, and a cold-tier lifecycle.
type ProvisionOptions struct {
	BlockPublicAccess bool
	Versioning        bool
	EnableSSE         bool
	EnforceTLS        bool

	// CORSOrigins is the tenant frontend allow-list. Empty disables CORS
	// provisioning.
	CORSOrigins []string

	// TransitionDays moves objects to the infrequent-access tier; zero
	// disables the transition. ExpirationDays expires them outright.
	TransitionDays  int32
	ExpirationDays  int32
	LifecyclePrefix string

	// RemovalPolicy decides what Teardown may do with the bucket.
	RemovalPolicy RemovalPolicy
}

// RemovalPolicy controls bucket disposal on teardown.
type RemovalPolicy string

const (
	// RemovalPolicyRetain keeps the bucket and its objects; Teardown is a
	// no-op. The production setting.
	RemovalPolicyRetain RemovalPolicy = "retain"

	// RemovalPolicyDestroy deletes the bucket on teardown. Development
	// environments only.
	RemovalPolicyDestroy RemovalPolicy = "destroy"
)

// DefaultProvisionOptions returns the posture for an application upload
// bucket: 30-day infrequent-access transition, 365-day expiry, bucket
// retained on teardown.
func DefaultProvisionOptions(corsOrigins []string) ProvisionOptions {
	return ProvisionOptions{
		BlockPublicAccess: true,
		Versioning:        true,
		EnableSSE:         true,
		EnforceTLS:        true,
		CORSOrigins:       corsOrigins,
		TransitionDays:    30,
		ExpirationDays:    365,
		RemovalPolicy:     RemovalPolicyRetain,
	}
}

// EnsureBucket creates the bucket when absent and applies the declared
// posture. It is idempotent; each Put call overwrites the corresponding
// bucket configuration with the declared one.
func (b *Backend) EnsureBucket(ctx context.Context, opts ProvisionOptions) error {
	if err := b.createBucketIfNotExists(ctx); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", b.bucket, err)
	}

	if opts.BlockPublicAccess {
		_, err := b.client.PutPublicAccessBlock(ctx, &s3.PutPublicAccessBlockInput{
			Bucket: aws.String(b.bucket),
			PublicAccessBlockConfiguration: &types.PublicAccessBlockConfiguration{
				BlockPublicAcls:       aws.Bool(true),
				BlockPublicPolicy:     aws.Bool(true),
				IgnorePublicAcls:      aws.Bool(true),
				RestrictPublicBuckets: aws.Bool(true),
			},
		})
		if err != nil {
			return fmt.Errorf("block public access on %s: %w", b.bucket, err)
		}
	}

	if opts.Versioning {
		_, err := b.client.PutBucketVersioning(ctx, &s3.PutBucketVersioningInput{
			Bucket: aws.String(b.bucket),
			VersioningConfiguration: &types.VersioningConfiguration{
				Status: types.BucketVersioningStatusEnabled,
			},
		})
		if err != nil {
			return fmt.Errorf("enable versioning on %s: %w", b.bucket, err)
		}
	}

	if opts.EnableSSE {
		_, err := b.client.PutBucketEncryption(ctx, &s3.PutBucketEncryptionInput{
			Bucket: aws.String(b.bucket),
			ServerSideEncryptionConfiguration: &types.ServerSideEncryptionConfiguration{
				Rules: []types.ServerSideEncryptionRule{
					{
						ApplyServerSideEncryptionByDefault: &types.ServerSideEncryptionByDefault{
							SSEAlgorithm: types.ServerSideEncryptionAes256,
						},
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("enable encryption on %s: %w", b.bucket, err)
		}
	}

	if opts.EnforceTLS {
		if err := b.putTLSOnlyPolicy(ctx); err != nil {
			return fmt.Errorf("enforce TLS on %s: %w", b.bucket, err)
		}
	}

	if len(opts.CORSOrigins) > 0 {
		if err := b.putCORS(ctx, opts.CORSOrigins); err != nil {
			return fmt.Errorf("configure CORS on %s: %w", b.bucket, err)
		}
	}

	if opts.TransitionDays > 0 || opts.ExpirationDays > 0 {
		if err := b.putLifecycle(ctx, opts); err != nil {
			return fmt.Errorf("configure lifecycle on %s: %w", b.bucket, err)
		}
	}

	return nil
}

// Teardown disposes of the bucket according to the removal policy. With
// RemovalPolicyRetain it does nothing; with RemovalPolicyDestroy it
// deletes every object (and object version marker the delete creates)
// and then the bucket itself.
func (b *Backend) Teardown(ctx context.Context, opts ProvisionOptions) error {
	if opts.RemovalPolicy != RemovalPolicyDestroy {
		return nil
	}

	keys, err := b.List(ctx, "")
	if err != nil {
		return fmt.Errorf("teardown %s: %w", b.bucket, err)
	}
	for _, key := range keys {
		if err := b.Delete(ctx, key); err != nil {
			return fmt.Errorf("teardown %s: %w", b.bucket, err)
		}
	}

	if _, err := b.client.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(b.bucket),
	}); err != nil {
		return fmt.Errorf("teardown %s: %w", b.bucket, err)
	}

	return nil
}

func (b *Backend) createBucketIfNotExists(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) &&
		!strings.Contains(err.Error(), "NoSuchBucket") &&
		!strings.Contains(err.Error(), "NotFound") {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	createInput := &s3.CreateBucketInput{
		Bucket: aws.String(b.bucket),
	}
	if b.config.Region != "us-east-1" {
		createInput.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(b.config.Region),
		}
	}

	_, err = b.client.CreateBucket(ctx, createInput)
	if err != nil {
		if strings.Contains(err.Error(), "BucketAlreadyExists") ||
			strings.Contains(err.Error(), "BucketAlreadyOwnedByYou") {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// putTLSOnlyPolicy denies every request that arrives without transport
// encryption, so insecure calls fail at the bucket regardless of caller.
func (b *Backend) putTLSOnlyPolicy(ctx context.Context) error {
	policy := fmt.Sprintf(`{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Sid": "DenyInsecureTransport",
      "Effect": "Deny",
      "Principal": "*",
      "Action": "s3:*",
      "Resource": ["arn:aws:s3:::%[1]s", "arn:aws:s3:::%[1]s/*"],
      "Condition": {"Bool": {"aws:SecureTransport": "false"}}
    }
  ]
}`, b.bucket)

	_, err := b.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(b.bucket),
		Policy: aws.String(policy),
	})
	return err
}

// putCORS allows exactly the verbs the protocol uses: presigned PUT from
// the browser, GET/HEAD for reads.
func (b *Backend) putCORS(ctx context.Context, origins []string) error {
	_, err := b.client.PutBucketCors(ctx, &s3.PutBucketCorsInput{
		Bucket: aws.String(b.bucket),
		CORSConfiguration: &types.CORSConfiguration{
			CORSRules: []types.CORSRule{
				{
					AllowedMethods: []string{"GET", "PUT", "HEAD"},
					AllowedOrigins: origins,
					AllowedHeaders: []string{"*"},
					MaxAgeSeconds:  aws.Int32(3000),
				},
			},
		},
	})
	return err
}

func (b *Backend) putLifecycle(ctx context.Context, opts ProvisionOptions) error {
	rule := types.LifecycleRule{
		ID:     aws.String("transition-to-ia"),
		Status: types.ExpirationStatusEnabled,
		Filter: &types.LifecycleRuleFilter{
			Prefix: aws.String(opts.LifecyclePrefix),
		},
	}
	if opts.TransitionDays > 0 {
		rule.Transitions = []types.Transition{
			{
				Days:         aws.Int32(opts.TransitionDays),
				StorageClass: types.TransitionStorageClassStandardIa,
			},
		}
	}
	if opts.ExpirationDays > 0 {
		rule.Expiration = &types.LifecycleExpiration{
			Days: aws.Int32(opts.ExpirationDays),
		}
	}

	_, err := b.client.PutBucketLifecycleConfiguration(ctx, &s3.PutBucketLifecycleConfigurationInput{
		Bucket: aws.String(b.bucket),
		LifecycleConfiguration: &types.BucketLifecycleConfiguration{
			Rules: []types.LifecycleRule{rule},
		},
	})
	return err
}
