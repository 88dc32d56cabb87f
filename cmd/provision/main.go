// Command provision converges the upload bucket on the secure posture
// the service expects: private, versioned, encrypted at rest, TLS-only,
// CORS limited to the frontend origins, with the cold-tier lifecycle.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/datadives/project-roodha/pkg/filestore/config"
	s3storage "github.com/datadives/project-roodha/pkg/filestore/storage/s3"
)

func main() {
	var (
		bucket   = flag.String("bucket", "", "bucket name (default: derived from DEPLOY_ENV)")
		origins  = flag.String("origins", "", "comma-separated CORS origins (default: FRONTEND_ORIGIN)")
		dryRun   = flag.Bool("dry-run", false, "print the intended posture without applying it")
		teardown = flag.Bool("teardown", false, "dispose of the bucket per the removal policy instead of provisioning")
	)
	flag.Parse()

	serverConfig, err := config.Load(config.WithEnv())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	name := serverConfig.BucketName()
	if *bucket != "" {
		name = *bucket
	}

	corsOrigins := serverConfig.FrontendOrigins
	if *origins != "" {
		corsOrigins = strings.Split(*origins, ",")
	}

	opts := s3storage.DefaultProvisionOptions(corsOrigins)
	if serverConfig.Environment != "production" && serverConfig.Environment != "prod" {
		opts.RemovalPolicy = s3storage.RemovalPolicyDestroy
	}

	if *dryRun {
		fmt.Printf("bucket:          %s\n", name)
		fmt.Printf("public access:   blocked\n")
		fmt.Printf("versioning:      enabled\n")
		fmt.Printf("encryption:      SSE-S3 (AES256)\n")
		fmt.Printf("transport:       TLS only\n")
		fmt.Printf("cors origins:    %s\n", strings.Join(corsOrigins, ", "))
		fmt.Printf("lifecycle:       IA after %dd, expire after %dd\n",
			opts.TransitionDays, opts.ExpirationDays)
		fmt.Printf("removal policy:  %s\n", opts.RemovalPolicy)
		return
	}

	s3cfg := serverConfig.S3
	s3cfg.Bucket = name
	backend, err := s3storage.New(s3cfg)
	if err != nil {
		log.Fatalf("Failed to build S3 backend: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *teardown {
		if err := backend.Teardown(ctx, opts); err != nil {
			log.Fatalf("Teardown failed: %v", err)
		}
		if opts.RemovalPolicy == s3storage.RemovalPolicyRetain {
			fmt.Fprintf(os.Stdout, "bucket %s retained\n", name)
		} else {
			fmt.Fprintf(os.Stdout, "bucket %s destroyed\n", name)
		}
		return
	}

	if err := backend.EnsureBucket(ctx, opts); err != nil {
		log.Fatalf("Provisioning failed: %v", err)
	}

	fmt.Fprintf(os.Stdout, "bucket %s provisioned\n", name)
}
