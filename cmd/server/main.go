package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"

	"github.com/datadives/project-roodha/pkg/filestore/api"
	"github.com/datadives/project-roodha/pkg/filestore/config"
	"github.com/datadives/project-roodha/pkg/filestore/edge"
)

func main() {
	// Load configuration from environment
	serverConfig, err := config.Load(config.WithEnv())
	if err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	ctx := context.Background()

	// Build the service stack from configuration
	stack, err := serverConfig.BuildStack(ctx)
	if err != nil {
		log.Fatalf("Failed to build service stack: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: routes(serverConfig, stack, logger),
	}

	// Start server in a goroutine
	go func() {
		logger.Info("file storage server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"bucket", serverConfig.BucketName(),
			"registry", serverConfig.RegistryType,
			"storage", serverConfig.StorageType)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("server exited")
}

func routes(cfg *config.ServerConfig, stack *config.Stack, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(api.CORS(cfg.FrontendOrigins))

	if cfg.Environment != "development" {
		r.Use(api.RequireSecure)
	}

	var auth *jwtauth.JWTAuth
	if cfg.JWTSecret != "" {
		auth = jwtauth.New("HS256", []byte(cfg.JWTSecret), nil)
	}

	// Management API: registry plus the upload grant protocol
	handler := api.NewHandler(stack.Service, auth, logger)
	r.Mount("/api/v1", handler.Routes())

	// Signed upload endpoint, only when the built-in HMAC signer serves
	// grants. With S3 storage the browser PUTs straight to the bucket.
	if stack.HMACSigner != nil {
		uploads := api.NewUploadHandler(stack.UploadStore, stack.HMACSigner, logger)
		r.Mount("/upload", uploads.Routes())
	}

	// Edge delivery: read-only object serving
	edgeOpts := []edge.ServerOption{
		edge.WithCache(edge.NewCache(cfg.EdgeCacheTTL)),
		edge.WithLogger(logger),
	}
	if cfg.Environment == "development" {
		edgeOpts = append(edgeOpts, edge.WithoutTLS())
	}
	edgeServer := edge.NewServer(stack.EdgeStore, edgeOpts...)
	r.Mount("/files", edgeServer.Routes())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}
