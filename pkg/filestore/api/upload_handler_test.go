package api_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datadives/project-roodha/pkg/filestore/access"
	"github.com/datadives/project-roodha/pkg/filestore/api"
	"github.com/datadives/project-roodha/pkg/filestore/presign"
	memorystorage "github.com/datadives/project-roodha/pkg/filestore/storage/memory"
)

func TestUploadHandlerStoresValidPut(t *testing.T) {
	store := memorystorage.New()
	signer := presign.New(
		presign.WithSecretKey("test-secret"),
		presign.WithBucket("app-files"),
		presign.WithBaseURL("https://files.example.com"),
	)

	handler := api.NewUploadHandler(store, signer, nil)

	// The handler is mounted at /upload in the server; mount the same way
	// here so signed paths line up.
	router := http.NewServeMux()
	router.Handle("/upload/", handler.Routes())

	key := "T001/uploads/2024/06/01/test-presign.txt"
	grant, err := signer.SignUpload(context.Background(), key, "text/plain", time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPut, grant.URL, strings.NewReader("uploaded body"))
	r.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	reader, err := store.Download(context.Background(), key)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "uploaded body", string(data))
}

func TestUploadHandlerRejectsBadSignature(t *testing.T) {
	store := memorystorage.New()
	signer := presign.New(
		presign.WithSecretKey("test-secret"),
		presign.WithBucket("app-files"),
		presign.WithBaseURL("https://files.example.com"),
	)

	handler := api.NewUploadHandler(store, signer, nil)
	router := http.NewServeMux()
	router.Handle("/upload/", handler.Routes())

	url := "https://files.example.com/upload/T001/uploads/2024/06/01/f.txt?signature=bogus&expires=9999999999&nonce=abc"
	r := httptest.NewRequest(http.MethodPut, url, strings.NewReader("x"))
	r.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)

	// Nothing was written
	keys, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestUploadHandlerGuardDenies(t *testing.T) {
	store := memorystorage.New()
	signer := presign.New(
		presign.WithSecretKey("test-secret"),
		presign.WithBucket("app-files"),
		presign.WithBaseURL("https://files.example.com"),
	)

	// A read-only principal behind the upload path cannot land writes
	policies := access.NewPolicySet()
	policies.BindRole("edge", access.ReadOnlyBindings("app-files")...)
	guarded := access.NewGuard("edge", "app-files", policies, store)

	handler := api.NewUploadHandler(guarded, signer, nil)
	router := http.NewServeMux()
	router.Handle("/upload/", handler.Routes())

	grant, err := signer.SignUpload(context.Background(), "T001/uploads/2024/06/01/f.txt", "text/plain", time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPut, grant.URL, strings.NewReader("x"))
	r.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
