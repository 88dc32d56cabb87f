package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datadives/project-roodha/pkg/filestore"
	"github.com/datadives/project-roodha/pkg/filestore/api"
	"github.com/datadives/project-roodha/pkg/filestore/presign"
	registrymem "github.com/datadives/project-roodha/pkg/filestore/registry/memory"
	memorystorage "github.com/datadives/project-roodha/pkg/filestore/storage/memory"
)

func setupService(t *testing.T) (filestore.Service, *memorystorage.Backend) {
	t.Helper()

	store := memorystorage.New()
	signer := presign.New(
		presign.WithSecretKey("test-secret"),
		presign.WithBucket("app-files"),
		presign.WithBaseURL("https://files.example.com"),
	)

	svc, err := filestore.New(
		filestore.WithRegistry(registrymem.New()),
		filestore.WithStore(store),
		filestore.WithSigner(signer),
		filestore.WithVerifyRetry(1, time.Millisecond),
	)
	require.NoError(t, err)

	return svc, store
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestCreateTenant(t *testing.T) {
	svc, _ := setupService(t)
	handler := api.NewHandler(svc, nil, nil).Routes()

	w := postJSON(t, handler, "/tenants", api.CreateTenantRequest{TenantID: "T001"})
	require.Equal(t, http.StatusCreated, w.Code)

	var tenant filestore.Tenant
	require.NoError(t, json.NewDecoder(w.Body).Decode(&tenant))
	assert.Equal(t, "T001", tenant.ID)
	assert.Equal(t, "active", tenant.Status)

	// Duplicate registration conflicts
	w = postJSON(t, handler, "/tenants", api.CreateTenantRequest{TenantID: "T001"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateUser(t *testing.T) {
	svc, _ := setupService(t)
	handler := api.NewHandler(svc, nil, nil).Routes()

	// Unknown tenant
	w := postJSON(t, handler, "/tenants/T001/users", api.CreateUserRequest{UserID: "alice"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	postJSON(t, handler, "/tenants", api.CreateTenantRequest{TenantID: "T001"})

	w = postJSON(t, handler, "/tenants/T001/users", api.CreateUserRequest{UserID: "alice"})
	require.Equal(t, http.StatusCreated, w.Code)

	var user filestore.User
	require.NoError(t, json.NewDecoder(w.Body).Decode(&user))
	assert.Equal(t, "T001", user.TenantID)
	assert.Equal(t, "alice", user.ID)

	w = postJSON(t, handler, "/tenants/T001/users", api.CreateUserRequest{UserID: "alice"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListUsers(t *testing.T) {
	svc, _ := setupService(t)
	handler := api.NewHandler(svc, nil, nil).Routes()

	postJSON(t, handler, "/tenants", api.CreateTenantRequest{TenantID: "T001"})
	for i := 0; i < 5; i++ {
		postJSON(t, handler, "/tenants/T001/users", api.CreateUserRequest{UserID: fmt.Sprintf("user-%02d", i)})
	}

	r := httptest.NewRequest(http.MethodGet, "/tenants/T001/users?limit=3", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	var page filestore.UserPage
	require.NoError(t, json.NewDecoder(w.Body).Decode(&page))
	require.Len(t, page.Users, 3)
	require.NotEmpty(t, page.NextCursor)

	// Resume from the cursor
	r = httptest.NewRequest(http.MethodGet, "/tenants/T001/users?limit=3&cursor="+page.NextCursor, nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	// Decode into a fresh page: NextCursor is omitted from the final
	// response, so reusing the first page would keep its stale cursor.
	var page2 filestore.UserPage
	require.NoError(t, json.NewDecoder(w.Body).Decode(&page2))
	assert.Len(t, page2.Users, 2)
	assert.Empty(t, page2.NextCursor)
}

func TestListUsersInvalidLimit(t *testing.T) {
	svc, _ := setupService(t)
	handler := api.NewHandler(svc, nil, nil).Routes()

	r := httptest.NewRequest(http.MethodGet, "/tenants/T001/users?limit=abc", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestUpload(t *testing.T) {
	svc, _ := setupService(t)
	handler := api.NewHandler(svc, nil, nil).Routes()

	postJSON(t, handler, "/tenants", api.CreateTenantRequest{TenantID: "T001"})

	w := postJSON(t, handler, "/uploads", api.RequestUploadRequest{
		TenantID:    "T001",
		Module:      "uploads",
		FileName:    "test-presign.txt",
		ContentType: "text/plain",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var grant filestore.UploadGrant
	require.NoError(t, json.NewDecoder(w.Body).Decode(&grant))
	assert.True(t, strings.HasPrefix(grant.Key, "T001/uploads/"))
	assert.True(t, strings.HasSuffix(grant.Key, "/test-presign.txt"))
	assert.Equal(t, http.MethodPut, grant.Method)
	assert.Contains(t, grant.URL, "signature=")
}

func TestRequestUploadIgnoresClientTTL(t *testing.T) {
	svc, _ := setupService(t)
	handler := api.NewHandler(svc, nil, nil).Routes()

	postJSON(t, handler, "/tenants", api.CreateTenantRequest{TenantID: "T001"})

	// A caller cannot stretch the grant window by sending a TTL of its
	// own; the window comes from server configuration.
	body := `{"tenant_id":"T001","module":"uploads","file_name":"f.txt","content_type":"text/plain","ttl_seconds":999999999}`
	r := httptest.NewRequest(http.MethodPost, "/uploads", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusCreated, w.Code)

	var grant filestore.UploadGrant
	require.NoError(t, json.NewDecoder(w.Body).Decode(&grant))
	assert.Equal(t, time.Hour, grant.ExpiresAt.Sub(grant.IssuedAt))
}

func TestRequestUploadUnknownTenant(t *testing.T) {
	svc, _ := setupService(t)
	handler := api.NewHandler(svc, nil, nil).Routes()

	w := postJSON(t, handler, "/uploads", api.RequestUploadRequest{
		TenantID:    "T999",
		Module:      "uploads",
		FileName:    "f.txt",
		ContentType: "text/plain",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestUploadValidation(t *testing.T) {
	svc, _ := setupService(t)
	handler := api.NewHandler(svc, nil, nil).Routes()

	postJSON(t, handler, "/tenants", api.CreateTenantRequest{TenantID: "T001"})

	w := postJSON(t, handler, "/uploads", api.RequestUploadRequest{
		TenantID: "T001",
		Module:   "uploads",
		// file name and content type missing
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyUpload(t *testing.T) {
	svc, store := setupService(t)
	handler := api.NewHandler(svc, nil, nil).Routes()

	postJSON(t, handler, "/tenants", api.CreateTenantRequest{TenantID: "T001"})

	w := postJSON(t, handler, "/uploads", api.RequestUploadRequest{
		TenantID:    "T001",
		Module:      "uploads",
		FileName:    "f.txt",
		ContentType: "text/plain",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var grant filestore.UploadGrant
	require.NoError(t, json.NewDecoder(w.Body).Decode(&grant))

	// Verify before anything landed
	w = postJSON(t, handler, "/uploads/verify", api.VerifyUploadRequest{Grant: &grant})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Upload, then verify
	require.NoError(t, store.Put(context.Background(), grant.Key, strings.NewReader("content"), "text/plain"))

	w = postJSON(t, handler, "/uploads/verify", api.VerifyUploadRequest{Grant: &grant})
	require.Equal(t, http.StatusOK, w.Code)

	var result filestore.VerifyResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, grant.Key, result.Key)
	assert.Equal(t, int64(7), result.Size)
}

func authRequest(t *testing.T, auth *jwtauth.JWTAuth, method, path string, body interface{}) *http.Request {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	_, tokenString, err := auth.Encode(map[string]interface{}{"tenant_id": "T001"})
	require.NoError(t, err)

	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Authorization", "Bearer "+tokenString)
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestAuthenticatedTenantScoping(t *testing.T) {
	svc, _ := setupService(t)
	_, err := svc.CreateTenant(context.Background(), "T001")
	require.NoError(t, err)
	_, err = svc.CreateTenant(context.Background(), "T002")
	require.NoError(t, err)

	auth := jwtauth.New("HS256", []byte("jwt-secret"), nil)
	handler := api.NewHandler(svc, auth, nil).Routes()

	// No token at all
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tenants/T001/users", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Token for T001 reaches T001 resources
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authRequest(t, auth, http.MethodGet, "/tenants/T001/users", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// The same token must not reach another tenant's resources
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authRequest(t, auth, http.MethodGet, "/tenants/T002/users", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Nor request grants on its behalf
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authRequest(t, auth, http.MethodPost, "/uploads", api.RequestUploadRequest{
		TenantID:    "T002",
		Module:      "uploads",
		FileName:    "f.txt",
		ContentType: "text/plain",
	}))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
