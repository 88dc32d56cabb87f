// Package api exposes the file storage backbone over HTTP: tenant and
// user registry endpoints, upload grant issuance, upload verification,
// and the signed upload PUT endpoint itself.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/datadives/project-roodha/pkg/filestore"
	"github.com/datadives/project-roodha/pkg/filestore/objectkey"
)

// Handler serves the management API.
type Handler struct {
	service filestore.Service
	auth    *jwtauth.JWTAuth
	logger  *slog.Logger
}

// NewHandler creates a handler over service. auth may be nil, in which
// case the routes are served without authentication (tests, trusted
// internal deployments behind their own gateway).
func NewHandler(service filestore.Service, auth *jwtauth.JWTAuth, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, auth: auth, logger: logger}
}

// Routes returns the management API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	if h.auth != nil {
		r.Use(jwtauth.Verifier(h.auth))
		r.Use(TenantAuthenticator)
	}

	r.Post("/tenants", h.CreateTenant)
	r.Post("/tenants/{tenant_id}/users", h.CreateUser)
	r.Get("/tenants/{tenant_id}/users", h.ListUsers)
	r.Post("/uploads", h.RequestUpload)
	r.Post("/uploads/verify", h.VerifyUpload)

	return r
}

// CreateTenantRequest is the body for registering a tenant.
type CreateTenantRequest struct {
	TenantID string `json:"tenant_id"`
}

// CreateUserRequest is the body for registering a user under a tenant.
type CreateUserRequest struct {
	UserID string `json:"user_id"`
}

// RequestUploadRequest is the body for requesting an upload grant. The
// grant window is fixed by server configuration, not by the caller, so
// there is no TTL field here.
type RequestUploadRequest struct {
	TenantID    string `json:"tenant_id"`
	Module      string `json:"module"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

// VerifyUploadRequest is the body for confirming an upload landed.
type VerifyUploadRequest struct {
	Grant *filestore.UploadGrant `json:"grant"`
}

// CreateTenant registers a tenant namespace.
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	tenant, err := h.service.CreateTenant(r.Context(), req.TenantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, tenant)
}

// CreateUser registers a user under the tenant in the URL.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if !h.tenantAllowed(r, tenantID) {
		http.Error(w, "tenant mismatch", http.StatusForbidden)
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.CreateUser(r.Context(), tenantID, req.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, user)
}

// ListUsers returns one page of the tenant's users. Query parameters:
// cursor resumes a prior listing, limit caps the page size.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if !h.tenantAllowed(r, tenantID) {
		http.Error(w, "tenant mismatch", http.StatusForbidden)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	page, err := h.service.ListUsers(r.Context(), filestore.ListUsersRequest{
		TenantID: tenantID,
		Cursor:   r.URL.Query().Get("cursor"),
		Limit:    limit,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, page)
}

// RequestUpload issues a signed upload grant for the authenticated tenant.
func (h *Handler) RequestUpload(w http.ResponseWriter, r *http.Request) {
	var req RequestUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !h.tenantAllowed(r, req.TenantID) {
		http.Error(w, "tenant mismatch", http.StatusForbidden)
		return
	}

	grant, err := h.service.RequestUpload(r.Context(), filestore.UploadRequest{
		TenantID:    req.TenantID,
		Module:      req.Module,
		FileName:    req.FileName,
		ContentType: req.ContentType,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, grant)
}

// VerifyUpload confirms the object named by a grant landed in storage.
func (h *Handler) VerifyUpload(w http.ResponseWriter, r *http.Request) {
	var req VerifyUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Grant == nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !h.tenantAllowed(r, objectkey.TenantOf(req.Grant.Key)) {
		http.Error(w, "tenant mismatch", http.StatusForbidden)
		return
	}

	result, err := h.service.VerifyUpload(r.Context(), req.Grant)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// tenantAllowed checks the URL/body tenant against the authenticated one.
// When no authenticator is installed every tenant is allowed.
func (h *Handler) tenantAllowed(r *http.Request, tenantID string) bool {
	if h.auth == nil {
		return true
	}
	authenticated, ok := TenantFromContext(r.Context())
	return ok && authenticated == tenantID
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, filestore.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, filestore.ErrTenantNotFound),
		errors.Is(err, filestore.ErrObjectNotFound):
		status = http.StatusNotFound
	case errors.Is(err, filestore.ErrDuplicateKey):
		status = http.StatusConflict
	case errors.Is(err, filestore.ErrAccessDenied),
		errors.Is(err, filestore.ErrSignatureMismatch),
		errors.Is(err, filestore.ErrUploadExpired),
		errors.Is(err, filestore.ErrInsecureTransport):
		status = http.StatusForbidden
	case errors.Is(err, filestore.ErrMethodNotAllowed):
		status = http.StatusMethodNotAllowed
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	http.Error(w, err.Error(), status)
}
