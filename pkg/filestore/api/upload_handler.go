package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/datadives/project-roodha/pkg/filestore"
	"github.com/datadives/project-roodha/pkg/filestore/presign"
)

// UploadHandler receives the signed PUT itself. Every request reaching
// handlePut has already passed signature, expiry, and Content-Type
// validation in the presign middleware; the handler's job is to write
// the body through the guarded store under the validated key.
type UploadHandler struct {
	store  filestore.BlobStore
	signer *presign.Signer
	logger *slog.Logger
}

// NewUploadHandler creates the handler writing through store. The store
// should be a write-capable guarded view scoped to the upload bucket.
func NewUploadHandler(store filestore.BlobStore, signer *presign.Signer, logger *slog.Logger) *UploadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadHandler{store: store, signer: signer, logger: logger}
}

// Routes returns the upload router. Only PUT is served; the middleware
// answers every other verb with 405 before the handler runs.
func (h *UploadHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Handle("/*", presign.ValidateMiddleware(h.signer, http.HandlerFunc(h.handlePut)))
	return r
}

func (h *UploadHandler) handlePut(w http.ResponseWriter, r *http.Request) {
	key := presign.ObjectKeyFromContext(r.Context())
	if key == "" {
		http.Error(w, "object key required", http.StatusBadRequest)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if err := h.store.Put(r.Context(), key, r.Body, contentType); err != nil {
		switch {
		case errors.Is(err, filestore.ErrAccessDenied):
			http.Error(w, "access denied", http.StatusForbidden)
		default:
			h.logger.Error("upload write failed", "key", key, "error", err)
			http.Error(w, "upload failed", http.StatusInternalServerError)
		}
		return
	}

	h.logger.Info("upload stored", "key", key, "content_type", contentType)
	w.WriteHeader(http.StatusOK)
}
