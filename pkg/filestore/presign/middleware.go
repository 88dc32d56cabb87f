package presign

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/datadives/project-roodha/pkg/filestore"
)

type contextKey string

const objectKeyContextKey contextKey = "presign:object_key"

// ValidateMiddleware returns HTTP middleware that validates presigned
// upload signatures. On success the validated object key is placed in the
// request context; on failure an HTTP error is written and the handler is
// never called.
func ValidateMiddleware(signer *Signer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := signer.ValidateRequest(r); err != nil {
			writeValidationError(w, err)
			return
		}

		objectKey, err := signer.ExtractObjectKey(r.URL.Path)
		if err != nil {
			slog.Warn("presign: failed to extract object key", "path", r.URL.Path, "error", err)
			http.Error(w, "invalid upload URL", http.StatusBadRequest)
			return
		}

		ctx := context.WithValue(r.Context(), objectKeyContextKey, objectKey)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ObjectKeyFromContext extracts the validated object key from the request
// context. Empty if validation has not run.
func ObjectKeyFromContext(ctx context.Context) string {
	if key, ok := ctx.Value(objectKeyContextKey).(string); ok {
		return key
	}
	return ""
}

func writeValidationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingSignature):
		http.Error(w, "missing signature parameter", http.StatusUnauthorized)
	case errors.Is(err, ErrMissingExpiration):
		http.Error(w, "missing expires parameter", http.StatusUnauthorized)
	case errors.Is(err, ErrMissingNonce):
		http.Error(w, "missing nonce parameter", http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidExpiration):
		http.Error(w, "invalid expires parameter", http.StatusBadRequest)
	case errors.Is(err, filestore.ErrUploadExpired):
		http.Error(w, "upload URL has expired", http.StatusForbidden)
	case errors.Is(err, filestore.ErrSignatureMismatch):
		http.Error(w, "invalid signature", http.StatusForbidden)
	default:
		slog.Warn("presign: validation error", "error", err)
		http.Error(w, "authentication failed", http.StatusForbidden)
	}
}
