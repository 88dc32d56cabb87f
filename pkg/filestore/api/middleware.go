package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
)

type contextKey string

const tenantContextKey contextKey = "tenant_id"

// corsMaxAgeSeconds is how long browsers may cache preflight results.
const corsMaxAgeSeconds = "3000"

// CORS returns middleware that answers cross-origin requests for the
// configured frontend origins only. Preflights are answered directly;
// unknown origins get no CORS headers at all.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, HEAD, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				w.Header().Set("Access-Control-Max-Age", corsMaxAgeSeconds)
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireSecure rejects plaintext requests. Requests terminated at a TLS
// proxy are recognized through X-Forwarded-Proto.
func RequireSecure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil && !strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			http.Error(w, "https required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestID assigns each request an identifier for log correlation,
// keeping an inbound X-Request-Id when the caller set one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

// TenantAuthenticator validates the JWT placed by jwtauth.Verifier and
// stores the tenant_id claim in the request context. Requests without a
// valid token, or whose token carries no tenant, are rejected.
func TenantAuthenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		tenantID, _ := claims["tenant_id"].(string)
		if tenantID == "" {
			http.Error(w, "token missing tenant", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), tenantContextKey, tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TenantFromContext returns the authenticated tenant ID, if any.
func TenantFromContext(ctx context.Context) (string, bool) {
	tenantID, ok := ctx.Value(tenantContextKey).(string)
	return tenantID, ok
}
