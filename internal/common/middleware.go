package common

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const principalKey contextKey = "principal_id"

// Auth enforces a Bearer token on every request and injects the resolved
// principal into the request context. The ambient identity is resolved here
// once; everything below this middleware takes the caller id explicitly.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			http.Error(w, "authorization required", http.StatusUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			http.Error(w, "invalid auth header", http.StatusUnauthorized)
			return
		}

		claims, err := ValidToken(parts[1])
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, claims.PrincipalID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PrincipalFrom returns the authenticated principal id stored by Auth.
func PrincipalFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(principalKey).(string)
	return id, ok && id != ""
}
