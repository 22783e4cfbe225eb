// Package middleware provides HTTP middlewares for authentication, rate
// limiting and logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type ctxKey string

const userKey ctxKey = "user"

// TokenVerifier validates a bearer token and returns the user it was
// issued to.
type TokenVerifier interface {
	VerifyToken(token string) (userID string, err error)
}

// JWTAuth is a middleware that requires a valid "Authorization: Bearer"
// header. On success the token's subject is stored in the request context
// as the authenticated user ID.
func JWTAuth(verifier TokenVerifier, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeFailure(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			userID, err := verifier.VerifyToken(token)
			if err != nil {
				log.Warn("token rejected", zap.String("path", r.URL.Path), zap.Error(err))
				writeFailure(w, http.StatusUnauthorized, "Session expired, please login again")
				return
			}
			ctx := context.WithValue(r.Context(), userKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext extracts the authenticated user ID from the request
// context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// WithUserID returns ctx carrying userID, as JWTAuth would set it.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// writeFailure writes a {"status": false} envelope.
func writeFailure(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": false, "message": msg})
}
