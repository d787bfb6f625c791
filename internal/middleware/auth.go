// Package middleware provides HTTP middleware for authentication, request
// logging and metrics.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/splitease/splitease/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// identityKey carries the identity record shared with RequestLogger.
	identityKey contextKey = "identity"
)

// TokenCookie is the session cookie name, kept for dashboard clients that
// authenticate via cookie rather than the Authorization header.
const TokenCookie = "token"

// identity is planted in the context by RequestLogger before authentication
// runs, so RequireAuth can report who the request belonged to back out to
// the wrapping logger.
type identity struct {
	userID string
}

// GetUserID extracts the authenticated user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// RequireAuth validates the session token and stores the user identity in
// the request context. The token is read from the Authorization header
// (Bearer scheme) or, failing that, from the session cookie.
func RequireAuth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie(TokenCookie); err == nil {
					token = c.Value
				}
			}
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, auth.ErrMissingToken.Error())
				return
			}

			claims, err := jwtManager.Validate(token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
				return
			}

			if ident, ok := r.Context().Value(identityKey).(*identity); ok {
				ident.userID = claims.UserID
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
