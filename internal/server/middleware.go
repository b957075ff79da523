package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Auth validates the Authorization bearer token and stashes the subject
// user id in the request context.
func Auth(verifier TokenVerifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid token"})
				return
			}

			userID, err := verifier.VerifyToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID extracts the authenticated user id; "" outside the auth
// middleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
