package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
)

type contextKey string

const (
	userIDKey contextKey = "auth.user_id"
	modeKey   contextKey = "auth.mode"
)

// Claims are the JWT claims carried by every issued token.
type Claims struct {
	Mode string `json:"mode"`
	jwt.StandardClaims
}

// UserID returns the authenticated user id stored on the request context.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// UserMode returns the account mode (business or portal) of the caller.
func UserMode(ctx context.Context) string {
	mode, _ := ctx.Value(modeKey).(string)
	return mode
}

// Middleware validates the Bearer token and injects the caller's
// identity into the request context. Every tenant-scoped route sits
// behind it.
func Middleware(jwtSecret string) func(http.Handler) http.Handler {
	key := []byte(jwtSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
				func(t *jwt.Token) (interface{}, error) { return key, nil })
			if err != nil || !token.Valid {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			ctx = context.WithValue(ctx, modeKey, claims.Mode)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
