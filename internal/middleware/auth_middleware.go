package middleware

import (
	"context"
	"net/http"
	"strings"

	"masjid-display-server/pkg/jwt"
	"masjid-display-server/pkg/response"
)

type contextKey string

const AdminIDKey contextKey = "adminID"

// AuthMiddleware guards the admin API. Tokens are issued by the external
// identity provider that shares the HMAC secret.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			token := parts[1]
			claims, err := jwt.ValidateToken(token, jwtSecret)
			if err != nil {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), AdminIDKey, claims.AdminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetAdminID(r *http.Request) string {
	adminID, ok := r.Context().Value(AdminIDKey).(string)
	if !ok {
		return ""
	}
	return adminID
}
