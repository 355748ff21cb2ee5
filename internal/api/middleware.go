/**
 * @description
 * This file contains custom middleware for the HTTP router. The auth middleware
 * validates the bearer token on every protected request and places the token's
 * subject (the username) into the request context for handlers to resolve.
 *
 * @dependencies
 * - context, net/http, strings: Standard Go libraries.
 * - internal/app: For access-token verification.
 */

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/corebank/banking-service/internal/app"
)

// UsernameContextKey is a custom type for the context key to avoid collisions.
type UsernameContextKey string

const authUsernameKey UsernameContextKey = "authUsername"

// AuthMiddleware creates a middleware that validates signed access tokens.
func AuthMiddleware(service *app.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			// Extract the token from "Bearer <token>"
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			username, err := service.VerifyAccessToken(tokenString)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), authUsernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAuthUsername retrieves the authenticated username from the request context.
// Handlers should use this function to identify the caller.
func GetAuthUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(authUsernameKey).(string)
	return username, ok
}
