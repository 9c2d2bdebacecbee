// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// TokenValidator verifies a bearer token and resolves the user it was
// issued to
type TokenValidator interface {
	ValidateToken(token string) (uuid.UUID, error)
}

// TokenValidatorFunc adapts a plain function to TokenValidator
type TokenValidatorFunc func(token string) (uuid.UUID, error)

// ValidateToken calls f
func (f TokenValidatorFunc) ValidateToken(token string) (uuid.UUID, error) {
	return f(token)
}

// userIDKey is the context key under which AuthMiddleware stores the
// authenticated user id. Unexported struct keys cannot collide.
type userIDKey struct{}

// AuthMiddleware rejects requests that do not carry a valid bearer token
// and puts the authenticated user id on the request context
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userID, err := validator.ValidateToken(token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header. The Bearer
// scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// GetUserID returns the authenticated user id stored by AuthMiddleware
func GetUserID(r *http.Request) (uuid.UUID, error) {
	userID, ok := r.Context().Value(userIDKey{}).(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("no authenticated user on request")
	}
	return userID, nil
}
