package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/contesthub/server/models"
	"github.com/contesthub/server/repositories"
	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const (
	claimsContextKey contextKey = "claims"
	userContextKey   contextKey = "user"
)

const jwtClaimEmail = "email"

// Authenticate verifies the bearer token and stores its claims in the
// request context. It does not touch the database; role checks happen
// in RequireUser/RequireRole.
func Authenticate(jwtSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "missing or malformed authorization header")
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return jwtSecret, nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser resolves the token's email claim to a stored user and
// puts it in the context. Use it on routes that need an identity but
// no particular role.
func RequireUser(users repositories.UserRepository) func(http.Handler) http.Handler {
	return requireRoles(users)
}

// RequireRole additionally demands one of the given roles. The role is
// read from the user row, never from the token, so a role change takes
// effect on the next request.
func RequireRole(users repositories.UserRepository, roles ...models.UserRole) func(http.Handler) http.Handler {
	return requireRoles(users, roles...)
}

func requireRoles(users repositories.UserRepository, roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := EmailFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			user, err := users.GetByEmail(r.Context(), email)
			if err != nil {
				if errors.Is(err, repositories.ErrUserNotFound) {
					writeError(w, http.StatusForbidden, "forbidden access")
					return
				}
				writeError(w, http.StatusInternalServerError, "failed to load user")
				return
			}

			if len(roles) > 0 {
				allowed := false
				for _, role := range roles {
					if user.Role == role {
						allowed = true
						break
					}
				}
				if !allowed {
					writeError(w, http.StatusForbidden, "forbidden access")
					return
				}
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EmailFromContext returns the authenticated email claim.
func EmailFromContext(ctx context.Context) (string, error) {
	claims, ok := ctx.Value(claimsContextKey).(jwt.MapClaims)
	if !ok {
		return "", errors.New("claims not found in context")
	}
	email, ok := claims[jwtClaimEmail].(string)
	if !ok || email == "" {
		return "", errors.New("missing email claim in token")
	}
	return strings.ToLower(email), nil
}

// UserFromContext returns the user loaded by RequireUser/RequireRole,
// or nil when no such middleware ran.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
