package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BradenHooton/useradmin/internal/models"
	pkghttp "github.com/BradenHooton/useradmin/pkg/http"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// UserRepository is the lookup RequireAdmin uses to re-check the account.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// AuthMiddleware validates the bearer token and injects its claims into the context
func AuthMiddleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "missing authorization header")
				return
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || scheme != "Bearer" || tokenString == "" {
				pkghttp.WriteUnauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdmin lets the request through only if the token's account still
// exists and is still an administrator. Must be used after AuthMiddleware.
func RequireAdmin(userRepo UserRepository, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "unauthorized")
				return
			}

			user, err := userRepo.GetByUsername(r.Context(), claims.Username)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteUnauthorized(w, "account no longer exists")
					return
				}
				logger.Error("failed to load account for admin check",
					slog.String("username", claims.Username),
					slog.Any("error", err))
				pkghttp.WriteInternalError(w, "internal server error")
				return
			}

			if !user.Admin {
				logger.Warn("non-admin account denied",
					slog.String("username", claims.Username),
					slog.String("path", r.URL.Path))
				pkghttp.WriteForbidden(w, "administrator access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *models.TokenClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns the authenticated claims, or nil.
func ClaimsFromContext(ctx context.Context) *models.TokenClaims {
	claims, ok := ctx.Value(claimsContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// ActorFromContext returns the authenticated username, or "" outside a request.
func ActorFromContext(ctx context.Context) string {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return claims.Username
	}
	return ""
}
