package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/vinayakry63/lead-manager/internal/domain"
	"github.com/vinayakry63/lead-manager/internal/infra/observability"
	"github.com/vinayakry63/lead-manager/internal/port"
	"github.com/vinayakry63/lead-manager/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const ownerIDKey contextKey = "ownerID"

// SessionAuthMiddleware validates the session (cookie first, then bearer
// token), confirms the account still exists, and injects the owner id into
// the request context. A TTL cache fronts the user lookup so a hot session
// does not hit the store on every request.
func SessionAuthMiddleware(authSvc *service.AuthService, users port.Cache[*domain.User], metrics *observability.Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				logger.Warn("auth: missing session",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			userID, err := authSvc.ValidateSessionToken(token)
			if err != nil {
				logger.Warn("auth: invalid or expired session",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			// A valid signature is not enough: the account may have been
			// deleted since the token was issued.
			if _, ok := users.Get(userID); ok {
				if metrics != nil {
					metrics.IncrCacheHit("session_user")
				}
			} else {
				if metrics != nil {
					metrics.IncrCacheMiss("session_user")
				}
				user, err := authSvc.GetUser(r.Context(), userID)
				if err != nil {
					handleServiceError(w, err, logger)
					return
				}
				users.Set(userID, user)
			}

			ctx := context.WithValue(r.Context(), ownerIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionToken extracts the session token from the cookie, falling back to
// an Authorization bearer header for non-browser clients.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// OwnerIDFromContext extracts the authenticated owner id from context.
func OwnerIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ownerIDKey).(string)
	return v
}
