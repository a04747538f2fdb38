package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gramgyan/backend/auth"
	"github.com/gramgyan/backend/services"
	"github.com/gramgyan/backend/utils"
	"go.uber.org/zap"
)

// TokenValidator defines the interface for validating session tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.SessionClaims, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// RequireAuth rejects requests without a valid session token and stores the
// claims and user ID in the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := extractToken(r)
		if token == "" {
			m.logger.Debug("missing token",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		claims, err := m.validator.ValidateToken(ctx, token)
		if err != nil {
			if services.IsConfigurationError(err) {
				m.logger.Error("session validation unavailable",
					zap.String("request_id", requestID),
					zap.Error(err))
				_ = utils.WriteServiceUnavailable(w, "Authentication is not configured", nil)
				return
			}
			m.logger.Warn("token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		ctx = WithClaims(ctx, claims)
		ctx = WithUserID(ctx, userID)

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("user_id", userID.String()))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken reads the bearer token from the Authorization header, falling
// back to the session cookie.
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
