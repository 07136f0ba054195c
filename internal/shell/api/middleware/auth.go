package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/artpar/pgstay/internal/core/auth"
)

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// TokenParser verifies a bearer token. auth.TokenIssuer implements it.
type TokenParser interface {
	Parse(token string) (auth.Context, error)
}

// RevocationChecker reports whether a token was revoked by logout.
// The store implements this interface.
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// =============================================================================
// Auth Configuration
// =============================================================================

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// Tokens verifies bearer tokens. Required.
	Tokens TokenParser

	// Revocations rejects logged-out tokens. If nil, revocation is not checked.
	Revocations RevocationChecker

	// Logger for auth middleware logging.
	Logger *slog.Logger
}

// =============================================================================
// Auth Middleware
// =============================================================================

// AuthMiddleware verifies bearer tokens and stores the resulting
// authentication context in the request context.
type AuthMiddleware struct {
	config AuthConfig
}

// NewAuthMiddleware creates a new auth middleware with the given config.
func NewAuthMiddleware(cfg AuthConfig) *AuthMiddleware {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &AuthMiddleware{config: cfg}
}

// Handler returns the middleware handler function.
// Requests without a usable bearer token pass through unauthenticated, so
// public routes such as login still work with a stale token. The reason a
// token was refused is kept for RequireAuth and Require to report.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx, err := m.config.Tokens.Parse(token)
		if err != nil {
			m.config.Logger.Warn("rejected bearer token",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
				"error", err,
			)
			next.ServeHTTP(w, withRejection(r, MessageInvalidToken))
			return
		}

		if m.config.Revocations != nil {
			revoked, err := m.config.Revocations.IsTokenRevoked(r.Context(), ctx.TokenID)
			if err != nil {
				m.config.Logger.Error("failed to check token revocation",
					"token_id", ctx.TokenID,
					"error", err,
				)
				WriteError(w, http.StatusInternalServerError, MessageInternalError)
				return
			}
			if revoked {
				next.ServeHTTP(w, withRejection(r, MessageTokenRevoked))
				return
			}
		}

		r = r.WithContext(auth.WithContext(r.Context(), ctx))
		next.ServeHTTP(w, r)
	})
}

type rejectionKey struct{}

func withRejection(r *http.Request, message string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), rejectionKey{}, message))
}

// unauthorized writes 401, naming the refused token when there was one.
func unauthorized(w http.ResponseWriter, r *http.Request) {
	message := MessageUnauthorized
	if reason, ok := r.Context().Value(rejectionKey{}).(string); ok {
		message = reason
	}
	WriteError(w, http.StatusUnauthorized, message)
}

// =============================================================================
// Require Auth Middleware
// =============================================================================

// RequireAuth is a middleware that requires authentication.
// Use this for protected endpoints that must have a valid user.
// Must be used AFTER AuthMiddleware.
func RequireAuth(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.FromContext(r.Context())

			if !ctx.Authenticated {
				logger.Warn("unauthenticated request to protected endpoint",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
				)
				unauthorized(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Require refuses requests whose auth context allowed rejects: 401 when
// unauthenticated, 403 otherwise.
func Require(logger *slog.Logger, allowed func(auth.Context) bool) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.FromContext(r.Context())
			if !ctx.Authenticated {
				unauthorized(w, r)
				return
			}
			if !allowed(ctx) {
				logger.Warn("request not permitted",
					"user_id", ctx.UserID,
					"role", ctx.Role,
					"path", r.URL.Path,
				)
				WriteError(w, http.StatusForbidden, MessageForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
