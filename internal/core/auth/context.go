// Package auth provides authentication context, session tokens and
// authorization functions.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/pgstay/internal/core/domain"
)

// =============================================================================
// Context Key
// =============================================================================

type contextKey string

const authContextKey contextKey = "auth"

// =============================================================================
// Types
// =============================================================================

// Context represents the authentication and authorization context for a request.
// It is built from a verified session token and stored in the request context.
type Context struct {
	// UserID is the subject of the token.
	UserID string

	// Role is the role the user held when the token was issued.
	Role domain.Role

	// TokenID is the token's jti, used for revocation on logout.
	TokenID string

	// ExpiresAt is when the token stops being accepted.
	ExpiresAt time.Time

	// Authenticated indicates whether the request is authenticated
	Authenticated bool
}

// HeaderAuthorization carries the bearer token.
const HeaderAuthorization = "Authorization"

// =============================================================================
// Token Extraction
// =============================================================================

// HeaderGetter is an interface for getting header values.
// This allows testing without requiring an http.Request.
type HeaderGetter interface {
	Get(key string) string
}

// BearerFromRequest returns the bearer token of r, or "" if there is none.
func BearerFromRequest(r *http.Request) string {
	return BearerFromHeaders(r.Header)
}

// BearerFromHeaders returns the token of an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerFromHeaders(headers HeaderGetter) string {
	value := strings.TrimSpace(headers.Get(HeaderAuthorization))
	scheme, token, ok := strings.Cut(value, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// =============================================================================
// Context Storage
// =============================================================================

// WithContext stores the auth context in the request context.
func WithContext(ctx context.Context, authCtx Context) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

// FromContext retrieves the auth context from the request context.
// If no auth context is found, returns an unauthenticated context.
func FromContext(ctx context.Context) Context {
	if authCtx, ok := ctx.Value(authContextKey).(Context); ok {
		return authCtx
	}
	return Context{Authenticated: false}
}

// =============================================================================
// Helper Types for Testing
// =============================================================================

// MapHeaderGetter is a simple map-based HeaderGetter for testing.
type MapHeaderGetter map[string]string

// Get returns the header value for the given key.
func (m MapHeaderGetter) Get(key string) string {
	return m[key]
}
