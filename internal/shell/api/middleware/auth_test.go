package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/pgstay/internal/core/auth"
	"github.com/artpar/pgstay/internal/core/domain"
)

// =============================================================================
// Test Helpers
// =============================================================================

// testHandler is a simple handler that returns the auth context from request.
func testHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.FromContext(r.Context())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"authenticated": ctx.Authenticated,
			"user_id":       ctx.UserID,
			"role":          ctx.Role,
		})
	})
}

type revocations map[string]bool

func (r revocations) IsTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	if tokenID == "explode" {
		return false, errors.New("database is locked")
	}
	return r[tokenID], nil
}

// stubTokens maps raw tokens to contexts.
type stubTokens map[string]auth.Context

func (s stubTokens) Parse(token string) (auth.Context, error) {
	ctx, ok := s[token]
	if !ok {
		return auth.Context{}, auth.ErrInvalidToken
	}
	return ctx, nil
}

func newTestAuth(revoked revocations) *AuthMiddleware {
	return NewAuthMiddleware(AuthConfig{
		Tokens: stubTokens{
			"owner-token":   {UserID: "u1", Role: domain.RoleOwner, TokenID: "j1", Authenticated: true},
			"revoked-token": {UserID: "u2", Role: domain.RoleResident, TokenID: "j2", Authenticated: true},
			"broken-store":  {UserID: "u3", Role: domain.RoleResident, TokenID: "explode", Authenticated: true},
		},
		Revocations: revoked,
		Logger:      discardLogger(),
	})
}

func serve(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/v1/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// AuthMiddleware Tests
// =============================================================================

func TestAuthMiddleware_NoToken_PassesUnauthenticated(t *testing.T) {
	rec := serve(newTestAuth(nil).Handler(testHandler()), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["authenticated"])
}

func TestAuthMiddleware_ValidToken_StoresContext(t *testing.T) {
	rec := serve(newTestAuth(revocations{}).Handler(testHandler()), "Bearer owner-token")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["authenticated"])
	assert.Equal(t, "u1", resp["user_id"])
	assert.Equal(t, "OWNER", resp["role"])
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	h := newTestAuth(revocations{"j2": true}).Handler(RequireAuth(discardLogger())(testHandler()))

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantMsg  string
	}{
		{"unknown token", "Bearer nope", http.StatusUnauthorized, "Invalid or expired token"},
		{"revoked token", "Bearer revoked-token", http.StatusUnauthorized, "Token has been revoked"},
		{"revocation lookup fails", "Bearer broken-store", http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.header)
			assert.Equal(t, tt.wantCode, rec.Code)
			resp := decodeError(t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantMsg, resp.Message)
		})
	}
}

func TestAuthMiddleware_RefusedTokenIsAnonymousOnPublicRoutes(t *testing.T) {
	h := newTestAuth(revocations{"j2": true}).Handler(testHandler())

	for _, header := range []string{"Bearer nope", "Bearer revoked-token"} {
		t.Run(header, func(t *testing.T) {
			rec := serve(h, header)
			require.Equal(t, http.StatusOK, rec.Code)
			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, false, resp["authenticated"])
		})
	}
}

func TestRequire_ReportsRefusedToken(t *testing.T) {
	h := newTestAuth(revocations{"j2": true}).Handler(
		Require(discardLogger(), auth.CanViewTechnicians)(testHandler()),
	)

	rec := serve(h, "Bearer revoked-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, MessageTokenRevoked, decodeError(t, rec).Message)

	rec = serve(h, "")
	assert.Equal(t, MessageUnauthorized, decodeError(t, rec).Message)
}

func TestAuthMiddleware_WithRealIssuer(t *testing.T) {
	issuer, err := auth.NewTokenIssuer("0123456789abcdef0123456789abcdef", "pgstay", time.Hour)
	require.NoError(t, err)
	token, _, err := issuer.Issue(domain.User{ID: "u9", Role: domain.RoleTechnician})
	require.NoError(t, err)

	m := NewAuthMiddleware(AuthConfig{Tokens: issuer, Logger: discardLogger()})
	rec := serve(m.Handler(testHandler()), "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":"u9"`)
}

// =============================================================================
// RequireAuth / Require Tests
// =============================================================================

func TestRequireAuth(t *testing.T) {
	h := newTestAuth(revocations{}).Handler(RequireAuth(discardLogger())(testHandler()))

	assert.Equal(t, http.StatusUnauthorized, serve(h, "").Code)
	assert.Equal(t, http.StatusOK, serve(h, "Bearer owner-token").Code)
}

func TestRequire(t *testing.T) {
	tests := []struct {
		name   string
		policy func(auth.Context) bool
		header string
		want   int
	}{
		{"anonymous", auth.CanManageTechnicians, "", http.StatusUnauthorized},
		{"owner manages", auth.CanManageTechnicians, "Bearer owner-token", http.StatusOK},
		{"owner views", auth.CanViewTechnicians, "Bearer owner-token", http.StatusOK},
		{"policy refuses", func(auth.Context) bool { return false }, "Bearer owner-token", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestAuth(revocations{}).Handler(Require(discardLogger(), tt.policy)(testHandler()))
			assert.Equal(t, tt.want, serve(h, tt.header).Code)
		})
	}
}
