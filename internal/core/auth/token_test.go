package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/pgstay/internal/core/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestIssuer(t *testing.T, now time.Time) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(testSecret, "pgstay-test", time.Hour)
	require.NoError(t, err)
	issuer.now = func() time.Time { return now }
	return issuer
}

func TestNewTokenIssuer_Rejects(t *testing.T) {
	_, err := NewTokenIssuer("short", "pgstay", time.Hour)
	assert.ErrorIs(t, err, ErrSecretTooWeak)

	_, err = NewTokenIssuer(testSecret, "pgstay", 0)
	assert.Error(t, err)
}

func TestTokenIssuer_IssueThenParse(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	issuer := newTestIssuer(t, now)
	user := domain.User{ID: "user-1", Role: domain.RoleOwner}

	token, issued, err := issuer.Issue(user)
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(token, ".")))
	assert.Equal(t, now.Add(time.Hour), issued.ExpiresAt)

	got, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, issued, got)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, domain.RoleOwner, got.Role)
	assert.NotEmpty(t, got.TokenID)
	assert.True(t, got.Authenticated)
}

func TestTokenIssuer_EveryTokenHasItsOwnID(t *testing.T) {
	issuer := newTestIssuer(t, time.Now())
	user := domain.User{ID: "user-1", Role: domain.RoleResident}

	_, a, err := issuer.Issue(user)
	require.NoError(t, err)
	_, b, err := issuer.Issue(user)
	require.NoError(t, err)
	assert.NotEqual(t, a.TokenID, b.TokenID)
}

func TestTokenIssuer_ParseRejects(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	issuer := newTestIssuer(t, now)
	token, _, err := issuer.Issue(domain.User{ID: "user-1", Role: domain.RoleOwner})
	require.NoError(t, err)

	other, err := NewTokenIssuer("ffffffffffffffffffffffffffffffff", "pgstay-test", time.Hour)
	require.NoError(t, err)
	forged, _, err := other.Issue(domain.User{ID: "user-1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	foreignIssuer := newTestIssuer(t, now)
	foreignIssuer.issuer = "someone-else"
	foreign, _, err := foreignIssuer.Issue(domain.User{ID: "user-1", Role: domain.RoleOwner})
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			Subject:   "user-1",
			Issuer:    "pgstay-test",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		at    time.Time
	}{
		{"garbage", "not-a-token", now},
		{"wrong secret", forged, now},
		{"wrong issuer", foreign, now},
		{"alg none", none, now},
		{"expired", token, now.Add(2 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer.now = func() time.Time { return tt.at }
			_, err := issuer.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
