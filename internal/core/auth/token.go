package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/artpar/pgstay/internal/core/domain"
)

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrSecretTooWeak = errors.New("jwt secret must be at least 32 bytes")
)

// Claims is the JWT payload of a session token.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. ttl must be positive.
func NewTokenIssuer(secret, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) < 32 {
		return nil, ErrSecretTooWeak
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns how long issued tokens stay valid.
func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// Issue signs a new token for user and returns it with the context it
// authenticates.
func (i *TokenIssuer) Issue(user domain.User) (string, Context, error) {
	now := i.now().UTC().Truncate(time.Second)
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", Context{}, fmt.Errorf("sign token: %w", err)
	}
	return token, contextFromClaims(claims), nil
}

// Parse verifies a token's signature, issuer and expiry and returns the
// context it carries. Every failure wraps ErrInvalidToken.
func (i *TokenIssuer) Parse(token string) (Context, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return Context{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID == "" || !claims.Role.IsValid() {
		return Context{}, fmt.Errorf("%w: missing subject, id or role", ErrInvalidToken)
	}
	return contextFromClaims(claims), nil
}

func contextFromClaims(c Claims) Context {
	ctx := Context{
		UserID:        c.Subject,
		Role:          c.Role,
		TokenID:       c.ID,
		Authenticated: true,
	}
	if c.ExpiresAt != nil {
		ctx.ExpiresAt = c.ExpiresAt.Time.UTC()
	}
	return ctx
}
