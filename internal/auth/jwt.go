// Package auth issues and verifies the bearer tokens that guard operator
// endpoints such as POST /admin/toc/reload.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
)

// Audience is stamped on every token and required on validation, so a
// token minted for another service with the same secret is refused.
const Audience = "commonprayer-admin"

// clockSkew tolerated on exp, nbf and iat.
const clockSkew = 30 * time.Second

// JWTManager mints and verifies HS256 operator tokens.
type JWTManager struct {
	secret     []byte
	issuer     string
	defaultTTL time.Duration
	now        func() time.Time
}

// NewJWTManager expects a secret of at least 32 bytes; config validation
// enforces that.
func NewJWTManager(secret, issuer string, defaultTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:     []byte(secret),
		issuer:     issuer,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

type operatorClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// GenerateAccessToken signs a token for subject. ttl <= 0 uses the
// manager's default lifetime.
func (m *JWTManager) GenerateAccessToken(subject, role string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is empty")
	}
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	issued := m.now()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, operatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
		},
		Role: role,
	}).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken returns the subject and role of a valid token.
// Every failure wraps domain.ErrUnauthorized.
func (m *JWTManager) ValidateAccessToken(raw string) (subject, role string, err error) {
	if raw == "" {
		return "", "", fmt.Errorf("empty token: %w", domain.ErrUnauthorized)
	}

	var claims operatorClaims
	_, err = jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return "", "", fmt.Errorf("token has no subject: %w", domain.ErrUnauthorized)
	}
	return claims.Subject, claims.Role, nil
}

// ValidateToken satisfies the HTTP auth middleware.
func (m *JWTManager) ValidateToken(_ context.Context, token string) (string, string, error) {
	return m.ValidateAccessToken(token)
}
