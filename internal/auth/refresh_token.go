package auth

import (
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/auth-service/internal/domain"
)

// RefreshClaims describes the refresh token payload. The jti claim carries
// the backing RefreshTokenRecord id; without a live record the token is
// revoked no matter how valid the signature is.
type RefreshClaims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject.
func (c *RefreshClaims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// RecordID returns the backing record id.
func (c *RefreshClaims) RecordID() string {
	return c.ID
}

// RefreshTokenSigner issues and validates long-lived HS256 refresh tokens.
// The symmetric secret is separate key material from the access-token pair.
type RefreshTokenSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewRefreshTokenSigner builds the signer.
func NewRefreshTokenSigner(secret string, issuer string, ttl time.Duration) *RefreshTokenSigner {
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	return &RefreshTokenSigner{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// TTL returns the configured token lifetime.
func (s *RefreshTokenSigner) TTL() time.Duration {
	return s.ttl
}

// Sign builds and signs a refresh token bound to the given record id.
func (s *RefreshTokenSigner) Sign(userID int64, role domain.Role, recordID string) (string, error) {
	now := time.Now()
	claims := &RefreshClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        recordID,
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify proves authenticity of the claims only; liveness of the backing
// record is checked by the caller against the refresh token store.
func (s *RefreshTokenSigner) Verify(tokenStr string) (*RefreshClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &RefreshClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		return nil, classifyTokenError(err)
	}

	claims, ok := parsed.Claims.(*RefreshClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
