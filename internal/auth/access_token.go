package auth

import (
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/auth-service/internal/domain"
)

// AccessClaims describes the access token payload. Validity is purely
// cryptographic: signature plus expiry, no store lookup, which is why access
// tokens cannot be individually revoked before expiry.
type AccessClaims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject.
func (c *AccessClaims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// AccessTokenSigner issues and validates short-lived RS256 access tokens.
type AccessTokenSigner struct {
	keys   *KeyPair
	issuer string
	ttl    time.Duration
}

// NewAccessTokenSigner builds a signer around the process key pair.
func NewAccessTokenSigner(keys *KeyPair, issuer string, ttl time.Duration) *AccessTokenSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AccessTokenSigner{keys: keys, issuer: issuer, ttl: ttl}
}

// TTL returns the configured token lifetime.
func (s *AccessTokenSigner) TTL() time.Duration {
	return s.ttl
}

// Sign builds and signs an access token for the user. The jti claim carries
// a fresh nonce so every issuance yields a distinct token even within the
// one-second resolution of iat/exp.
func (s *AccessTokenSigner) Sign(userID int64, role domain.Role) (string, error) {
	now := time.Now()
	claims := &AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(s.keys.Private())
}

// Verify validates signature and expiry and returns the claims. Failures map
// to ErrMalformedToken, ErrExpiredToken or ErrInvalidToken.
func (s *AccessTokenSigner) Verify(tokenStr string) (*AccessClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodRS256 {
			return nil, ErrInvalidToken
		}
		return s.keys.Public(), nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		return nil, classifyTokenError(err)
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
