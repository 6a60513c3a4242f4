package auth

import (
	"errors"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Token verification failures. All three force re-authentication; callers
// never learn more than which class of failure occurred.
var (
	ErrMalformedToken = errors.New("malformed token")
	ErrExpiredToken   = errors.New("expired token")
	ErrInvalidToken   = errors.New("invalid token")
)

// classifyTokenError folds jwt/v5 parse errors into the service taxonomy.
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	default:
		return ErrInvalidToken
	}
}
