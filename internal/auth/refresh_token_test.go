package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/domain"
)

func TestRefreshTokenRoundTrip(t *testing.T) {
	t.Parallel()

	signer := NewRefreshTokenSigner("refresh-secret", "auth-service", 365*24*time.Hour)

	token, err := signer.Sign(42, domain.RoleCustomer, "b7e2c9d0-record")
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3)

	claims, err := signer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "42", claims.Subject)
	require.Equal(t, "b7e2c9d0-record", claims.RecordID())
	require.Equal(t, domain.RoleCustomer, claims.Role)

	userID, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, int64(42), userID)
}

func TestRefreshTokenExpired(t *testing.T) {
	t.Parallel()

	signer := &RefreshTokenSigner{secret: []byte("s"), issuer: "auth-service", ttl: -time.Minute}

	token, err := signer.Sign(7, domain.RoleCustomer, "r1")
	require.NoError(t, err)

	_, err = signer.Verify(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestRefreshTokenWrongSecret(t *testing.T) {
	t.Parallel()

	signer := NewRefreshTokenSigner("right-secret", "auth-service", time.Hour)
	other := NewRefreshTokenSigner("wrong-secret", "auth-service", time.Hour)

	token, err := signer.Sign(7, domain.RoleCustomer, "r1")
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenMalformed(t *testing.T) {
	t.Parallel()

	signer := NewRefreshTokenSigner("s", "auth-service", time.Hour)

	_, err := signer.Verify("garbage")
	require.ErrorIs(t, err, ErrMalformedToken)
}
