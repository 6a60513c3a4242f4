package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

const (
	authContextKey = "auth_context"

	// Cookie names shared with the transport layer.
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// AuthContext identifies the authenticated caller. Built by middleware from a
// verified token and passed into session operations that need it.
type AuthContext struct {
	Subject int64
	Role    domain.Role
	// RecordID is set only when the context was built from a refresh token.
	RecordID string
}

// Middleware validates tokens on protected routes.
type Middleware struct {
	access  *AccessTokenSigner
	refresh *RefreshTokenSigner
	records repository.RefreshTokenRepository
}

// NewMiddleware constructs middleware.
func NewMiddleware(access *AccessTokenSigner, refresh *RefreshTokenSigner, records repository.RefreshTokenRepository) *Middleware {
	return &Middleware{access: access, refresh: refresh, records: records}
}

// RequireAccessToken authenticates via the access token, taken from the
// accessToken cookie or an Authorization bearer header. Verification is
// stateless: signature and expiry only.
func (m *Middleware) RequireAccessToken(c *fiber.Ctx) error {
	tokenStr := c.Cookies(AccessTokenCookie)
	if tokenStr == "" {
		tokenStr = bearerToken(c)
	}
	if tokenStr == "" {
		return apperrors.NewUnauthorized("missing access token")
	}

	claims, err := m.access.Verify(tokenStr)
	if err != nil {
		return apperrors.NewUnauthorized("invalid access token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return apperrors.NewUnauthorized("invalid access token")
	}

	c.Locals(authContextKey, &AuthContext{Subject: userID, Role: claims.Role})
	return c.Next()
}

// RequireRefreshToken authenticates via the refresh token cookie. Beyond the
// signature, the backing record must still exist and belong to the claimed
// subject; a deleted record means the token was revoked.
func (m *Middleware) RequireRefreshToken(c *fiber.Ctx) error {
	tokenStr := c.Cookies(RefreshTokenCookie)
	if tokenStr == "" {
		return apperrors.NewUnauthorized("missing refresh token")
	}

	claims, err := m.refresh.Verify(tokenStr)
	if err != nil {
		return apperrors.NewUnauthorized("invalid refresh token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return apperrors.NewUnauthorized("invalid refresh token")
	}

	record, err := m.records.GetByID(c.UserContext(), claims.RecordID())
	if err != nil {
		return apperrors.MapError(err)
	}
	if record == nil || record.UserID != userID {
		return apperrors.NewUnauthorized("refresh token revoked")
	}

	c.Locals(authContextKey, &AuthContext{Subject: userID, Role: claims.Role, RecordID: record.ID})
	return c.Next()
}

// ContextFrom retrieves the authenticated caller set by the middleware.
func ContextFrom(c *fiber.Ctx) (*AuthContext, bool) {
	val := c.Locals(authContextKey)
	if val == nil {
		return nil, false
	}
	authCtx, ok := val.(*AuthContext)
	return authCtx, ok
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
