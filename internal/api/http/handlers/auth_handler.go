package handlers

import (
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/dto"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/service"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

const minPasswordLength = 8

// AuthHandler exposes the session lifecycle endpoints.
type AuthHandler struct {
	sessions *service.SessionService
	cfg      config.AuthConfig
}

// NewAuthHandler constructs handler.
func NewAuthHandler(sessions *service.SessionService, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{sessions: sessions, cfg: cfg}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if details := validateRegister(&req); len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details)
	}

	user, pair, err := h.sessions.Register(c.UserContext(), req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setTokenCookies(c, pair)
	return c.Status(http.StatusCreated).JSON(dto.SessionResponse{ID: user.ID})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, pair, err := h.sessions.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setTokenCookies(c, pair)
	return c.JSON(dto.SessionResponse{ID: user.ID})
}

// Self handles GET /auth/self behind the access-token middleware.
func (h *AuthHandler) Self(c *fiber.Ctx) error {
	authCtx, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}

	user, err := h.sessions.CurrentUser(c.UserContext(), authCtx.Subject)
	if err != nil {
		return err
	}
	return c.JSON(userResponse(user))
}

// Refresh handles POST /auth/refresh behind the refresh-token middleware,
// which has already proven the token's signature and record liveness.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	authCtx, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}

	user, pair, err := h.sessions.Refresh(c.UserContext(), *authCtx)
	if err != nil {
		return err
	}

	h.setTokenCookies(c, pair)
	return c.JSON(dto.SessionResponse{ID: user.ID})
}

// Logout handles POST /auth/logout behind the refresh-token middleware.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	authCtx, ok := auth.ContextFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}

	if err := h.sessions.Logout(c.UserContext(), *authCtx); err != nil {
		return err
	}

	h.clearTokenCookies(c)
	return c.JSON(fiber.Map{})
}

func (h *AuthHandler) setTokenCookies(c *fiber.Ctx, pair domain.TokenPair) {
	c.Cookie(h.tokenCookie(auth.AccessTokenCookie, pair.AccessToken, h.cfg.AccessTokenTTL()))
	c.Cookie(h.tokenCookie(auth.RefreshTokenCookie, pair.RefreshToken, h.cfg.RefreshTokenTTL()))
}

func (h *AuthHandler) clearTokenCookies(c *fiber.Ctx) {
	for _, name := range []string{auth.AccessTokenCookie, auth.RefreshTokenCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Domain:   h.cfg.CookieDomain,
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteStrictMode,
		})
	}
}

func (h *AuthHandler) tokenCookie(name, value string, ttl time.Duration) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Domain:   h.cfg.CookieDomain,
		MaxAge:   int(ttl.Seconds()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}

func validateRegister(req *dto.RegisterRequest) map[string]any {
	details := map[string]any{}
	if strings.TrimSpace(req.FirstName) == "" {
		details["firstName"] = "first name is required"
	}
	if strings.TrimSpace(req.LastName) == "" {
		details["lastName"] = "last name is required"
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		details["email"] = "email is required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		details["email"] = "email is invalid"
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		details["password"] = "password must be at least 8 characters"
	}
	return details
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Role:      string(user.Role),
	}
}
