package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/api/http/handlers"
	"github.com/spec-kit/auth-service/internal/config"
)

func newHealthApp(handler *handlers.HealthHandler) *fiber.App {
	app := fiber.New()
	app.Get("/health/live", handler.Live)
	app.Get("/health/ready", handler.Ready)
	return app
}

func TestHealthLive(t *testing.T) {
	t.Parallel()

	handler := handlers.NewHealthHandler(config.AppConfig{Name: "auth-service", Version: "test"})
	app := newHealthApp(handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	require.Equal(t, "alive", body["status"])
	require.Equal(t, "auth-service", body["service"])
	require.Equal(t, "test", body["version"])
}

func TestHealthReadyReportsEachProbe(t *testing.T) {
	t.Parallel()

	handler := handlers.NewHealthHandler(config.AppConfig{Name: "auth-service"}).
		WithProbe("postgres", func(context.Context) error { return nil }).
		WithProbe("redis", func(context.Context) error { return nil })
	app := newHealthApp(handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	decodeBody(t, resp, &body)
	require.Equal(t, "ready", body.Status)
	require.Equal(t, "ok", body.Dependencies["postgres"])
	require.Equal(t, "ok", body.Dependencies["redis"])
}

func TestHealthReadyFailingProbe(t *testing.T) {
	t.Parallel()

	handler := handlers.NewHealthHandler(config.AppConfig{Name: "auth-service"}).
		WithProbe("postgres", func(context.Context) error { return nil }).
		WithProbe("redis", func(context.Context) error { return errors.New("connection refused") })
	app := newHealthApp(handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)
	require.Equal(t, "DEPENDENCY_UNAVAILABLE", body.Error.Code)
	require.Equal(t, "ok", body.Error.Details["postgres"])
	require.Equal(t, "connection refused", body.Error.Details["redis"])
}
