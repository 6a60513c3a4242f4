package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/config"
)

// ReadinessProbe checks that one backing dependency of the token service is
// reachable.
type ReadinessProbe func(ctx context.Context) error

type namedProbe struct {
	name  string
	check ReadinessProbe
}

// HealthHandler responds to liveness and readiness probes. Readiness walks
// the registered dependency probes under the configured probe timeout.
type HealthHandler struct {
	app    config.AppConfig
	probes []namedProbe
}

// NewHealthHandler returns a handler with no probes; liveness only. Register
// dependency checks with WithProbe.
func NewHealthHandler(app config.AppConfig) *HealthHandler {
	return &HealthHandler{app: app}
}

// WithProbe registers a named dependency check and returns the handler for
// chaining.
func (h *HealthHandler) WithProbe(name string, check ReadinessProbe) *HealthHandler {
	h.probes = append(h.probes, namedProbe{name: name, check: check})
	return h
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.app.Name,
		"version": h.app.Version,
	})
}

// Ready reports readiness by running every registered probe. A single failed
// probe makes the whole service unready.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.app.ProbeTimeout())
	defer cancel()

	depStatus := fiber.Map{}
	ready := true
	for _, probe := range h.probes {
		if err := probe.check(ctx); err != nil {
			depStatus[probe.name] = err.Error()
			ready = false
			continue
		}
		depStatus[probe.name] = "ok"
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
