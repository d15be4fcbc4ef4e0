package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ragsearch/internal/auth"
	"ragsearch/internal/http/middleware"
	"ragsearch/internal/service"
)

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain ping function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	// Checks are pinged by /health, keyed by dependency name.
	Checks   map[string]Pinger
	Files    service.FileService
	Prompts  service.PromptService
	Verifier auth.Verifier
	Gatherer prometheus.Gatherer
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.Checks))
	app.Get("/healthz", Liveness())
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	requireAuth := middleware.RequireAuth(d.Verifier)

	app.Get("/auth/whoami", requireAuth, WhoAmI())

	app.Post("/upload", requireAuth, UploadFile(d.Files))
	app.Get("/files", requireAuth, ListFiles(d.Files))
	app.Post("/files/reindex", requireAuth, ReindexFiles(d.Files))
	app.Get("/storage", requireAuth, GetStorage(d.Files))

	app.Post("/prompt", requireAuth, Prompt(d.Prompts))
}

// HealthCheck pings every dependency in checks.
//
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(checks map[string]Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status := make(map[string]string, len(checks))
		var failing []string
		for name, p := range checks {
			if err := p.PingContext(ctx); err != nil {
				status[name] = "unavailable"
				failing = append(failing, name)
				continue
			}
			status[name] = "ok"
		}
		if len(failing) > 0 {
			return writeEnvelope(c, fiber.StatusServiceUnavailable, errorEnvelope{
				Code:      "SERVICE_UNAVAILABLE",
				Message:   "dependency unavailable",
				Retryable: true,
				Details:   map[string]any{"dependencies": status},
			})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy", "dependencies": status})
	}
}

// Liveness always answers 200 while the process is serving.
//
// @Summary Liveness check
// @Tags Health
// @Success 200
// @Router /healthz [get]
func Liveness() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ownerOf returns the authenticated caller's user id.
func ownerOf(c *fiber.Ctx) (string, error) {
	id := middleware.Identity(c)
	if id == nil || id.ID == "" {
		return "", auth.ErrUnauthorized
	}
	return id.ID, nil
}
