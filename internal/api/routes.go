package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the swap API. withHealth also serves /healthz on
// this app, for when no separate health-check port is configured.
func RegisterRoutes(app *fiber.App, h *SwapHandler, withHealth bool) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	if withHealth {
		app.Get("/healthz", func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusOK).SendString("ok")
		})
	}

	v1 := app.Group("/swap/v1")
	v1.Get("/", h.Root)
	v1.Get("/quote", Instrument("quote", h.Quote))
	v1.Get("/price", Instrument("price", h.Price))
	v1.Get("/depth", Instrument("depth", h.Depth))
	v1.Get("/sources", h.Sources)
	v1.Get("/tokens", h.Tokens)
}
