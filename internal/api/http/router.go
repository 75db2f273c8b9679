package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/item-service/internal/api/http/handlers"
	"github.com/spec-kit/item-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tokens         *handlers.TokenHandler
	Items          *handlers.ItemsHandler
	AuthMiddleware *auth.AuthMiddleware
	Policy         auth.Policy
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/token", cfg.Tokens.Issue)

	policy := cfg.Policy
	if policy == nil {
		policy = auth.DefaultPolicy()
	}
	read := auth.RequireAccess(policy, auth.OpRead)
	write := auth.RequireAccess(policy, auth.OpWrite)
	remove := auth.RequireAccess(policy, auth.OpDelete)

	items := app.Group("/items", cfg.AuthMiddleware.Handle)
	items.Post("/", write, cfg.Items.Create)
	items.Get("/", read, cfg.Items.List)
	items.Get("/:id", read, cfg.Items.Get)
	items.Put("/:id", write, cfg.Items.Replace)
	items.Patch("/:id", write, cfg.Items.Patch)
	items.Delete("/:id", remove, cfg.Items.Delete)
}

// NewApp builds a fiber application with the service's error rendering.
func NewApp(cfg RouteConfig, mw MiddlewareConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               mw.AppName,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(mw.Logger, mw.Metrics),
	})
	RegisterMiddlewares(app, mw.Logger, mw.Metrics, mw.Timeout)
	RegisterRoutes(app, cfg)
	return app
}
