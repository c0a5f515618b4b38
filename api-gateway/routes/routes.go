package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tair/stock-reconciler/api-gateway/config"
	"github.com/tair/stock-reconciler/api-gateway/middleware"
	"github.com/tair/stock-reconciler/api-gateway/proxy"
)

// RouteDefinition defines a route mapping
type RouteDefinition struct {
	Prefix       string
	ServiceName  string
	Description  string
	RequireAuth  bool
	RequireAdmin bool
}

// Routes holds all route definitions. Role checks for individual write
// endpoints live in the reconciler service itself; the gateway only
// enforces authentication at the prefix level.
var Routes = []RouteDefinition{
	{
		Prefix:       "/api/reconciler",
		ServiceName:  "reconciler",
		Description:  "Stock reconciliation (alerts, valuation, movements, stock ops)",
		RequireAuth:  true,
		RequireAdmin: false,
	},
	{
		Prefix:       "/api/inventory",
		ServiceName:  "inventory",
		Description:  "Inventory records (mixed: writes need admin)",
		RequireAuth:  true,
		RequireAdmin: false,
	},
}

// SetupRoutes configures all routes in the gateway
func SetupRoutes(app *fiber.App, cfg *config.GatewayConfig) {
	reverseProxy := proxy.NewReverseProxy(cfg)

	// Gateway health check (no downstream checks)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "api-gateway",
		})
	})

	// Liveness probe (for Kubernetes)
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "alive",
		})
	})

	// API routes overview
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "API Gateway",
			"version": "1.0.0",
			"routes":  Routes,
		})
	})

	for _, route := range Routes {
		registerServiceRoutes(app, route, reverseProxy)
	}
}

// registerServiceRoutes registers all HTTP methods for a service prefix
func registerServiceRoutes(app *fiber.App, route RouteDefinition, proxyHandler *proxy.ReverseProxy) {
	handler := func(c *fiber.Ctx) error {
		return proxyHandler.ProxyRequest(c, route.ServiceName)
	}

	var middlewares []fiber.Handler
	if route.RequireAdmin {
		middlewares = append(middlewares, middleware.AuthMiddleware(), middleware.AdminMiddleware())
	} else if route.RequireAuth {
		middlewares = append(middlewares, middleware.AuthMiddleware())
	}

	group := app.Group(route.Prefix, middlewares...)
	group.All("/*", handler)

	// Also handle the exact prefix path (without /*)
	if len(middlewares) > 0 {
		app.All(route.Prefix, append(middlewares, handler)...)
	} else {
		app.All(route.Prefix, handler)
	}
}
