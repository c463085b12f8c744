package handlers

import (
	"opsflow/internal/app"
	"opsflow/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	router.Use(app.Middleware.TraceID())

	router.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	if app.Websocket != nil {
		setupWebSocketRoute(router, app)
	}

	api := router.Group("/api")
	HealthHandler(api, app.Config, app.Database)
	NewWorkflowHandler(*app, api).Register()
	NewNotificationHandler(*app, api).Register()
	NewServiceRequestHandler(*app, api).Register()
	NewQuoteHandler(*app, api).Register()
	NewInterventionHandler(*app, api).Register()
	NewAuditHandler(*app, api).Register()
	NewMessageHandler(*app, api).Register()
	NewDashboardHandler(*app, api).Register()
	NewFollowupHandler(*app, api).Register()

	return nil
}

func setupWebSocketRoute(router fiber.Router, app *app.App) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(func(c *websocket.Conn) {
		app.Websocket.HandleWebSocket(c)
	}))
}
