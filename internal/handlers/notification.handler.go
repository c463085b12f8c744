package handlers

import (
	"opsflow/internal/app"
	"opsflow/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type NotificationHandler struct {
	Handler
	tokenService        *services.TokenService
	notificationService services.Notifier
}

func NewNotificationHandler(app app.App, router fiber.Router) *NotificationHandler {
	log := logger.New("handlers").File("notification_handler")

	var notifier services.Notifier
	if app.Services.Notification != nil {
		notifier = app.Services.Notification
	}

	return &NotificationHandler{
		tokenService:        app.Services.Token,
		notificationService: notifier,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *NotificationHandler) Register() {
	notifications := h.router.Group(
		"/notifications",
		h.middleware.RequireAuth(h.tokenService),
		h.middleware.RequireAdmin(),
	)
	notifications.Post("/email", h.sendEmail)
}

func (h *NotificationHandler) sendEmail(c *fiber.Ctx) error {
	log := handlerLog(c, "notification_handler", "sendEmail")

	if h.notificationService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "Notifications are not configured",
		})
	}

	var req services.EmailRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return badRequest(c, "Invalid request body")
	}

	if err := h.notificationService.Send(c.UserContext(), req); err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Email sent",
	})
}
