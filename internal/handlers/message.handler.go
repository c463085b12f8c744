package handlers

import (
	"opsflow/internal/app"
	messageController "opsflow/internal/controllers/messages"
	"opsflow/internal/handlers/middleware"
	"opsflow/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type MessageHandler struct {
	Handler
	tokenService      *services.TokenService
	messageController messageController.MessageControllerInterface
}

func NewMessageHandler(app app.App, router fiber.Router) *MessageHandler {
	log := logger.New("handlers").File("message_handler")
	return &MessageHandler{
		tokenService:      app.Services.Token,
		messageController: app.Controllers.Message,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *MessageHandler) Register() {
	messages := h.router.Group(
		"/service-requests/:id/messages",
		h.middleware.RequireAuth(h.tokenService),
	)

	messages.Get("", h.getMessages)
	messages.Post("", h.sendMessage)
}

func (h *MessageHandler) getMessages(c *fiber.Ctx) error {
	log := handlerLog(c, "message_handler", "getMessages")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid service request ID")
	}

	messages, err := h.messageController.List(c.UserContext(), middleware.GetUser(c), id)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"messages": messages,
	})
}

func (h *MessageHandler) sendMessage(c *fiber.Ctx) error {
	log := handlerLog(c, "message_handler", "sendMessage")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid service request ID")
	}

	var req messageController.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return badRequest(c, "Invalid request body")
	}

	message, err := h.messageController.Send(c.UserContext(), middleware.GetUser(c), id, &req)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
	})
}
