package handlers

import (
	"time"

	"opsflow/internal/app"
	followupController "opsflow/internal/controllers/followups"
	"opsflow/internal/handlers/middleware"
	"opsflow/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type FollowupHandler struct {
	Handler
	tokenService       *services.TokenService
	followupController followupController.FollowupControllerInterface
}

func NewFollowupHandler(app app.App, router fiber.Router) *FollowupHandler {
	log := logger.New("handlers").File("followup_handler")
	return &FollowupHandler{
		tokenService:       app.Services.Token,
		followupController: app.Controllers.Followup,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *FollowupHandler) Register() {
	followups := h.router.Group(
		"/followups",
		h.middleware.RequireAuth(h.tokenService),
		h.middleware.RequireAdmin(),
	)

	followups.Get("/due", h.getDueFollowups)
	followups.Post("/:id/done", h.markDone)
}

func (h *FollowupHandler) getDueFollowups(c *fiber.Ctx) error {
	log := handlerLog(c, "followup_handler", "getDueFollowups")

	var cutoff time.Time
	if before := c.Query("before"); before != "" {
		parsed, err := time.Parse(time.RFC3339, before)
		if err != nil {
			return badRequest(c, "before must be an RFC 3339 timestamp")
		}
		cutoff = parsed
	}

	followups, err := h.followupController.ListDue(c.UserContext(), cutoff)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"followups": followups,
	})
}

func (h *FollowupHandler) markDone(c *fiber.Ctx) error {
	log := handlerLog(c, "followup_handler", "markDone")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid followup ID")
	}

	var req followupController.MarkDoneRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			log.Warn("Invalid request body", "error", err)
			return badRequest(c, "Invalid request body")
		}
	}

	if err := h.followupController.MarkDone(c.UserContext(), middleware.GetUser(c), id, &req); err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}
