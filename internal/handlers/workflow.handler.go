package handlers

import (
	"opsflow/internal/app"
	"opsflow/internal/handlers/middleware"
	"opsflow/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type WorkflowHandler struct {
	Handler
	tokenService    *services.TokenService
	workflowService *services.WorkflowService
}

func NewWorkflowHandler(app app.App, router fiber.Router) *WorkflowHandler {
	log := logger.New("handlers").File("workflow_handler")
	return &WorkflowHandler{
		tokenService:    app.Services.Token,
		workflowService: app.Services.Workflow,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

// Register mounts the raw hook for admins only. Clients reach the same events through the
// quote accept/reject routes, which check ownership first.
func (h *WorkflowHandler) Register() {
	workflow := h.router.Group(
		"/workflow",
		h.middleware.RequireAuth(h.tokenService),
		h.middleware.RequireAdmin(),
	)
	workflow.Post("", h.dispatch)
}

// dispatch is the single entry point for status-change hooks.
func (h *WorkflowHandler) dispatch(c *fiber.Ctx) error {
	log := handlerLog(c, "workflow_handler", "dispatch")

	var req services.WorkflowRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return badRequest(c, "Invalid request body")
	}

	event, err := services.ParseEvent(req)
	if err != nil {
		return respondError(c, log, err)
	}

	user := middleware.GetUser(c)
	result, err := h.workflowService.Dispatch(c.UserContext(), event, &user.ID)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"result":  result,
	})
}
