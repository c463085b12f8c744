package handlers

import (
	"opsflow/internal/app"
	dashboardController "opsflow/internal/controllers/dashboard"
	"opsflow/internal/models"
	"opsflow/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

const maxRecentWorkflowLogs = 200

type DashboardHandler struct {
	Handler
	tokenService        *services.TokenService
	scheduler           *services.SchedulerService
	dashboardController dashboardController.DashboardControllerInterface
}

func NewDashboardHandler(app app.App, router fiber.Router) *DashboardHandler {
	log := logger.New("handlers").File("dashboard_handler")
	return &DashboardHandler{
		tokenService:        app.Services.Token,
		scheduler:           app.Services.Scheduler,
		dashboardController: app.Controllers.Dashboard,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *DashboardHandler) Register() {
	dashboard := h.router.Group(
		"/dashboard",
		h.middleware.RequireAuth(h.tokenService),
		h.middleware.RequireAdmin(),
	)

	dashboard.Get("/stats", h.getStats)
	dashboard.Get("/workflow-logs", h.getRecentWorkflowLogs)
	dashboard.Get("/workflow-logs/:entityType/:id", h.getWorkflowLogs)
	dashboard.Get("/jobs", h.getJobs)
	dashboard.Post("/jobs/:name/run", h.runJob)
}

func (h *DashboardHandler) getStats(c *fiber.Ctx) error {
	log := handlerLog(c, "dashboard_handler", "getStats")

	stats, err := h.dashboardController.Stats(c.UserContext())
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"stats": stats,
	})
}

func (h *DashboardHandler) getRecentWorkflowLogs(c *fiber.Ctx) error {
	log := handlerLog(c, "dashboard_handler", "getRecentWorkflowLogs")

	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > maxRecentWorkflowLogs {
		limit = maxRecentWorkflowLogs
	}

	logs, err := h.dashboardController.RecentWorkflowLogs(c.UserContext(), limit)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"logs": logs,
	})
}

func (h *DashboardHandler) getWorkflowLogs(c *fiber.Ctx) error {
	log := handlerLog(c, "dashboard_handler", "getWorkflowLogs")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid entity ID")
	}

	entityType := models.EntityType(c.Params("entityType"))
	logs, err := h.dashboardController.WorkflowLogs(c.UserContext(), entityType, id)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"logs": logs,
	})
}

func (h *DashboardHandler) getJobs(c *fiber.Ctx) error {
	if h.scheduler == nil {
		return c.JSON(fiber.Map{"jobs": []services.JobStatus{}})
	}

	return c.JSON(fiber.Map{
		"jobs": h.scheduler.Jobs(),
	})
}

// runJob triggers a job synchronously so the caller sees its outcome.
func (h *DashboardHandler) runJob(c *fiber.Ctx) error {
	log := handlerLog(c, "dashboard_handler", "runJob")

	if h.scheduler == nil {
		return respondError(c, log, services.ErrNotFound)
	}

	name := c.Params("name")
	if err := h.scheduler.TriggerJobByName(c.UserContext(), name); err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"job":     name,
	})
}
