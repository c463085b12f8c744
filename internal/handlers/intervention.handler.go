package handlers

import (
	"opsflow/internal/app"
	interventionController "opsflow/internal/controllers/interventions"
	"opsflow/internal/handlers/middleware"
	"opsflow/internal/models"
	"opsflow/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type InterventionHandler struct {
	Handler
	tokenService           *services.TokenService
	interventionController interventionController.InterventionControllerInterface
}

func NewInterventionHandler(app app.App, router fiber.Router) *InterventionHandler {
	log := logger.New("handlers").File("intervention_handler")
	return &InterventionHandler{
		tokenService:           app.Services.Token,
		interventionController: app.Controllers.Intervention,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *InterventionHandler) Register() {
	interventions := h.router.Group("/interventions", h.middleware.RequireAuth(h.tokenService))

	interventions.Get("/mine", h.getOwnInterventions)
	interventions.Get("", h.middleware.RequireAdmin(), h.getInterventions)
	interventions.Get("/:id", h.getIntervention)

	interventions.Post("/:id/plan", h.middleware.RequireAdmin(), h.planIntervention)
	interventions.Post("/:id/start", h.middleware.RequireAdmin(), h.startIntervention)
	interventions.Post("/:id/complete", h.middleware.RequireAdmin(), h.completeIntervention)
	interventions.Post("/:id/close", h.middleware.RequireAdmin(), h.closeIntervention)
}

func (h *InterventionHandler) getOwnInterventions(c *fiber.Ctx) error {
	log := handlerLog(c, "intervention_handler", "getOwnInterventions")

	interventions, err := h.interventionController.ListOwn(c.UserContext(), middleware.GetUser(c))
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"interventions": interventions,
	})
}

func (h *InterventionHandler) getInterventions(c *fiber.Ctx) error {
	log := handlerLog(c, "intervention_handler", "getInterventions")

	status := models.InterventionStatus(c.Query("status"))
	interventions, err := h.interventionController.List(c.UserContext(), status)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"interventions": interventions,
	})
}

func (h *InterventionHandler) getIntervention(c *fiber.Ctx) error {
	log := handlerLog(c, "intervention_handler", "getIntervention")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid intervention ID")
	}

	intervention, err := h.interventionController.Get(c.UserContext(), middleware.GetUser(c), id)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"intervention": intervention,
	})
}

func (h *InterventionHandler) planIntervention(c *fiber.Ctx) error {
	log := handlerLog(c, "intervention_handler", "planIntervention")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid intervention ID")
	}

	var req interventionController.PlanRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return badRequest(c, "Invalid request body")
	}

	result, err := h.interventionController.Plan(c.UserContext(), middleware.GetUser(c), id, &req)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"result":  result,
	})
}

func (h *InterventionHandler) startIntervention(c *fiber.Ctx) error {
	log := handlerLog(c, "intervention_handler", "startIntervention")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid intervention ID")
	}

	intervention, err := h.interventionController.Start(c.UserContext(), id)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"intervention": intervention,
	})
}

func (h *InterventionHandler) completeIntervention(c *fiber.Ctx) error {
	log := handlerLog(c, "intervention_handler", "completeIntervention")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid intervention ID")
	}

	var req interventionController.CompleteRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			log.Warn("Invalid request body", "error", err)
			return badRequest(c, "Invalid request body")
		}
	}

	result, err := h.interventionController.Complete(c.UserContext(), middleware.GetUser(c), id, &req)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"result":  result,
	})
}

func (h *InterventionHandler) closeIntervention(c *fiber.Ctx) error {
	log := handlerLog(c, "intervention_handler", "closeIntervention")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid intervention ID")
	}

	intervention, err := h.interventionController.Close(c.UserContext(), id)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"intervention": intervention,
	})
}
