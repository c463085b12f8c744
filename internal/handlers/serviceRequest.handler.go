package handlers

import (
	"opsflow/internal/app"
	serviceRequestController "opsflow/internal/controllers/serviceRequests"
	"opsflow/internal/handlers/middleware"
	"opsflow/internal/models"
	"opsflow/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type ServiceRequestHandler struct {
	Handler
	tokenService             *services.TokenService
	serviceRequestController serviceRequestController.ServiceRequestControllerInterface
}

func NewServiceRequestHandler(app app.App, router fiber.Router) *ServiceRequestHandler {
	log := logger.New("handlers").File("service_request_handler")
	return &ServiceRequestHandler{
		tokenService:             app.Services.Token,
		serviceRequestController: app.Controllers.ServiceRequest,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ServiceRequestHandler) Register() {
	requests := h.router.Group("/service-requests", h.middleware.RequireAuth(h.tokenService))

	requests.Post("", h.createServiceRequest)
	requests.Get("/mine", h.getOwnServiceRequests)
	requests.Get("", h.middleware.RequireAdmin(), h.getServiceRequests)
	requests.Get("/:id", h.getServiceRequest)
	requests.Patch("/:id/status", h.middleware.RequireAdmin(), h.updateStatus)
	requests.Patch("/:id/schedule", h.middleware.RequireAdmin(), h.schedule)
}

func (h *ServiceRequestHandler) createServiceRequest(c *fiber.Ctx) error {
	log := handlerLog(c, "service_request_handler", "createServiceRequest")

	var req serviceRequestController.CreateServiceRequestRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return badRequest(c, "Invalid request body")
	}

	request, err := h.serviceRequestController.Create(c.UserContext(), middleware.GetUser(c), &req)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"serviceRequest": request,
	})
}

func (h *ServiceRequestHandler) getOwnServiceRequests(c *fiber.Ctx) error {
	log := handlerLog(c, "service_request_handler", "getOwnServiceRequests")

	requests, err := h.serviceRequestController.ListOwn(c.UserContext(), middleware.GetUser(c))
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"serviceRequests": requests,
	})
}

func (h *ServiceRequestHandler) getServiceRequests(c *fiber.Ctx) error {
	log := handlerLog(c, "service_request_handler", "getServiceRequests")

	status := models.ServiceRequestStatus(c.Query("status"))
	requests, err := h.serviceRequestController.List(c.UserContext(), status)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"serviceRequests": requests,
	})
}

func (h *ServiceRequestHandler) getServiceRequest(c *fiber.Ctx) error {
	log := handlerLog(c, "service_request_handler", "getServiceRequest")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid service request ID")
	}

	request, err := h.serviceRequestController.Get(c.UserContext(), middleware.GetUser(c), id)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"serviceRequest": request,
	})
}

func (h *ServiceRequestHandler) updateStatus(c *fiber.Ctx) error {
	log := handlerLog(c, "service_request_handler", "updateStatus")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid service request ID")
	}

	var req serviceRequestController.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return badRequest(c, "Invalid request body")
	}

	request, err := h.serviceRequestController.UpdateStatus(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"serviceRequest": request,
	})
}

func (h *ServiceRequestHandler) schedule(c *fiber.Ctx) error {
	log := handlerLog(c, "service_request_handler", "schedule")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid service request ID")
	}

	var req serviceRequestController.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return badRequest(c, "Invalid request body")
	}

	request, err := h.serviceRequestController.Schedule(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"serviceRequest": request,
	})
}
