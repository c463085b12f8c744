package handlers

import (
	"opsflow/internal/app"
	auditController "opsflow/internal/controllers/audits"
	"opsflow/internal/handlers/middleware"
	"opsflow/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type AuditHandler struct {
	Handler
	tokenService    *services.TokenService
	auditController auditController.AuditControllerInterface
}

func NewAuditHandler(app app.App, router fiber.Router) *AuditHandler {
	log := logger.New("handlers").File("audit_handler")
	return &AuditHandler{
		tokenService:    app.Services.Token,
		auditController: app.Controllers.Audit,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AuditHandler) Register() {
	audits := h.router.Group("/audits", h.middleware.RequireAuth(h.tokenService))

	audits.Post("", h.middleware.RequireAdmin(), h.createAudit)
	audits.Get("/mine", h.getOwnAudits)
	audits.Get("", h.middleware.RequireAdmin(), h.getAudits)
	audits.Get("/:id", h.getAudit)
	audits.Get("/:id/report", h.getReport)
	audits.Post("/:id/complete", h.middleware.RequireAdmin(), h.completeAudit)
}

func (h *AuditHandler) createAudit(c *fiber.Ctx) error {
	log := handlerLog(c, "audit_handler", "createAudit")

	var req auditController.CreateAuditRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return badRequest(c, "Invalid request body")
	}

	audit, err := h.auditController.Create(c.UserContext(), middleware.GetUser(c), &req)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"audit": audit,
	})
}

func (h *AuditHandler) getOwnAudits(c *fiber.Ctx) error {
	log := handlerLog(c, "audit_handler", "getOwnAudits")

	audits, err := h.auditController.ListOwn(c.UserContext(), middleware.GetUser(c))
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"audits": audits,
	})
}

func (h *AuditHandler) getAudits(c *fiber.Ctx) error {
	log := handlerLog(c, "audit_handler", "getAudits")

	audits, err := h.auditController.List(c.UserContext())
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"audits": audits,
	})
}

func (h *AuditHandler) getAudit(c *fiber.Ctx) error {
	log := handlerLog(c, "audit_handler", "getAudit")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid audit ID")
	}

	audit, err := h.auditController.Get(c.UserContext(), middleware.GetUser(c), id)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"audit": audit,
	})
}

// getReport serves the cached report unless ?refresh=true.
func (h *AuditHandler) getReport(c *fiber.Ctx) error {
	log := handlerLog(c, "audit_handler", "getReport")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid audit ID")
	}

	report, err := h.auditController.Report(
		c.UserContext(),
		middleware.GetUser(c),
		id,
		c.QueryBool("refresh", false),
	)
	if err != nil {
		return respondError(c, log, err)
	}

	if c.Query("format") == "html" {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(report.HTML)
	}

	return c.JSON(report)
}

func (h *AuditHandler) completeAudit(c *fiber.Ctx) error {
	log := handlerLog(c, "audit_handler", "completeAudit")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid audit ID")
	}

	result, err := h.auditController.Complete(c.UserContext(), middleware.GetUser(c), id)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"result":  result,
	})
}
