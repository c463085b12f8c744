package handlers

import (
	"opsflow/internal/app"
	quoteController "opsflow/internal/controllers/quotes"
	"opsflow/internal/handlers/middleware"
	"opsflow/internal/models"
	"opsflow/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type QuoteHandler struct {
	Handler
	tokenService    *services.TokenService
	quoteController quoteController.QuoteControllerInterface
}

func NewQuoteHandler(app app.App, router fiber.Router) *QuoteHandler {
	log := logger.New("handlers").File("quote_handler")
	return &QuoteHandler{
		tokenService:    app.Services.Token,
		quoteController: app.Controllers.Quote,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *QuoteHandler) Register() {
	quotes := h.router.Group("/quotes", h.middleware.RequireAuth(h.tokenService))

	quotes.Post("", h.middleware.RequireAdmin(), h.createQuote)
	quotes.Get("/mine", h.getOwnQuotes)
	quotes.Get("", h.middleware.RequireAdmin(), h.getQuotes)
	quotes.Get("/:id", h.getQuote)
	quotes.Post("/:id/send", h.middleware.RequireAdmin(), h.sendQuote)
	quotes.Post("/:id/accept", h.acceptQuote)
	quotes.Post("/:id/reject", h.rejectQuote)
}

func (h *QuoteHandler) createQuote(c *fiber.Ctx) error {
	log := handlerLog(c, "quote_handler", "createQuote")

	var req quoteController.CreateQuoteRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return badRequest(c, "Invalid request body")
	}

	quote, err := h.quoteController.Create(c.UserContext(), middleware.GetUser(c), &req)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"quote": quote,
	})
}

func (h *QuoteHandler) getOwnQuotes(c *fiber.Ctx) error {
	log := handlerLog(c, "quote_handler", "getOwnQuotes")

	quotes, err := h.quoteController.ListOwn(c.UserContext(), middleware.GetUser(c))
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"quotes": quotes,
	})
}

func (h *QuoteHandler) getQuotes(c *fiber.Ctx) error {
	log := handlerLog(c, "quote_handler", "getQuotes")

	quotes, err := h.quoteController.List(c.UserContext(), models.QuoteStatus(c.Query("status")))
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"quotes": quotes,
	})
}

func (h *QuoteHandler) getQuote(c *fiber.Ctx) error {
	log := handlerLog(c, "quote_handler", "getQuote")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid quote ID")
	}

	quote, err := h.quoteController.Get(c.UserContext(), middleware.GetUser(c), id)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"quote": quote,
	})
}

func (h *QuoteHandler) sendQuote(c *fiber.Ctx) error {
	log := handlerLog(c, "quote_handler", "sendQuote")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid quote ID")
	}

	result, err := h.quoteController.Send(c.UserContext(), middleware.GetUser(c), id)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"result":  result,
	})
}

func (h *QuoteHandler) acceptQuote(c *fiber.Ctx) error {
	log := handlerLog(c, "quote_handler", "acceptQuote")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid quote ID")
	}

	result, err := h.quoteController.Accept(c.UserContext(), middleware.GetUser(c), id)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"result":  result,
	})
}

func (h *QuoteHandler) rejectQuote(c *fiber.Ctx) error {
	log := handlerLog(c, "quote_handler", "rejectQuote")

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid quote ID")
	}

	quote, err := h.quoteController.Reject(c.UserContext(), middleware.GetUser(c), id)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(fiber.Map{
		"quote": quote,
	})
}
