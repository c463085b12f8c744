package handlers

import (
	"errors"
	"strings"

	"opsflow/internal/handlers/middleware"
	"opsflow/internal/services"
	"opsflow/internal/validation"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// respondError maps domain errors to status codes. Anything unrecognised is a 500 and is
// logged; the rest are caller mistakes.
func respondError(c *fiber.Ctx, log logger.Logger, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return c.Status(fiber.StatusBadRequest).JSON(validation.ErrorResponse(validationErrors))
	case errors.Is(err, services.ErrUnknownKind):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Unknown workflow kind"})
	case errors.Is(err, services.ErrMissingField), errors.Is(err, services.ErrInvalidField):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrJobRunning):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Error: "Access denied"})
	}

	log.Er("request failed", err, "path", c.Path())
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   err.Error(),
		TraceID: middleware.GetTraceID(c),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: message})
}

func parseIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func handlerLog(c *fiber.Ctx, file, function string) logger.Logger {
	return logger.New("handlers").TraceFromContext(c.UserContext()).File(file).Function(function)
}
