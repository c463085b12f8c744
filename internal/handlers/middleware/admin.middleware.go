package middleware

import (
	"slices"

	"opsflow/internal/models"

	"github.com/gofiber/fiber/v2"
)

// RequireRole lets the request through when the profile loaded by RequireAuth holds one of
// roles. It must be mounted after RequireAuth.
func (m *Middleware) RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := m.log.TraceFromContext(c.UserContext()).Function("RequireRole")

		user := GetUser(c)
		if user == nil {
			return deny(c, fiber.StatusUnauthorized, "Authentication required")
		}

		if !slices.Contains(roles, user.Role) {
			log.Info("role refused", "profileID", user.ID, "role", user.Role, "path", c.Path())
			return deny(c, fiber.StatusForbidden, "Admin access required")
		}

		return c.Next()
	}
}

func (m *Middleware) RequireAdmin() fiber.Handler {
	return m.RequireRole(models.RoleAdmin)
}

func deny(c *fiber.Ctx, status int, message string) error {
	body := fiber.Map{"error": message}
	if traceID := GetTraceID(c); traceID != "" {
		body["trace_id"] = traceID
	}
	return c.Status(status).JSON(body)
}
