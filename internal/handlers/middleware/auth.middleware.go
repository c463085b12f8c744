package middleware

import (
	"context"
	"strings"

	"opsflow/internal/models"
	"opsflow/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthContextKey is used to store auth info in context
type AuthContextKey string

const (
	UserKey      AuthContextKey = "user"
	UserKeyFiber string         = "User"
)

// RequireAuth validates the bearer token and loads the caller's profile.
func (m *Middleware) RequireAuth(tokenService *services.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := m.log.TraceFromContext(c.UserContext()).Function("RequireAuth")

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			return deny(c, fiber.StatusUnauthorized, "Authorization header required")
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			log.Info("invalid authorization header format")
			return deny(c, fiber.StatusUnauthorized, "Invalid authorization header format")
		}

		token := tokenParts[1]
		if token == "" {
			log.Info("empty token")
			return deny(c, fiber.StatusUnauthorized, "Token required")
		}

		tokenInfo, err := tokenService.ValidateToken(c.UserContext(), token)
		if err != nil {
			log.Info("token validation failed", "error", err.Error())
			return deny(c, fiber.StatusUnauthorized, "Invalid token")
		}

		user, err := m.profileRepo.GetByID(c.UserContext(), m.DB.SQL, tokenInfo.ProfileID)
		if err != nil {
			log.Info("profile not found", "profileID", tokenInfo.ProfileID, "error", err.Error())
			return deny(c, fiber.StatusUnauthorized, "User not found")
		}

		c.Locals(UserKeyFiber, user)

		// keeps the trace ID set by TraceID
		ctx := context.WithValue(c.UserContext(), UserKey, user)
		c.SetUserContext(ctx)

		log.Debug("profile authenticated", "profileID", user.ID, "role", user.Role)
		return c.Next()
	}
}

func GetUser(c *fiber.Ctx) *models.Profile {
	user, ok := c.Locals(UserKeyFiber).(*models.Profile)
	if !ok {
		return nil
	}
	return user
}
