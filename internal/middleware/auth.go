package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Davshiv20/PingPollz/internal/model"
	"github.com/Davshiv20/PingPollz/internal/service"
)

// Presenter guards presenter-only routes. It accepts a bearer access token
// and stores the role in locals.
func Presenter(auth *service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(401).JSON(fiber.Map{"error": "invalid authorization format"})
		}

		role, err := auth.ValidateAccessToken(tokenString)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "invalid or expired token"})
		}
		if role != model.RolePresenter {
			return c.Status(403).JSON(fiber.Map{"error": "presenter role required"})
		}

		c.Locals("role", role)
		return c.Next()
	}
}
