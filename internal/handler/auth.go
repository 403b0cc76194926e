package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Davshiv20/PingPollz/internal/model"
	"github.com/Davshiv20/PingPollz/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login exchanges the presenter passcode for a token pair.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req model.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	pair, err := h.auth.Login(req.Passcode)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.Status(401).JSON(fiber.Map{"error": "invalid passcode"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "login failed"})
	}
	return c.JSON(pair)
}

// Refresh exchanges a refresh token for a new pair.
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req model.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	pair, err := h.auth.Refresh(req.RefreshToken)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "invalid or expired refresh token"})
	}
	return c.JSON(pair)
}
