package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Davshiv20/PingPollz/internal/model"
	"github.com/Davshiv20/PingPollz/internal/service"
)

type ParticipantHandler struct {
	sessions *service.SessionService
	hub      *service.Hub
}

func NewParticipantHandler(sessions *service.SessionService, hub *service.Hub) *ParticipantHandler {
	return &ParticipantHandler{sessions: sessions, hub: hub}
}

// List returns the joined participants.
// GET /api/v1/participants
func (h *ParticipantHandler) List(c *fiber.Ctx) error {
	participants, err := h.sessions.List(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	if participants == nil {
		participants = []*model.Participant{}
	}
	return c.JSON(fiber.Map{"participants": participants})
}

// Kick removes a participant (presenter only).
// POST /api/v1/participants/:id/kick
func (h *ParticipantHandler) Kick(c *fiber.Ctx) error {
	if _, err := h.sessions.Kick(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Stats reports session-level counters (presenter only).
// GET /api/v1/stats
func (h *ParticipantHandler) Stats(c *fiber.Ctx) error {
	total, _ := h.sessions.Count(c.Context())
	return c.JSON(fiber.Map{
		"participants_total": total,
		"connections_online": h.hub.OnlineCount(),
	})
}
