package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Davshiv20/PingPollz/internal/model"
	"github.com/Davshiv20/PingPollz/internal/service"
	"github.com/Davshiv20/PingPollz/internal/store"
)

type PollHandler struct {
	polls *service.PollService
}

func NewPollHandler(polls *service.PollService) *PollHandler {
	return &PollHandler{polls: polls}
}

// List returns every poll, past and current.
// GET /api/v1/polls
func (h *PollHandler) List(c *fiber.Ctx) error {
	polls, err := h.polls.List(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	if polls == nil {
		polls = []*model.Poll{}
	}
	return c.JSON(fiber.Map{"polls": polls})
}

// Current returns the active poll with remaining seconds, or poll: null.
// GET /api/v1/polls/current
func (h *PollHandler) Current(c *fiber.Ctx) error {
	snap, err := h.polls.Current(c.Context())
	if err != nil {
		if errors.Is(err, store.ErrNoActivePoll) {
			return c.JSON(fiber.Map{"poll": nil})
		}
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"poll": snap.Poll, "time_remaining": snap.TimeRemaining})
}

// Create opens a new poll (presenter only).
// POST /api/v1/polls
func (h *PollHandler) Create(c *fiber.Ctx) error {
	var req model.CreatePollRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	poll, err := h.polls.Create(c.Context(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"poll_id": poll.ID})
}

// End closes the current poll, or the one named in the body (presenter only).
// POST /api/v1/polls/end
func (h *PollHandler) End(c *fiber.Ctx) error {
	var req model.EndPollRequest
	// Body is optional: no poll_id targets the current poll.
	_ = c.BodyParser(&req)

	if _, err := h.polls.End(c.Context(), req.PollID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
