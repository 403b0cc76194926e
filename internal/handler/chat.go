package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Davshiv20/PingPollz/internal/model"
	"github.com/Davshiv20/PingPollz/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// History returns the retained messages, oldest first.
// GET /api/v1/chat/history
func (h *ChatHandler) History(c *fiber.Ctx) error {
	msgs, err := h.chat.History(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	if msgs == nil {
		msgs = []*model.ChatMessage{}
	}
	return c.JSON(fiber.Map{"messages": msgs})
}
