package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Davshiv20/PingPollz/internal/model"
	"github.com/Davshiv20/PingPollz/internal/store"
)

var (
	ErrEmptySender = errors.New("sender is required")
	ErrEmptyBody   = errors.New("message is required")
)

// ChatService is the shared session feed: append-only, bounded, broadcast.
type ChatService struct {
	store store.Store
	hub   *Hub
}

func NewChatService(st store.Store, hub *Hub) *ChatService {
	return &ChatService{store: st, hub: hub}
}

// Send validates, stores (trimming the log to capacity), and broadcasts the
// message to all parties.
func (s *ChatService) Send(ctx context.Context, req *model.SendChatRequest) (*model.ChatMessage, error) {
	if strings.TrimSpace(req.Sender) == "" {
		return nil, ErrEmptySender
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, ErrEmptyBody
	}
	role := req.Role
	if role != model.RolePresenter {
		role = model.RoleParticipant
	}

	msg := &model.ChatMessage{
		ID:        uuid.NewString(),
		Sender:    req.Sender,
		Role:      role,
		Body:      req.Body,
		CreatedAt: time.Now(),
	}
	if err := s.store.AppendChat(ctx, msg); err != nil {
		return nil, err
	}

	s.hub.Broadcast(model.NewEvent(model.EventChatMessage, msg))
	return msg, nil
}

// History returns the retained messages, oldest first.
func (s *ChatService) History(ctx context.Context) ([]*model.ChatMessage, error) {
	return s.store.ChatHistory(ctx)
}
