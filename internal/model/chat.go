package model

import "time"

// Sender roles attached to chat messages.
const (
	RolePresenter   = "presenter"
	RoleParticipant = "participant"
)

// ChatMessage is one entry in the shared session feed. Messages are never
// mutated after creation and are evicted only by capacity trimming.
type ChatMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Role      string    `json:"role"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"timestamp"`
}

// SendChatRequest is the payload for posting a chat message.
type SendChatRequest struct {
	Sender string `json:"sender"`
	Body   string `json:"message"`
	Role   string `json:"role"`
}
