package handler

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/Davshiv20/PingPollz/internal/model"
	"github.com/Davshiv20/PingPollz/internal/service"
)

const (
	readDeadline = 60 * time.Second

	// Per-connection inbound throttle. Live polling clients send at most a
	// few actions per second; anything past this is a misbehaving client.
	msgRatePerSec = 10
	msgBurst      = 20
)

type WSHandler struct {
	hub      *service.Hub
	auth     *service.AuthService
	sessions *service.SessionService
	polls    *service.PollService
	chat     *service.ChatService
}

func NewWSHandler(hub *service.Hub, auth *service.AuthService, sessions *service.SessionService, polls *service.PollService, chat *service.ChatService) *WSHandler {
	return &WSHandler{hub: hub, auth: auth, sessions: sessions, polls: polls, chat: chat}
}

// Upgrade accepts the WebSocket handshake. Participants connect without
// credentials; a presenter passes ?token= and gets the presenter role.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	role := model.RoleParticipant
	if token := c.Query("token"); token != "" {
		r, err := h.auth.ValidateAccessToken(token)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
		}
		role = r
	}

	c.Locals("role", role)
	return websocket.New(h.handleConnection)(c)
}

func (h *WSHandler) handleConnection(c *websocket.Conn) {
	role, _ := c.Locals("role").(string)

	client := &service.Client{
		ConnID: uuid.NewString(),
		Role:   role,
		Send:   make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer func() {
		h.sessions.Leave(context.Background(), client.ConnID)
		h.hub.Unregister(client)
	}()

	// Writer goroutine
	go func() {
		defer c.Close()
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	limiter := rate.NewLimiter(rate.Limit(msgRatePerSec), msgBurst)

	c.SetReadDeadline(time.Now().Add(readDeadline))
	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			break
		}
		c.SetReadDeadline(time.Now().Add(readDeadline))

		if !limiter.Allow() {
			h.sendError(client, "", errRateLimited)
			continue
		}

		var event model.WSEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			h.sendError(client, "", errMalformedPayload)
			continue
		}

		h.dispatch(client, &event)
	}
}

// Handler-local errors: they never cross the store or services.
var (
	errRateLimited      = &wsError{code: "rate_limited", message: "too many messages"}
	errMalformedPayload = &wsError{code: model.CodeValidation, message: "malformed payload"}
)

type wsError struct{ code, message string }

func (e *wsError) Error() string { return e.message }

func (h *WSHandler) dispatch(client *service.Client, event *model.WSEvent) {
	ctx := context.Background()

	switch event.Type {
	case model.ActionPing:
		h.send(client, model.NewEvent(model.EventPong, nil))

	case model.ActionJoin:
		h.handleJoin(ctx, client, event.Data)

	case model.ActionSubmitAnswer:
		var req model.SubmitAnswerRequest
		if err := json.Unmarshal(event.Data, &req); err != nil {
			h.sendError(client, model.ActionSubmitAnswer, errMalformedPayload)
			return
		}
		if req.ParticipantID == "" {
			req.ParticipantID = client.ParticipantID
		}
		if _, err := h.polls.Submit(ctx, req.PollID, req.ParticipantID, req.Answer); err != nil {
			h.sendError(client, model.ActionSubmitAnswer, err)
			return
		}
		h.send(client, model.NewEvent(model.EventAck, model.AckPayload{Action: model.ActionSubmitAnswer, PollID: req.PollID}))

	case model.ActionCreatePoll:
		if !h.requirePresenter(client, model.ActionCreatePoll) {
			return
		}
		var req model.CreatePollRequest
		if err := json.Unmarshal(event.Data, &req); err != nil {
			h.sendError(client, model.ActionCreatePoll, errMalformedPayload)
			return
		}
		poll, err := h.polls.Create(ctx, &req)
		if err != nil {
			h.sendError(client, model.ActionCreatePoll, err)
			return
		}
		h.send(client, model.NewEvent(model.EventAck, model.AckPayload{Action: model.ActionCreatePoll, PollID: poll.ID}))

	case model.ActionEndPoll:
		if !h.requirePresenter(client, model.ActionEndPoll) {
			return
		}
		var req model.EndPollRequest
		if len(event.Data) > 0 {
			if err := json.Unmarshal(event.Data, &req); err != nil {
				h.sendError(client, model.ActionEndPoll, errMalformedPayload)
				return
			}
		}
		final, err := h.polls.End(ctx, req.PollID)
		if err != nil {
			h.sendError(client, model.ActionEndPoll, err)
			return
		}
		h.send(client, model.NewEvent(model.EventAck, model.AckPayload{Action: model.ActionEndPoll, PollID: final.ID}))

	case model.ActionSendChat:
		var req model.SendChatRequest
		if err := json.Unmarshal(event.Data, &req); err != nil {
			h.sendError(client, model.ActionSendChat, errMalformedPayload)
			return
		}
		if client.Role == model.RolePresenter {
			req.Role = model.RolePresenter
		} else {
			req.Role = model.RoleParticipant
			if req.Sender == "" {
				req.Sender = client.Name
			}
		}
		if _, err := h.chat.Send(ctx, &req); err != nil {
			h.sendError(client, model.ActionSendChat, err)
			return
		}
		h.send(client, model.NewEvent(model.EventAck, model.AckPayload{Action: model.ActionSendChat}))

	default:
		log.Printf("[WS] unknown event type %q from %s", event.Type, client.ConnID)
	}
}

func (h *WSHandler) handleJoin(ctx context.Context, client *service.Client, data json.RawMessage) {
	if client.ParticipantID != "" {
		h.sendError(client, model.ActionJoin, &wsError{code: model.CodeValidation, message: "connection already joined"})
		return
	}

	var req model.JoinRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(client, model.ActionJoin, errMalformedPayload)
		return
	}

	p, snap, err := h.sessions.Join(ctx, req.Name, client.ConnID)
	if err != nil {
		h.sendError(client, model.ActionJoin, err)
		return
	}
	h.hub.Bind(client, p.ID, p.Name)

	h.send(client, model.NewEvent(model.EventAck, model.AckPayload{
		Action:        model.ActionJoin,
		ParticipantID: p.ID,
		Name:          p.Name,
	}))
	if snap != nil {
		h.send(client, model.NewEvent(model.EventCurrentPoll, snap))
	}
}

func (h *WSHandler) requirePresenter(client *service.Client, action string) bool {
	if client.Role != model.RolePresenter {
		h.sendError(client, action, &wsError{code: model.CodeForbidden, message: "presenter role required"})
		return false
	}
	return true
}

// send routes the reply through the hub, which refuses it once the connection
// has been dropped or unregistered. A full buffer drops the reply rather than
// stalling the read loop.
func (h *WSHandler) send(client *service.Client, ev *model.WSEvent) {
	h.hub.SendToClient(client, ev)
}

func (h *WSHandler) sendError(client *service.Client, action string, err error) {
	code := codeFor(err)
	message := err.Error()
	if we, ok := err.(*wsError); ok {
		code = we.code
	}
	if code == "" {
		code = "internal"
		message = "internal error"
	}
	h.send(client, model.NewEvent(model.EventError, model.ErrorPayload{
		Action:  action,
		Code:    code,
		Message: message,
	}))
}
