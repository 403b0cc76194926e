package model

import "encoding/json"

// WSEvent is the wire envelope for every WebSocket message, both directions.
type WSEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent wraps a payload in an envelope. Payloads are this package's own
// types, so a marshal failure is a programming error; it yields an empty data
// field rather than a dropped event.
func NewEvent(eventType string, payload any) *WSEvent {
	ev := &WSEvent{Type: eventType}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			ev.Data = data
		}
	}
	return ev
}

// Server-to-client event types.
const (
	EventPollCreated       = "poll_created"
	EventResultsUpdated    = "results_updated"
	EventPollEnded         = "poll_ended"
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventKicked            = "kicked"
	EventChatMessage       = "chat_message"
	EventCurrentPoll       = "current_poll"
	EventAck               = "ack"
	EventError             = "error"
	EventPong              = "pong"
)

// Client-to-server action types.
const (
	ActionJoin         = "join"
	ActionCreatePoll   = "create_poll"
	ActionSubmitAnswer = "submit_answer"
	ActionEndPoll      = "end_poll"
	ActionSendChat     = "send_chat"
	ActionPing         = "ping"
)

// Error codes carried in ErrorPayload.Code.
const (
	CodeInvalidName        = "invalid_name"
	CodeValidation         = "validation"
	CodeAlreadyActive      = "already_active"
	CodeNoActivePoll       = "no_active_poll"
	CodePollMismatch       = "poll_mismatch"
	CodeUnknownParticipant = "unknown_participant"
	CodeUnknownOption      = "unknown_option"
	CodeAlreadyAnswered    = "already_answered"
	CodeForbidden          = "forbidden"
)

type AckPayload struct {
	Action        string `json:"action"`
	PollID        string `json:"poll_id,omitempty"`
	ParticipantID string `json:"participant_id,omitempty"`
	Name          string `json:"name,omitempty"`
}

type ErrorPayload struct {
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type JoinRequest struct {
	Name string `json:"name"`
}

type SubmitAnswerRequest struct {
	PollID        string `json:"poll_id"`
	ParticipantID string `json:"participant_id"`
	Answer        string `json:"answer"`
}

type EndPollRequest struct {
	PollID string `json:"poll_id,omitempty"`
}

type ResultsUpdatedPayload struct {
	PollID            string         `json:"poll_id"`
	Tally             map[string]int `json:"results"`
	AnsweredCount     int            `json:"answered_count"`
	TotalParticipants int            `json:"total_participants"`
}

type PollEndedPayload struct {
	PollID     string         `json:"poll_id"`
	FinalTally map[string]int `json:"final_results"`
}

type ParticipantJoinedPayload struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
}

type ParticipantLeftPayload struct {
	ParticipantID string `json:"participant_id"`
}

type KickedPayload struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
}
