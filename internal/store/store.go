package store

import (
	"context"
	"errors"

	"github.com/Davshiv20/PingPollz/internal/model"
)

// Conflict and lookup errors surfaced by store implementations. Services pass
// them through unchanged so handlers can map them with errors.Is.
var (
	ErrActivePollExists   = errors.New("there is already an active poll")
	ErrNoActivePoll       = errors.New("no active poll")
	ErrPollMismatch       = errors.New("poll is not the current poll")
	ErrUnknownParticipant = errors.New("participant not found")
	ErrUnknownOption      = errors.New("answer is not one of the poll options")
	ErrAlreadyAnswered    = errors.New("participant already answered")
)

// AnswerResult is the consistent post-submission view used for the
// results_updated broadcast: tally and counts from the same atomic step.
type AnswerResult struct {
	Poll              *model.Poll
	AnsweredCount     int
	TotalParticipants int
}

// Store owns every session entity. Implementations must make each method
// atomic: two concurrent RecordAnswer calls never lose an increment, and two
// concurrent CreatePoll calls never both succeed. Reads return copies the
// caller may retain.
type Store interface {
	// CreatePoll inserts p as the current active poll. Fails with
	// ErrActivePollExists while any poll is active.
	CreatePoll(ctx context.Context, p *model.Poll) error

	// RecordAnswer validates the submission against the current poll and, as
	// one atomic pair, increments the tally and marks the participant as
	// answered.
	RecordAnswer(ctx context.Context, pollID, participantID, option string) (*AnswerResult, error)

	// EndPoll flips the poll from active to ended. Exactly one caller wins
	// when the deadline timer races an explicit end; the loser gets
	// ErrNoActivePoll. Returns the final frozen record.
	EndPoll(ctx context.Context, pollID string) (*model.Poll, error)

	// CurrentPoll returns the active poll, or ErrNoActivePoll.
	CurrentPoll(ctx context.Context) (*model.Poll, error)

	// ListPolls returns every poll, past and current, in creation order.
	ListPolls(ctx context.Context) ([]*model.Poll, error)

	AddParticipant(ctx context.Context, p *model.Participant) error
	// RemoveParticipant deletes by ID and returns the removed record.
	RemoveParticipant(ctx context.Context, participantID string) (*model.Participant, error)
	// RemoveParticipantByConn deletes the participant bound to a connection.
	// Returns ErrUnknownParticipant when the connection never joined.
	RemoveParticipantByConn(ctx context.Context, connID string) (*model.Participant, error)
	Participant(ctx context.Context, participantID string) (*model.Participant, error)
	ListParticipants(ctx context.Context) ([]*model.Participant, error)
	CountParticipants(ctx context.Context) (int, error)

	// AppendChat stores m and trims the log to its capacity, oldest first.
	AppendChat(ctx context.Context, m *model.ChatMessage) error
	// ChatHistory returns the retained messages, oldest first.
	ChatHistory(ctx context.Context) ([]*model.ChatMessage, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
