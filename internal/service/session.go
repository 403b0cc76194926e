package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Davshiv20/PingPollz/internal/model"
	"github.com/Davshiv20/PingPollz/internal/store"
)

var ErrInvalidName = errors.New("name is required")

// SessionService is the participant registry: it maps live connections to
// participant identities and handles join, disconnect, and kick.
type SessionService struct {
	store store.Store
	hub   *Hub
}

func NewSessionService(st store.Store, hub *Hub) *SessionService {
	return &SessionService{store: st, hub: hub}
}

// Join registers a new participant for the connection. Everyone is told via
// participant_joined; only the joiner gets the current-poll snapshot (nil
// when no poll is running), with remaining time computed from the poll's
// creation timestamp.
func (s *SessionService) Join(ctx context.Context, name, connID string) (*model.Participant, *model.PollSnapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, ErrInvalidName
	}

	p := &model.Participant{
		ID:       uuid.NewString(),
		Name:     name,
		ConnID:   connID,
		JoinedAt: time.Now(),
	}
	if err := s.store.AddParticipant(ctx, p); err != nil {
		return nil, nil, err
	}

	s.hub.Broadcast(model.NewEvent(model.EventParticipantJoined, model.ParticipantJoinedPayload{
		ParticipantID: p.ID,
		Name:          p.Name,
	}))

	var snap *model.PollSnapshot
	if cur, err := s.store.CurrentPoll(ctx); err == nil {
		snap = &model.PollSnapshot{Poll: cur, TimeRemaining: cur.Remaining(time.Now())}
	}

	log.Printf("[Session] %s joined as %s", p.Name, p.ID)
	return p, snap, nil
}

// Leave removes the participant bound to a disconnected connection and
// broadcasts participant_left. Connections that never joined are a no-op.
func (s *SessionService) Leave(ctx context.Context, connID string) {
	p, err := s.store.RemoveParticipantByConn(ctx, connID)
	if err != nil {
		if !errors.Is(err, store.ErrUnknownParticipant) {
			log.Printf("[Session] leave %s failed: %v", connID, err)
		}
		return
	}

	s.hub.Broadcast(model.NewEvent(model.EventParticipantLeft, model.ParticipantLeftPayload{
		ParticipantID: p.ID,
	}))
	log.Printf("[Session] %s left", p.ID)
}

// Kick notifies the target participant, then removes their record. Nothing is
// broadcast to the others; only the kicked party learns about it.
func (s *SessionService) Kick(ctx context.Context, participantID string) (*model.Participant, error) {
	p, err := s.store.Participant(ctx, participantID)
	if err != nil {
		return nil, err
	}

	s.hub.SendToParticipant(p.ID, model.NewEvent(model.EventKicked, model.KickedPayload{
		ParticipantID: p.ID,
		Name:          p.Name,
	}))

	if _, err := s.store.RemoveParticipant(ctx, participantID); err != nil {
		return nil, err
	}

	log.Printf("[Session] kicked %s (%s)", p.ID, p.Name)
	return p, nil
}

// List returns the current participants.
func (s *SessionService) List(ctx context.Context) ([]*model.Participant, error) {
	return s.store.ListParticipants(ctx)
}

// Count returns the number of joined participants.
func (s *SessionService) Count(ctx context.Context) (int, error) {
	return s.store.CountParticipants(ctx)
}
