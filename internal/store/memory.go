package store

import (
	"context"
	"sync"

	"github.com/Davshiv20/PingPollz/internal/model"
)

// Memory is the in-process Store. One mutex serializes every mutation, which
// is the single choke point that makes the one-active-poll and
// one-answer-per-participant invariants cheap to enforce.
type Memory struct {
	mu sync.Mutex

	polls     map[string]*model.Poll
	pollOrder []string
	currentID string

	participants map[string]*model.Participant
	connToID     map[string]string

	chat    []*model.ChatMessage
	chatCap int
}

func NewMemory(chatCap int) *Memory {
	if chatCap <= 0 {
		chatCap = 100
	}
	return &Memory{
		polls:        make(map[string]*model.Poll),
		participants: make(map[string]*model.Participant),
		connToID:     make(map[string]string),
		chatCap:      chatCap,
	}
}

func (s *Memory) CreatePoll(_ context.Context, p *model.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentID != "" && s.polls[s.currentID].Active {
		return ErrActivePollExists
	}

	cp := p.Clone()
	cp.Active = true
	if cp.Tally == nil {
		cp.Tally = make(map[string]int)
	}
	s.polls[cp.ID] = cp
	s.pollOrder = append(s.pollOrder, cp.ID)
	s.currentID = cp.ID
	return nil
}

func (s *Memory) RecordAnswer(_ context.Context, pollID, participantID, option string) (*AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentID == "" || !s.polls[s.currentID].Active {
		return nil, ErrNoActivePoll
	}
	cur := s.polls[s.currentID]
	if cur.ID != pollID {
		return nil, ErrPollMismatch
	}
	if _, ok := s.participants[participantID]; !ok {
		return nil, ErrUnknownParticipant
	}
	if cur.HasAnswered(participantID) {
		return nil, ErrAlreadyAnswered
	}
	if !cur.HasOption(option) {
		return nil, ErrUnknownOption
	}

	cur.Tally[option]++
	cur.AnsweredIDs = append(cur.AnsweredIDs, participantID)

	return &AnswerResult{
		Poll:              cur.Clone(),
		AnsweredCount:     len(cur.AnsweredIDs),
		TotalParticipants: len(s.participants),
	}, nil
}

func (s *Memory) EndPoll(_ context.Context, pollID string) (*model.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.polls[pollID]
	if !ok || !p.Active {
		return nil, ErrNoActivePoll
	}
	p.Active = false
	if s.currentID == pollID {
		s.currentID = ""
	}
	return p.Clone(), nil
}

func (s *Memory) CurrentPoll(_ context.Context) (*model.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentID == "" || !s.polls[s.currentID].Active {
		return nil, ErrNoActivePoll
	}
	return s.polls[s.currentID].Clone(), nil
}

func (s *Memory) ListPolls(_ context.Context) ([]*model.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Poll, 0, len(s.pollOrder))
	for _, id := range s.pollOrder {
		out = append(out, s.polls[id].Clone())
	}
	return out, nil
}

func (s *Memory) AddParticipant(_ context.Context, p *model.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.participants[cp.ID] = &cp
	s.connToID[cp.ConnID] = cp.ID
	return nil
}

func (s *Memory) RemoveParticipant(_ context.Context, participantID string) (*model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(participantID)
}

func (s *Memory) RemoveParticipantByConn(_ context.Context, connID string) (*model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.connToID[connID]
	if !ok {
		return nil, ErrUnknownParticipant
	}
	return s.removeLocked(id)
}

func (s *Memory) removeLocked(participantID string) (*model.Participant, error) {
	p, ok := s.participants[participantID]
	if !ok {
		return nil, ErrUnknownParticipant
	}
	delete(s.participants, participantID)
	delete(s.connToID, p.ConnID)
	cp := *p
	return &cp, nil
}

func (s *Memory) Participant(_ context.Context, participantID string) (*model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[participantID]
	if !ok {
		return nil, ErrUnknownParticipant
	}
	cp := *p
	return &cp, nil
}

func (s *Memory) ListParticipants(_ context.Context) ([]*model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Memory) CountParticipants(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.participants), nil
}

func (s *Memory) AppendChat(_ context.Context, m *model.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *m
	s.chat = append(s.chat, &cp)
	if over := len(s.chat) - s.chatCap; over > 0 {
		s.chat = append([]*model.ChatMessage(nil), s.chat[over:]...)
	}
	return nil
}

func (s *Memory) ChatHistory(_ context.Context) ([]*model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.ChatMessage, 0, len(s.chat))
	for _, m := range s.chat {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Memory) Ping(_ context.Context) error { return nil }
