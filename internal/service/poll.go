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

var (
	ErrEmptyQuestion        = errors.New("question must not be empty")
	ErrTooFewOptions        = errors.New("poll needs at least 2 options")
	ErrNonPositiveDuration  = errors.New("max_time must be positive")
	ErrCorrectFlagsMismatch = errors.New("correct_options must match options length")
)

// expireTimeout bounds the store call made from a fired deadline timer, which
// runs outside any request context.
const expireTimeout = 5 * time.Second

// PollService owns the poll lifecycle: the single-active invariant, answer
// validation and tally aggregation, and deadline-driven expiry. All state
// lives in the store; this service only sequences mutations and emits events.
type PollService struct {
	store    store.Store
	hub      *Hub
	timers   *TimerService
	notifier *Notifier
}

func NewPollService(st store.Store, hub *Hub, timers *TimerService, notifier *Notifier) *PollService {
	return &PollService{store: st, hub: hub, timers: timers, notifier: notifier}
}

// Create opens a new poll and schedules its expiry. Fails with
// store.ErrActivePollExists while another poll is running.
func (s *PollService) Create(ctx context.Context, req *model.CreatePollRequest) (*model.Poll, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrEmptyQuestion
	}
	if len(req.Options) < 2 {
		return nil, ErrTooFewOptions
	}
	if req.MaxTimeSeconds <= 0 {
		return nil, ErrNonPositiveDuration
	}
	if len(req.CorrectOptions) > 0 && len(req.CorrectOptions) != len(req.Options) {
		return nil, ErrCorrectFlagsMismatch
	}

	poll := &model.Poll{
		ID:             uuid.NewString(),
		Question:       strings.TrimSpace(req.Question),
		Options:        append([]string(nil), req.Options...),
		CorrectOptions: append([]bool(nil), req.CorrectOptions...),
		MaxTime:        req.MaxTimeSeconds,
		CreatedAt:      time.Now(),
		Active:         true,
		Tally:          make(map[string]int),
	}

	if err := s.store.CreatePoll(ctx, poll); err != nil {
		return nil, err
	}

	s.timers.Schedule(poll.ID, time.Duration(poll.MaxTime)*time.Second, func() {
		s.expire(poll.ID)
	})

	s.hub.Broadcast(model.NewEvent(model.EventPollCreated, poll))
	s.notifier.PollStarted(poll)

	log.Printf("[Poll] created %s (%q, %d options, %ds)", poll.ID, poll.Question, len(poll.Options), poll.MaxTime)
	return poll, nil
}

// Submit records one participant's answer. The tally increment and
// answered-set insert happen atomically in the store; on success the updated
// results are broadcast to everyone.
func (s *PollService) Submit(ctx context.Context, pollID, participantID, answer string) (*store.AnswerResult, error) {
	res, err := s.store.RecordAnswer(ctx, pollID, participantID, answer)
	if err != nil {
		return nil, err
	}

	s.hub.Broadcast(model.NewEvent(model.EventResultsUpdated, model.ResultsUpdatedPayload{
		PollID:            res.Poll.ID,
		Tally:             res.Poll.Tally,
		AnsweredCount:     res.AnsweredCount,
		TotalParticipants: res.TotalParticipants,
	}))
	return res, nil
}

// End closes a poll explicitly. An empty pollID targets the current poll.
// Ending an already-ended poll returns store.ErrNoActivePoll so callers can
// detect the race against the deadline timer.
func (s *PollService) End(ctx context.Context, pollID string) (*model.Poll, error) {
	if pollID == "" {
		cur, err := s.store.CurrentPoll(ctx)
		if err != nil {
			return nil, err
		}
		pollID = cur.ID
	}

	final, err := s.store.EndPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	s.timers.Cancel(pollID)
	s.announceEnded(final)

	log.Printf("[Poll] ended %s", final.ID)
	return final, nil
}

// expire is the deadline path. It can race explicit End: the store's
// compare-and-set lets exactly one of the two win, and the loser backs off
// without touching anything.
func (s *PollService) expire(pollID string) {
	ctx, cancel := context.WithTimeout(context.Background(), expireTimeout)
	defer cancel()

	final, err := s.store.EndPoll(ctx, pollID)
	if err != nil {
		if !errors.Is(err, store.ErrNoActivePoll) {
			log.Printf("[Poll] expire %s failed: %v", pollID, err)
		}
		return
	}
	s.announceEnded(final)

	log.Printf("[Poll] expired %s", final.ID)
}

func (s *PollService) announceEnded(final *model.Poll) {
	s.hub.Broadcast(model.NewEvent(model.EventPollEnded, model.PollEndedPayload{
		PollID:     final.ID,
		FinalTally: final.Tally,
	}))
	s.notifier.PollEnded(final)
}

// Current returns the active poll with its remaining seconds.
func (s *PollService) Current(ctx context.Context) (*model.PollSnapshot, error) {
	cur, err := s.store.CurrentPoll(ctx)
	if err != nil {
		return nil, err
	}
	return &model.PollSnapshot{Poll: cur, TimeRemaining: cur.Remaining(time.Now())}, nil
}

// List returns every poll, past and current, in creation order.
func (s *PollService) List(ctx context.Context) ([]*model.Poll, error) {
	return s.store.ListPolls(ctx)
}
