package service

import (
	"sync"
	"time"
)

// TimerService schedules one-shot poll deadline callbacks keyed by poll ID.
// Cancellation is advisory: the expiry path re-checks poll state through the
// store's compare-and-set, so a timer that fires after an explicit end is a
// harmless no-op.
type TimerService struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewTimerService() *TimerService {
	return &TimerService{timers: make(map[string]*time.Timer)}
}

// Schedule fires fn once after delay unless cancelled first. Scheduling again
// under the same ID replaces the pending timer.
func (s *TimerService) Schedule(pollID string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[pollID]; ok {
		t.Stop()
	}
	s.timers[pollID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, pollID)
		s.mu.Unlock()
		fn()
	})
}

// Cancel stops the pending timer for pollID. Cancelling an already-fired or
// unknown timer is a no-op.
func (s *TimerService) Cancel(pollID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[pollID]; ok {
		t.Stop()
		delete(s.timers, pollID)
	}
}

// Stop cancels every pending timer. Used on shutdown.
func (s *TimerService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
