package model

import "time"

// Poll is one timed multiple-choice question. At most one poll is active
// across the whole session at any time; the store enforces that.
type Poll struct {
	ID             string         `json:"id"`
	Question       string         `json:"question"`
	Options        []string       `json:"options"`
	CorrectOptions []bool         `json:"correct_options,omitempty"`
	MaxTime        int            `json:"max_time"` // seconds
	CreatedAt      time.Time      `json:"created_at"`
	Active         bool           `json:"is_active"`
	Tally          map[string]int `json:"results"`
	AnsweredIDs    []string       `json:"answered_ids"`
}

// HasAnswered reports whether the participant already voted on this poll.
// Entries reference participants by ID only and survive the participant
// record being removed, so past tallies stay historically accurate.
func (p *Poll) HasAnswered(participantID string) bool {
	for _, id := range p.AnsweredIDs {
		if id == participantID {
			return true
		}
	}
	return false
}

// HasOption reports whether label is one of the poll's option labels.
func (p *Poll) HasOption(label string) bool {
	for _, o := range p.Options {
		if o == label {
			return true
		}
	}
	return false
}

// Remaining returns the whole seconds left before the deadline, floored at zero.
func (p *Poll) Remaining(now time.Time) int {
	elapsed := int(now.Sub(p.CreatedAt).Seconds())
	if elapsed >= p.MaxTime {
		return 0
	}
	return p.MaxTime - elapsed
}

// Clone returns a deep copy so callers never alias store-owned state.
func (p *Poll) Clone() *Poll {
	cp := *p
	cp.Options = append([]string(nil), p.Options...)
	cp.CorrectOptions = append([]bool(nil), p.CorrectOptions...)
	cp.AnsweredIDs = append([]string(nil), p.AnsweredIDs...)
	cp.Tally = make(map[string]int, len(p.Tally))
	for k, v := range p.Tally {
		cp.Tally[k] = v
	}
	return &cp
}

// CreatePollRequest is the payload for opening a new poll.
type CreatePollRequest struct {
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	MaxTimeSeconds int      `json:"max_time"`
	CorrectOptions []bool   `json:"correct_options,omitempty"`
}

// PollSnapshot is the unicast state sent to a late joiner while a poll runs.
type PollSnapshot struct {
	Poll          *Poll `json:"poll"`
	TimeRemaining int   `json:"time_remaining"`
}
