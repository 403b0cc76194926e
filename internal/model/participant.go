package model

import "time"

// Participant is one joined audience member. Identity and name are immutable
// for the lifetime of the connection; the record is removed atomically on
// disconnect or kick. IDs are opaque UUIDs and never reused.
type Participant struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	ConnID   string    `json:"-"`
	JoinedAt time.Time `json:"joined_at"`
}
