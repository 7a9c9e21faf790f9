package domain

import "time"

// SessionRecord is the durable view of a conversation session.
// It is the unit persisted by state stores.
type SessionRecord struct {
	ID         string     `json:"id"`
	Snapshot   Snapshot   `json:"snapshot"`
	Transcript Transcript `json:"transcript"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Sealed carries the encrypted record when an encrypting store wraps the backend.
	Sealed string `json:"sealed,omitempty"`
}

// NewSessionRecord creates an empty record for the given session.
func NewSessionRecord(id string) *SessionRecord {
	return &SessionRecord{
		ID:       id,
		Snapshot: EmptySnapshot(),
	}
}
