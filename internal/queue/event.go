// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Event types published on the session events queue.
const (
	EventSessionBooked   = "session.booked"
	EventSessionReleased = "session.released"
)

// SessionEvent is published when a session changes hands.  It contains
// enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type SessionEvent struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	SessionID   uint64  `json:"session_id"`
	StadiumID   uint64  `json:"stadium_id"`
	StadiumName string  `json:"stadium_name"`
	UserID      uint64  `json:"user_id"`
	Date        string  `json:"date"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Price       float64 `json:"price"`
	OccurredAt  string  `json:"occurred_at"`
}

// NewSessionEvent stamps a fresh event id and the current UTC time.
func NewSessionEvent(eventType string) SessionEvent {
	return SessionEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
