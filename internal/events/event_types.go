package events

import (
	"time"

	"github.com/spec-kit/auth-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered   EventType = "user_registered"
	EventUserLoggedIn     EventType = "user_logged_in"
	EventSessionRefreshed EventType = "session_refreshed"
	EventSessionRevoked   EventType = "session_revoked"
)

// Event represents a session lifecycle event emitted by the session service.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    int64       `json:"user_id"`
	Role      domain.Role `json:"role"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// SessionRefreshedPayload records a rotation.
type SessionRefreshedPayload struct {
	OldRecordID string `json:"old_record_id"`
	NewRecordID string `json:"new_record_id"`
}

// SessionRevokedPayload records a logout.
type SessionRevokedPayload struct {
	RecordID string `json:"record_id"`
}
