// Package events emits best-effort audit events (auth and admin activity) to
// Kafka when brokers are configured. The worker consumes the topic and pushes
// lines to Loki.
package events

import "time"

// Event types emitted by the server.
const (
	TypeOTPRequested       = "otp_requested"
	TypeLoginOTPRequested  = "login_otp_requested"
	TypeRegistrationDone   = "registration_verified"
	TypeLoginSucceeded     = "login_succeeded"
	TypeFederatedLogin     = "federated_login"
	TypeNoteDeletedByAdmin = "note_deleted_by_admin"
)

// Event is a single audit event. Email is included for auth events so
// operators can trace a flow; plaintext codes are never part of an event.
type Event struct {
	Type      string    `json:"eventType"`
	UserID    string    `json:"userId,omitempty"`
	Email     string    `json:"email,omitempty"`
	NoteID    string    `json:"noteId,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}
