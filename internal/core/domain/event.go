package domain

import "time"

// SecurityEventType names a change made to a reserved account.
type SecurityEventType string

const (
	EventPasswordChanged   SecurityEventType = "password_changed"
	EventUserEnabled       SecurityEventType = "user_enabled"
	EventUserDisabled      SecurityEventType = "user_disabled"
	EventBootstrapPassword SecurityEventType = "bootstrap_password"
)

// SecurityEvent is one entry of the reserved-account audit trail.
type SecurityEvent struct {
	Type      SecurityEventType `json:"type"`
	Username  string            `json:"username"`
	Actor     string            `json:"actor,omitempty"`  // empty for changes made at startup
	Source    string            `json:"source,omitempty"` // remote address or "startup"
	Timestamp time.Time         `json:"timestamp"`
}
