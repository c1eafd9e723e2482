// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// Account event types.
const (
	EventRegistered      = "account.registered"
	EventPasswordChanged = "account.password_changed"
	EventLoggedOut       = "account.logged_out"
)

// AccountEvent is published after a state change on an account. It carries
// enough to log or notify without querying the primary database, and never
// any credential material.
type AccountEvent struct {
	Type       string `json:"type"`
	AccountID  string `json:"account_id"`
	UserName   string `json:"user_name,omitempty"`
	Email      string `json:"email,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// NewAccountEvent stamps an event with the current UTC time.
func NewAccountEvent(typ, accountID, userName, email string) AccountEvent {
	return AccountEvent{
		Type:       typ,
		AccountID:  accountID,
		UserName:   userName,
		Email:      email,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
