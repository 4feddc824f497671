package domain

import "time"

// AccountRegisteredEvent announces a freshly created, unconfirmed account.
type AccountRegisteredEvent struct {
	EventID      string
	AccountID    string
	Email        string
	RegisteredAt time.Time
	Metadata     map[string]any
}

// EmailConfirmedEvent announces a successful unconfirmed -> confirmed transition.
type EmailConfirmedEvent struct {
	EventID     string
	AccountID   string
	Email       string
	ConfirmedAt time.Time
	Metadata    map[string]any
}

// PasswordResetEvent announces a completed password reset.
type PasswordResetEvent struct {
	EventID   string
	AccountID string
	Email     string
	ResetAt   time.Time
	Metadata  map[string]any
}
