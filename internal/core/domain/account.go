package domain

import (
	"strings"
	"time"
)

// Account mirrors the persisted representation in the accounts table.
// The username always equals the lowercased email address.
type Account struct {
	ID             string
	Username       string
	Email          string
	FirstName      string
	LastName       string
	EmailConfirmed bool
	PasswordHash   string
	PasswordAlgo   string
	RegisteredAt   time.Time
}

// DisplayName returns the name used when addressing the account holder.
func (a Account) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// NormalizeEmail canonicalizes an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
