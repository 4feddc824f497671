package domain

import "time"

// TokenPurpose identifies the single state transition a one-time token authorizes.
type TokenPurpose string

const (
	TokenPurposeConfirmEmail  TokenPurpose = "confirm_email"
	TokenPurposeResetPassword TokenPurpose = "reset_password"
)

// OneTimeToken is a single-use credential minted by the directory. Only the
// raw value leaves the process (embedded in a notification link); the
// directory stores a hash and enforces expiry and at-most-one consumption.
type OneTimeToken struct {
	AccountID string
	Purpose   TokenPurpose
	Raw       string
	ExpiresAt time.Time
}

// IsExpired reports whether the token can still be redeemed.
func (t OneTimeToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}
