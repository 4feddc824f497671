package port

import (
	"context"
	"time"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
)

// OneTimeTokenStore persists hashed one-time tokens keyed by account and
// purpose. Storing a new hash replaces any unconsumed predecessor, and
// Consume must be atomic: at most one caller observes a match.
type OneTimeTokenStore interface {
	Put(ctx context.Context, purpose domain.TokenPurpose, accountID string, tokenHash string, ttl time.Duration) error
	Consume(ctx context.Context, purpose domain.TokenPurpose, accountID string, tokenHash string) (bool, error)
}
