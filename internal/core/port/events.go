package port

import (
	"context"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error
	PublishEmailConfirmed(ctx context.Context, event domain.EmailConfirmedEvent) error
	PublishPasswordReset(ctx context.Context, event domain.PasswordResetEvent) error
}
