package port

import (
	"context"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
)

// NotificationSender delivers a formatted message to an address.
type NotificationSender interface {
	Send(ctx context.Context, message domain.EmailMessage) error
}
