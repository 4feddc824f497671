package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(log *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: log}
}

func (p *StubPublisher) logEvent(eventType, accountID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.String("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishAccountRegistered logs account.registered events.
func (p *StubPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	payload := map[string]any{
		"account_id":    event.AccountID,
		"email":         logger.MaskEmail(event.Email),
		"registered_at": event.RegisteredAt,
		"metadata":      event.Metadata,
	}
	p.logEvent(topicAccountRegistered, event.AccountID, event.RegisteredAt, payload)
	return nil
}

// PublishEmailConfirmed logs account.email_confirmed events.
func (p *StubPublisher) PublishEmailConfirmed(_ context.Context, event domain.EmailConfirmedEvent) error {
	payload := map[string]any{
		"account_id":   event.AccountID,
		"email":        logger.MaskEmail(event.Email),
		"confirmed_at": event.ConfirmedAt,
		"metadata":     event.Metadata,
	}
	p.logEvent(topicEmailConfirmed, event.AccountID, event.ConfirmedAt, payload)
	return nil
}

// PublishPasswordReset logs account.password_reset events.
func (p *StubPublisher) PublishPasswordReset(_ context.Context, event domain.PasswordResetEvent) error {
	payload := map[string]any{
		"account_id": event.AccountID,
		"email":      logger.MaskEmail(event.Email),
		"reset_at":   event.ResetAt,
		"metadata":   event.Metadata,
	}
	p.logEvent(topicPasswordReset, event.AccountID, event.ResetAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
