package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/logger"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
	"github.com/arklim/social-platform-accounts/internal/repository"
)

// ConfirmEmail redeems a confirmation token for the account owning the email
// address. Decode failures, unknown tokens, expiry, and replay all collapse
// into ErrInvalidToken.
func (s *AccountService) ConfirmEmail(ctx context.Context, email, transportToken string) error {
	account, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	raw, err := security.DecodeTransportToken(transportToken)
	if err != nil {
		return ErrInvalidToken
	}

	if err := s.directory.ConsumeEmailConfirmToken(ctx, account, string(raw)); err != nil {
		if errors.Is(err, port.ErrTokenInvalid) {
			return ErrInvalidToken
		}
		return fmt.Errorf("consume confirmation token: %w", err)
	}

	s.logger.Info("email confirmed",
		zap.String("account_id", account.ID),
		zap.String("email", logger.MaskEmail(account.Email)),
	)

	if err := s.events.PublishEmailConfirmed(ctx, domain.EmailConfirmedEvent{
		AccountID:   account.ID,
		Email:       account.Email,
		ConfirmedAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("publish email confirmed event failed", zap.Error(err))
	}

	return nil
}

// ResendConfirmation mints a fresh confirmation token and emails it. The new
// token displaces any earlier unconsumed one. Confirmed accounts are refused.
func (s *AccountService) ResendConfirmation(ctx context.Context, email string) error {
	account, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if account.EmailConfirmed {
		return ErrEmailAlreadyConfirmed
	}

	if err := s.sendConfirmation(ctx, account); err != nil {
		return ErrDeliveryFailed
	}

	return nil
}
