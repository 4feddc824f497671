package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/logger"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
	"github.com/arklim/social-platform-accounts/internal/repository"
)

// RequestPasswordReset mints a reset token and emails it together with the
// account's username. Only confirmed accounts may start the flow; an
// unconfirmed account should finish confirmation first.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if !account.EmailConfirmed {
		return ErrEmailUnconfirmed
	}

	token, err := s.directory.MintPasswordResetToken(ctx, account)
	if err != nil {
		return fmt.Errorf("mint reset token: %w", err)
	}

	if err := s.sender.Send(ctx, s.passwordResetEmail(account, token)); err != nil {
		s.logger.Error("send password reset email failed",
			zap.String("account_id", account.ID),
			zap.String("email", logger.MaskEmail(account.Email)),
			zap.Error(err),
		)
		return ErrDeliveryFailed
	}

	s.logger.Info("password reset requested",
		zap.String("account_id", account.ID),
		zap.String("email", logger.MaskEmail(account.Email)),
	)

	return nil
}

// ResetPassword redeems a reset token and installs the new password. Only
// confirmed accounts may complete the flow, mirroring the gate on the request
// side. A rejected password surfaces as ErrValidationFailed without spending
// the token; any token problem collapses into ErrInvalidToken.
func (s *AccountService) ResetPassword(ctx context.Context, email, transportToken, newPassword string) error {
	account, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if !account.EmailConfirmed {
		return ErrEmailUnconfirmed
	}

	raw, err := security.DecodeTransportToken(transportToken)
	if err != nil {
		return ErrInvalidToken
	}

	if err := s.directory.ConsumeResetToken(ctx, account, string(raw), newPassword); err != nil {
		if errors.Is(err, port.ErrTokenInvalid) {
			return ErrInvalidToken
		}
		var validation *port.ValidationError
		if errors.As(err, &validation) {
			return fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(validation.Reasons, "; "))
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	s.logger.Info("password reset completed",
		zap.String("account_id", account.ID),
		zap.String("email", logger.MaskEmail(account.Email)),
	)

	if err := s.events.PublishPasswordReset(ctx, domain.PasswordResetEvent{
		AccountID: account.ID,
		Email:     account.Email,
		ResetAt:   time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("publish password reset event failed", zap.Error(err))
	}

	return nil
}
