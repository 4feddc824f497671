package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/logger"
)

// RegistrationInput carries the fields required to create an account.
type RegistrationInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates an unconfirmed account and sends the confirmation email.
// The account is committed before delivery is attempted: a failed send leaves
// the account in place and is reported as ErrDeliveryFailed alongside the
// created record, so the caller can still steer the user to the resend flow.
func (s *AccountService) Register(ctx context.Context, input RegistrationInput) (*domain.Account, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidationFailed)
	}

	exists, err := s.directory.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email address is already in use", ErrValidationFailed)
	}

	account := domain.Account{
		ID:        uuid.NewString(),
		Email:     email,
		FirstName: strings.ToLower(strings.TrimSpace(input.FirstName)),
		LastName:  strings.ToLower(strings.TrimSpace(input.LastName)),
	}

	created, err := s.directory.Create(ctx, account, input.Password)
	if err != nil {
		var validation *port.ValidationError
		if errors.As(err, &validation) {
			return nil, fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(validation.Reasons, "; "))
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("account registered",
		zap.String("account_id", created.ID),
		zap.String("email", logger.MaskEmail(created.Email)),
	)

	if err := s.events.PublishAccountRegistered(ctx, domain.AccountRegisteredEvent{
		AccountID:    created.ID,
		Email:        created.Email,
		RegisteredAt: created.RegisteredAt,
	}); err != nil {
		s.logger.Warn("publish account registered event failed", zap.Error(err))
	}

	if err := s.sendConfirmation(ctx, created); err != nil {
		return created, ErrDeliveryFailed
	}

	return created, nil
}

func (s *AccountService) sendConfirmation(ctx context.Context, account *domain.Account) error {
	token, err := s.directory.MintEmailConfirmToken(ctx, account)
	if err != nil {
		return fmt.Errorf("mint confirmation token: %w", err)
	}

	if err := s.sender.Send(ctx, s.confirmationEmail(account, token)); err != nil {
		s.logger.Error("send confirmation email failed",
			zap.String("account_id", account.ID),
			zap.String("email", logger.MaskEmail(account.Email)),
			zap.Error(err),
		)
		return err
	}

	return nil
}
