package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/infra/logger"
	"github.com/arklim/social-platform-accounts/internal/repository"
)

// Login validates credentials and issues a session token. The password is
// verified before the confirmation state is inspected, so an unconfirmed
// response is only ever returned to a caller holding valid credentials.
func (s *AccountService) Login(ctx context.Context, username, password string) (*AuthenticatedAccount, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.directory.FindByUsername(ctx, domain.NormalizeEmail(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	ok, err := s.directory.CheckPassword(ctx, account, password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if !account.EmailConfirmed {
		return nil, ErrEmailUnconfirmed
	}

	token, err := s.issuer.Issue(*account)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	s.logger.Info("account logged in",
		zap.String("account_id", account.ID),
		zap.String("email", logger.MaskEmail(account.Email)),
	)

	sanitized := *account
	sanitized.PasswordHash = ""

	return &AuthenticatedAccount{Account: sanitized, SessionToken: token}, nil
}

// RefreshSession issues a new session token for an already authenticated
// account identified by the email claim of its current token.
func (s *AccountService) RefreshSession(ctx context.Context, email string) (*AuthenticatedAccount, error) {
	account, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	token, err := s.issuer.Issue(*account)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	sanitized := *account
	sanitized.PasswordHash = ""

	return &AuthenticatedAccount{Account: sanitized, SessionToken: token}, nil
}
