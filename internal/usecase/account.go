package usecase

import (
	"errors"

	"go.uber.org/zap"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/config"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
)

var (
	// ErrAccountNotFound indicates no account matches the supplied identifier.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials indicates the username or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailUnconfirmed indicates the account exists but its email address has not been confirmed.
	ErrEmailUnconfirmed = errors.New("email not confirmed")
	// ErrEmailAlreadyConfirmed indicates the account's email address is already confirmed.
	ErrEmailAlreadyConfirmed = errors.New("email already confirmed")
	// ErrInvalidToken indicates a one-time token is malformed, expired, or spent.
	ErrInvalidToken = errors.New("invalid token")
	// ErrValidationFailed indicates the input was rejected by policy.
	ErrValidationFailed = errors.New("validation failed")
	// ErrDeliveryFailed indicates a notification email could not be sent.
	ErrDeliveryFailed = errors.New("email delivery failed")
)

// AuthenticatedAccount pairs an account with a freshly issued session token.
type AuthenticatedAccount struct {
	Account      domain.Account
	SessionToken string
}

// AccountService coordinates registration, login, email confirmation, and
// password reset flows.
type AccountService struct {
	cfg       *config.AppConfig
	directory port.UserDirectory
	sender    port.NotificationSender
	issuer    *security.TokenIssuer
	events    port.EventPublisher
	logger    *zap.Logger
}

// NewAccountService constructs an AccountService instance.
func NewAccountService(
	cfg *config.AppConfig,
	dir port.UserDirectory,
	sender port.NotificationSender,
	issuer *security.TokenIssuer,
	events port.EventPublisher,
	log *zap.Logger,
) *AccountService {
	return &AccountService{
		cfg:       cfg,
		directory: dir,
		sender:    sender,
		issuer:    issuer,
		events:    events,
		logger:    log,
	}
}
