package port

import (
	"context"
	"errors"
	"strings"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
)

// ErrTokenInvalid indicates a one-time token is malformed, expired, or already
// consumed. The cases are deliberately undifferentiated.
var ErrTokenInvalid = errors.New("directory: one-time token invalid")

// ValidationError reports a directory-side policy rejection, such as a weak
// password or an email address already in use.
type ValidationError struct {
	Reasons []string
}

// Error implements error for ValidationError.
func (e *ValidationError) Error() string {
	if e == nil || len(e.Reasons) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Reasons, "; ")
}

// UserDirectory is the authority for account records, credential checking, and
// one-time token lifecycle. Implementations must guarantee that concurrent
// consumption attempts on the same token succeed at most once.
type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, account domain.Account, rawPassword string) (*domain.Account, error)
	CheckPassword(ctx context.Context, account *domain.Account, rawPassword string) (bool, error)
	MintEmailConfirmToken(ctx context.Context, account *domain.Account) (*domain.OneTimeToken, error)
	MintPasswordResetToken(ctx context.Context, account *domain.Account) (*domain.OneTimeToken, error)
	ConsumeEmailConfirmToken(ctx context.Context, account *domain.Account, raw string) error
	ConsumeResetToken(ctx context.Context, account *domain.Account, raw string, newPassword string) error
}
