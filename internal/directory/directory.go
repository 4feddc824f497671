package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
	"github.com/arklim/social-platform-accounts/internal/repository"
)

const (
	tokenByteLength = 32

	defaultConfirmTTL = 24 * time.Hour
	defaultResetTTL   = time.Hour

	passwordAlgoArgon2id = "argon2id"
)

// Directory implements port.UserDirectory on top of the account repository,
// the one-time token store, and the password policy.
type Directory struct {
	accounts   port.AccountRepository
	tokens     port.OneTimeTokenStore
	policy     *security.PasswordValidator
	confirmTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

// Option customizes Directory construction.
type Option func(*Directory)

// WithConfirmTTL overrides the email confirmation token lifetime.
func WithConfirmTTL(ttl time.Duration) Option {
	return func(d *Directory) {
		if ttl > 0 {
			d.confirmTTL = ttl
		}
	}
}

// WithResetTTL overrides the password reset token lifetime.
func WithResetTTL(ttl time.Duration) Option {
	return func(d *Directory) {
		if ttl > 0 {
			d.resetTTL = ttl
		}
	}
}

// WithClock overrides the directory clock, used in tests.
func WithClock(clock func() time.Time) Option {
	return func(d *Directory) {
		if clock != nil {
			d.now = clock
		}
	}
}

// New constructs a Directory.
func New(accounts port.AccountRepository, tokens port.OneTimeTokenStore, policy *security.PasswordValidator, opts ...Option) *Directory {
	d := &Directory{
		accounts:   accounts,
		tokens:     tokens,
		policy:     policy,
		confirmTTL: defaultConfirmTTL,
		resetTTL:   defaultResetTTL,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// FindByUsername looks up an account by username.
func (d *Directory) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return d.accounts.GetByUsername(ctx, username)
}

// FindByEmail looks up an account by normalized email address.
func (d *Directory) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return d.accounts.GetByEmail(ctx, domain.NormalizeEmail(email))
}

// ExistsByEmail reports whether the email address is already registered.
func (d *Directory) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return d.accounts.ExistsByEmail(ctx, domain.NormalizeEmail(email))
}

// Create validates the password against policy, hashes it, and persists a new
// unconfirmed account. A duplicate email surfaces as a ValidationError.
func (d *Directory) Create(ctx context.Context, account domain.Account, rawPassword string) (*domain.Account, error) {
	if violations := d.policy.Validate(rawPassword); len(violations) > 0 {
		return nil, validationError(violations)
	}

	hash, err := security.HashPassword(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account.Email = domain.NormalizeEmail(account.Email)
	account.Username = account.Email
	account.PasswordHash = hash
	account.PasswordAlgo = passwordAlgoArgon2id
	account.EmailConfirmed = false

	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.RegisteredAt.IsZero() {
		account.RegisteredAt = d.now().UTC()
	}

	if err := d.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &port.ValidationError{Reasons: []string{"email address is already in use"}}
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	return &account, nil
}

// CheckPassword verifies the raw password against the stored hash.
func (d *Directory) CheckPassword(_ context.Context, account *domain.Account, rawPassword string) (bool, error) {
	if account == nil {
		return false, nil
	}
	return security.VerifyPassword(rawPassword, account.PasswordHash)
}

// MintEmailConfirmToken issues a fresh confirmation token, displacing any
// earlier unconsumed one for the account.
func (d *Directory) MintEmailConfirmToken(ctx context.Context, account *domain.Account) (*domain.OneTimeToken, error) {
	return d.mint(ctx, account, domain.TokenPurposeConfirmEmail, d.confirmTTL)
}

// MintPasswordResetToken issues a fresh password reset token.
func (d *Directory) MintPasswordResetToken(ctx context.Context, account *domain.Account) (*domain.OneTimeToken, error) {
	return d.mint(ctx, account, domain.TokenPurposeResetPassword, d.resetTTL)
}

func (d *Directory) mint(ctx context.Context, account *domain.Account, purpose domain.TokenPurpose, ttl time.Duration) (*domain.OneTimeToken, error) {
	if account == nil || account.ID == "" {
		return nil, errors.New("account is required")
	}

	raw, err := security.GenerateSecureToken(tokenByteLength)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	if err := d.tokens.Put(ctx, purpose, account.ID, security.HashToken(raw), ttl); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	return &domain.OneTimeToken{
		AccountID: account.ID,
		Purpose:   purpose,
		Raw:       raw,
		ExpiresAt: d.now().UTC().Add(ttl),
	}, nil
}

// ConsumeEmailConfirmToken redeems a confirmation token and flips the account
// to confirmed. Invalid, expired, and already-consumed tokens are
// indistinguishable to the caller.
func (d *Directory) ConsumeEmailConfirmToken(ctx context.Context, account *domain.Account, raw string) error {
	if err := d.consume(ctx, account, domain.TokenPurposeConfirmEmail, raw); err != nil {
		return err
	}

	if err := d.accounts.SetEmailConfirmed(ctx, account.ID); err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}

	account.EmailConfirmed = true
	return nil
}

// ConsumeResetToken redeems a reset token and installs the new password. The
// policy check runs before consumption so a rejected password does not burn
// the token.
func (d *Directory) ConsumeResetToken(ctx context.Context, account *domain.Account, raw string, newPassword string) error {
	if account == nil || account.ID == "" {
		return port.ErrTokenInvalid
	}

	if violations := d.policy.Validate(newPassword); len(violations) > 0 {
		return validationError(violations)
	}

	if err := d.consume(ctx, account, domain.TokenPurposeResetPassword, raw); err != nil {
		return err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := d.accounts.UpdatePassword(ctx, account.ID, hash, passwordAlgoArgon2id, d.now().UTC()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	account.PasswordHash = hash
	account.PasswordAlgo = passwordAlgoArgon2id
	return nil
}

func (d *Directory) consume(ctx context.Context, account *domain.Account, purpose domain.TokenPurpose, raw string) error {
	if account == nil || account.ID == "" || raw == "" {
		return port.ErrTokenInvalid
	}

	ok, err := d.tokens.Consume(ctx, purpose, account.ID, security.HashToken(raw))
	if err != nil {
		return fmt.Errorf("consume token: %w", err)
	}
	if !ok {
		return port.ErrTokenInvalid
	}

	return nil
}

func validationError(violations []error) *port.ValidationError {
	reasons := make([]string, 0, len(violations))
	for _, v := range violations {
		reasons = append(reasons, v.Error())
	}
	return &port.ValidationError{Reasons: reasons}
}

var _ port.UserDirectory = (*Directory)(nil)
