package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
)

var (
	// ErrSigningKeyMissing indicates no symmetric signing key was configured.
	ErrSigningKeyMissing = errors.New("jwt: signing key is required")
	// ErrIssuerMissing indicates no token issuer name was configured.
	ErrIssuerMissing = errors.New("jwt: issuer is required")
	// ErrSessionTokenInvalid indicates the session token is malformed or its signature does not verify.
	ErrSessionTokenInvalid = errors.New("jwt: session token invalid")
	// ErrSessionTokenExpired indicates the session token elapsed its validity window.
	ErrSessionTokenExpired = errors.New("jwt: session token expired")
)

const (
	minSigningKeyLength      = 32
	defaultSessionExpiryDays = 7
)

// SessionClaims carries the identity claims embedded in a session token.
type SessionClaims struct {
	Email     string `json:"email"`
	GivenName string `json:"given_name"`
	Surname   string `json:"surname"`
	jwt.RegisteredClaims
}

// TokenIssuer builds signed, time-limited session tokens for authenticated
// accounts. Tokens are stateless: verification is by signature and expiry only.
type TokenIssuer struct {
	key        []byte
	issuer     string
	expiryDays int
	now        func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer. A missing key or issuer is a
// configuration fault and fails construction; there is no per-call error path
// for misconfiguration.
func NewTokenIssuer(key, issuer string, expiryDays int) (*TokenIssuer, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrSigningKeyMissing
	}
	if len(key) < minSigningKeyLength {
		return nil, fmt.Errorf("%w: need at least %d bytes", ErrSigningKeyMissing, minSigningKeyLength)
	}

	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return nil, ErrIssuerMissing
	}

	if expiryDays <= 0 {
		expiryDays = defaultSessionExpiryDays
	}

	return &TokenIssuer{
		key:        []byte(key),
		issuer:     issuer,
		expiryDays: expiryDays,
		now:        time.Now,
	}, nil
}

// Issue signs a session token binding the account's identity claims.
func (i *TokenIssuer) Issue(account domain.Account) (string, error) {
	if account.ID == "" {
		return "", fmt.Errorf("jwt: account id is required")
	}

	now := i.now().UTC()
	claims := SessionClaims{
		Email:     account.Email,
		GivenName: account.FirstName,
		Surname:   account.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.AddDate(0, 0, i.expiryDays)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("jwt: sign session token: %w", err)
	}

	return signed, nil
}

// Parse validates a session token's signature, issuer, and expiry and returns
// its claims.
func (i *TokenIssuer) Parse(token string) (*SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrSessionTokenInvalid
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.key, nil
	}, jwt.WithIssuer(i.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionTokenExpired
		}
		return nil, ErrSessionTokenInvalid
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrSessionTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.Email) == "" {
		return nil, ErrSessionTokenInvalid
	}

	return claims, nil
}

// WithClock overrides the issuer's clock, used in tests.
func (i *TokenIssuer) WithClock(clock func() time.Time) {
	if clock != nil {
		i.now = clock
	}
}
