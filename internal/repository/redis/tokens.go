package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
)

const defaultTokenPrefix = "accounts:token"

// consumeScript deletes the stored hash only when it matches the candidate,
// so concurrent redemptions of the same token resolve to a single winner.
var consumeScript = red.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("DEL", KEYS[1])
	return 1
end
return 0
`)

// TokenStore persists hashed one-time tokens in Redis. Each account holds at
// most one live token per purpose; storing a new hash displaces the old one.
type TokenStore struct {
	client *red.Client
	prefix string
}

// NewTokenStore constructs a Redis-backed one-time token store.
func NewTokenStore(client *red.Client, keyPrefix string) *TokenStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultTokenPrefix
	}

	return &TokenStore{
		client: client,
		prefix: prefix,
	}
}

// Put stores a token hash under the account/purpose key, replacing any
// unconsumed predecessor and resetting the TTL.
func (s *TokenStore) Put(ctx context.Context, purpose domain.TokenPurpose, accountID string, tokenHash string, ttl time.Duration) error {
	key, err := s.key(purpose, accountID)
	if err != nil {
		return err
	}

	switch {
	case strings.TrimSpace(tokenHash) == "":
		return errors.New("token hash is required")
	case ttl <= 0:
		return errors.New("ttl must be positive")
	}

	if err := s.client.Set(ctx, key, tokenHash, ttl).Err(); err != nil {
		return fmt.Errorf("redis store token: %w", err)
	}

	return nil
}

// Consume atomically deletes the stored hash when it matches and reports
// whether the caller won the redemption. Expired or replaced tokens simply
// fail to match.
func (s *TokenStore) Consume(ctx context.Context, purpose domain.TokenPurpose, accountID string, tokenHash string) (bool, error) {
	key, err := s.key(purpose, accountID)
	if err != nil {
		return false, err
	}

	if strings.TrimSpace(tokenHash) == "" {
		return false, nil
	}

	result, err := consumeScript.Run(ctx, s.client, []string{key}, tokenHash).Int()
	if err != nil {
		return false, fmt.Errorf("redis consume token: %w", err)
	}

	return result == 1, nil
}

func (s *TokenStore) key(purpose domain.TokenPurpose, accountID string) (string, error) {
	accountID = strings.TrimSpace(accountID)
	if purpose == "" || accountID == "" {
		return "", errors.New("purpose and account id are required")
	}
	return fmt.Sprintf("%s:%s:%s", s.prefix, purpose, accountID), nil
}

var _ port.OneTimeTokenStore = (*TokenStore)(nil)
