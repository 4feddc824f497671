package directory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
	"github.com/arklim/social-platform-accounts/internal/repository"
)

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*domain.Account)}
}

func (r *fakeAccountRepo) Create(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.Email]; ok {
		return repository.ErrDuplicate
	}
	stored := account
	r.accounts[account.Email] = &stored
	return nil
}

func (r *fakeAccountRepo) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.Username == username {
			copied := *account
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (r *fakeAccountRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.accounts[email]
	return ok, nil
}

func (r *fakeAccountRepo) SetEmailConfirmed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.ID == id {
			account.EmailConfirmed = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeAccountRepo) UpdatePassword(_ context.Context, id string, passwordHash string, passwordAlgo string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.ID == id {
			account.PasswordHash = passwordHash
			account.PasswordAlgo = passwordAlgo
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeTokenStore struct {
	mu     sync.Mutex
	hashes map[string]string
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{hashes: make(map[string]string)}
}

func (s *fakeTokenStore) Put(_ context.Context, purpose domain.TokenPurpose, accountID string, tokenHash string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[string(purpose)+":"+accountID] = tokenHash
	return nil
}

func (s *fakeTokenStore) Consume(_ context.Context, purpose domain.TokenPurpose, accountID string, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(purpose) + ":" + accountID
	if s.hashes[key] != tokenHash {
		return false, nil
	}
	delete(s.hashes, key)
	return true, nil
}

const strongPassword = "C0mplex!Passphrase#2026"

func newTestDirectory() (*Directory, *fakeAccountRepo, *fakeTokenStore) {
	repo := newFakeAccountRepo()
	store := newFakeTokenStore()
	dir := New(repo, store, security.DefaultPasswordValidator())
	return dir, repo, store
}

func createTestAccount(t *testing.T, dir *Directory) *domain.Account {
	t.Helper()

	created, err := dir.Create(context.Background(), domain.Account{
		Email:     "Jane.Doe@Example.com",
		FirstName: "jane",
		LastName:  "doe",
	}, strongPassword)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	return created
}

func TestCreateNormalizesAndHashes(t *testing.T) {
	dir, _, _ := newTestDirectory()

	created := createTestAccount(t, dir)

	if created.Email != "jane.doe@example.com" {
		t.Fatalf("email was not normalized: %s", created.Email)
	}
	if created.Username != created.Email {
		t.Fatalf("username should equal email, got %s", created.Username)
	}
	if created.EmailConfirmed {
		t.Fatal("new accounts must start unconfirmed")
	}
	if created.PasswordHash == strongPassword || created.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}
	if created.PasswordAlgo != "argon2id" {
		t.Fatalf("unexpected password algo: %s", created.PasswordAlgo)
	}

	ok, err := dir.CheckPassword(context.Background(), created, strongPassword)
	if err != nil {
		t.Fatalf("CheckPassword returned error: %v", err)
	}
	if !ok {
		t.Fatal("CheckPassword rejected the original password")
	}

	ok, err = dir.CheckPassword(context.Background(), created, "wrong password")
	if err != nil {
		t.Fatalf("CheckPassword returned error: %v", err)
	}
	if ok {
		t.Fatal("CheckPassword accepted a wrong password")
	}
}

func TestCreateRejectsWeakPassword(t *testing.T) {
	dir, _, _ := newTestDirectory()

	_, err := dir.Create(context.Background(), domain.Account{Email: "weak@example.com"}, "abc")
	var validation *port.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreateRejectsDuplicateEmailCaseInsensitive(t *testing.T) {
	dir, _, _ := newTestDirectory()

	createTestAccount(t, dir)

	_, err := dir.Create(context.Background(), domain.Account{Email: "JANE.DOE@example.com"}, strongPassword)
	var validation *port.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for duplicate email, got %v", err)
	}
}

func TestConfirmTokenSingleUse(t *testing.T) {
	dir, _, _ := newTestDirectory()
	account := createTestAccount(t, dir)

	token, err := dir.MintEmailConfirmToken(context.Background(), account)
	if err != nil {
		t.Fatalf("MintEmailConfirmToken returned error: %v", err)
	}
	if token.Raw == "" || token.Purpose != domain.TokenPurposeConfirmEmail {
		t.Fatalf("unexpected token: %+v", token)
	}

	if err := dir.ConsumeEmailConfirmToken(context.Background(), account, token.Raw); err != nil {
		t.Fatalf("ConsumeEmailConfirmToken returned error: %v", err)
	}
	if !account.EmailConfirmed {
		t.Fatal("account should be confirmed after consumption")
	}

	stored, err := dir.FindByEmail(context.Background(), account.Email)
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}
	if !stored.EmailConfirmed {
		t.Fatal("confirmation was not persisted")
	}

	if err := dir.ConsumeEmailConfirmToken(context.Background(), account, token.Raw); !errors.Is(err, port.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid on replay, got %v", err)
	}
}

func TestMintReplacesPreviousToken(t *testing.T) {
	dir, _, _ := newTestDirectory()
	account := createTestAccount(t, dir)

	first, err := dir.MintEmailConfirmToken(context.Background(), account)
	if err != nil {
		t.Fatalf("MintEmailConfirmToken returned error: %v", err)
	}

	second, err := dir.MintEmailConfirmToken(context.Background(), account)
	if err != nil {
		t.Fatalf("MintEmailConfirmToken returned error: %v", err)
	}

	if first.Raw == second.Raw {
		t.Fatal("expected distinct raw tokens")
	}

	if err := dir.ConsumeEmailConfirmToken(context.Background(), account, first.Raw); !errors.Is(err, port.ErrTokenInvalid) {
		t.Fatalf("expected displaced token to be invalid, got %v", err)
	}

	if err := dir.ConsumeEmailConfirmToken(context.Background(), account, second.Raw); err != nil {
		t.Fatalf("latest token should redeem, got %v", err)
	}
}

func TestConsumeResetTokenUpdatesPassword(t *testing.T) {
	dir, _, _ := newTestDirectory()
	account := createTestAccount(t, dir)

	token, err := dir.MintPasswordResetToken(context.Background(), account)
	if err != nil {
		t.Fatalf("MintPasswordResetToken returned error: %v", err)
	}

	newPassword := "An0ther!Passphrase#42"
	if err := dir.ConsumeResetToken(context.Background(), account, token.Raw, newPassword); err != nil {
		t.Fatalf("ConsumeResetToken returned error: %v", err)
	}

	stored, err := dir.FindByEmail(context.Background(), account.Email)
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}

	ok, err := dir.CheckPassword(context.Background(), stored, newPassword)
	if err != nil {
		t.Fatalf("CheckPassword returned error: %v", err)
	}
	if !ok {
		t.Fatal("new password was not installed")
	}

	ok, err = dir.CheckPassword(context.Background(), stored, strongPassword)
	if err != nil {
		t.Fatalf("CheckPassword returned error: %v", err)
	}
	if ok {
		t.Fatal("old password still accepted after reset")
	}

	if err := dir.ConsumeResetToken(context.Background(), account, token.Raw, newPassword); !errors.Is(err, port.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid on replay, got %v", err)
	}
}

func TestConsumeResetTokenPolicyFailureKeepsToken(t *testing.T) {
	dir, _, _ := newTestDirectory()
	account := createTestAccount(t, dir)

	token, err := dir.MintPasswordResetToken(context.Background(), account)
	if err != nil {
		t.Fatalf("MintPasswordResetToken returned error: %v", err)
	}

	var validation *port.ValidationError
	if err := dir.ConsumeResetToken(context.Background(), account, token.Raw, "abc"); !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for weak password, got %v", err)
	}

	// The rejected attempt must not burn the token.
	if err := dir.ConsumeResetToken(context.Background(), account, token.Raw, "An0ther!Passphrase#42"); err != nil {
		t.Fatalf("token should survive a policy rejection, got %v", err)
	}
}

func TestConsumeWithWrongRawToken(t *testing.T) {
	dir, _, _ := newTestDirectory()
	account := createTestAccount(t, dir)

	if _, err := dir.MintEmailConfirmToken(context.Background(), account); err != nil {
		t.Fatalf("MintEmailConfirmToken returned error: %v", err)
	}

	if err := dir.ConsumeEmailConfirmToken(context.Background(), account, "guessed-token"); !errors.Is(err, port.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for wrong raw token, got %v", err)
	}
}
