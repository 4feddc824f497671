package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/directory"
	"github.com/arklim/social-platform-accounts/internal/infra/config"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
	"github.com/arklim/social-platform-accounts/internal/repository"
	"github.com/arklim/social-platform-accounts/internal/transport/http/middleware"
	"github.com/arklim/social-platform-accounts/internal/usecase"
)

type memoryAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newMemoryAccountRepo() *memoryAccountRepo {
	return &memoryAccountRepo{accounts: make(map[string]*domain.Account)}
}

func (r *memoryAccountRepo) Create(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.Email]; ok {
		return repository.ErrDuplicate
	}
	stored := account
	r.accounts[account.Email] = &stored
	return nil
}

func (r *memoryAccountRepo) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
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

func (r *memoryAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (r *memoryAccountRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.accounts[email]
	return ok, nil
}

func (r *memoryAccountRepo) SetEmailConfirmed(_ context.Context, id string) error {
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

func (r *memoryAccountRepo) UpdatePassword(_ context.Context, id string, passwordHash string, passwordAlgo string, _ time.Time) error {
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

type memoryTokenStore struct {
	mu     sync.Mutex
	hashes map[string]string
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{hashes: make(map[string]string)}
}

func (s *memoryTokenStore) Put(_ context.Context, purpose domain.TokenPurpose, accountID string, tokenHash string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[string(purpose)+":"+accountID] = tokenHash
	return nil
}

func (s *memoryTokenStore) Consume(_ context.Context, purpose domain.TokenPurpose, accountID string, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(purpose) + ":" + accountID
	if s.hashes[key] != tokenHash {
		return false, nil
	}
	delete(s.hashes, key)
	return true, nil
}

type recordingSender struct {
	mu       sync.Mutex
	messages []domain.EmailMessage
	failing  bool
}

func (s *recordingSender) Send(_ context.Context, message domain.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return context.DeadlineExceeded
	}
	s.messages = append(s.messages, message)
	return nil
}

func (s *recordingSender) lastToken(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		t.Fatal("no email was sent")
	}

	body := s.messages[len(s.messages)-1].HTMLBody
	start := strings.Index(body, `href="`)
	if start < 0 {
		t.Fatalf("email body has no link: %s", body)
	}
	rest := body[start+len(`href="`):]
	end := strings.Index(rest, `"`)
	link, err := url.Parse(rest[:end])
	if err != nil {
		t.Fatalf("email link does not parse: %v", err)
	}
	return link.Query().Get("token")
}

type noopPublisher struct{}

func (noopPublisher) PublishAccountRegistered(context.Context, domain.AccountRegisteredEvent) error {
	return nil
}
func (noopPublisher) PublishEmailConfirmed(context.Context, domain.EmailConfirmedEvent) error {
	return nil
}
func (noopPublisher) PublishPasswordReset(context.Context, domain.PasswordResetEvent) error {
	return nil
}

const (
	testEmail    = "jane.doe@example.com"
	testPassword = "C0mplex!Passphrase#2026"
)

type testHarness struct {
	router *gin.Engine
	sender *recordingSender
	issuer *security.TokenIssuer
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issuer, err := security.NewTokenIssuer("0123456789abcdef0123456789abcdef", "accounts-service", 7)
	if err != nil {
		t.Fatalf("NewTokenIssuer returned error: %v", err)
	}

	cfg := &config.AppConfig{
		Client: config.ClientSettings{
			BaseURL:           "https://app.example.com",
			ConfirmEmailPath:  "confirm-email",
			ResetPasswordPath: "reset-password",
		},
	}

	dir := directory.New(newMemoryAccountRepo(), newMemoryTokenStore(), security.DefaultPasswordValidator())
	sender := &recordingSender{}
	svc := usecase.NewAccountService(cfg, dir, sender, issuer, noopPublisher{}, zaptest.NewLogger(t))

	router := gin.New()
	group := router.Group("/api/account")
	NewAccountHandler(svc).RegisterRoutes(group, middleware.RequireAuth(issuer))

	return &testHarness{router: router, sender: sender, issuer: issuer}
}

func (h *testHarness) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *testHarness) register(t *testing.T) {
	t.Helper()

	rec := h.do(t, http.MethodPost, "/api/account/register", RegisterRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     testEmail,
		Password:  testPassword,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", rec.Code, rec.Body.String())
	}
}

func (h *testHarness) confirm(t *testing.T) {
	t.Helper()

	rec := h.do(t, http.MethodPut, "/api/account/confirm-email", ConfirmEmailRequest{
		Token: h.sender.lastToken(t),
		Email: testEmail,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm-email returned %d: %s", rec.Code, rec.Body.String())
	}
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) MessageResponse {
	t.Helper()
	var resp MessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func TestRegisterEndpoint(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodPost, "/api/account/register", RegisterRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     testEmail,
		Password:  testPassword,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if msg := decodeMessage(t, rec); msg.Message != "please confirm your email address to complete the registration" {
		t.Fatalf("unexpected message: %s", msg.Message)
	}

	// Same address again.
	rec = h.do(t, http.MethodPost, "/api/account/register", RegisterRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     strings.ToUpper(testEmail),
		Password:  testPassword,
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %d", rec.Code)
	}
}

func TestRegisterEndpointRejectsBadPayload(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodPost, "/api/account/register", map[string]string{
		"email": "not-an-email",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRegisterEndpointDeliveryFailure(t *testing.T) {
	h := newTestHarness(t)
	h.sender.failing = true

	rec := h.do(t, http.MethodPost, "/api/account/register", RegisterRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     testEmail,
		Password:  testPassword,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 despite delivery failure, got %d", rec.Code)
	}
	if msg := decodeMessage(t, rec); msg.Message != "failed to send email, please contact admin" {
		t.Fatalf("unexpected message: %s", msg.Message)
	}
}

func TestLoginEndpoint(t *testing.T) {
	h := newTestHarness(t)
	h.register(t)

	// Unconfirmed account with valid credentials.
	rec := h.do(t, http.MethodPost, "/api/account/login", LoginRequest{
		UserName: testEmail,
		Password: testPassword,
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before confirmation, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error != "please confirm your email" {
		t.Fatalf("unexpected error message: %s", resp.Error)
	}

	// Wrong password.
	rec = h.do(t, http.MethodPost, "/api/account/login", LoginRequest{
		UserName: testEmail,
		Password: "wrong password",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error != "invalid username or password" {
		t.Fatalf("unexpected error message: %s", resp.Error)
	}

	h.confirm(t)

	rec = h.do(t, http.MethodPost, "/api/account/login", LoginRequest{
		UserName: testEmail,
		Password: testPassword,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var user UserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode user response: %v", err)
	}
	if user.JWT == "" {
		t.Fatal("login response is missing the session token")
	}
	if user.FirstName != "jane" || user.LastName != "doe" {
		t.Fatalf("unexpected names: %s %s", user.FirstName, user.LastName)
	}
	if _, err := h.issuer.Parse(user.JWT); err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
}

func TestConfirmEmailEndpoint(t *testing.T) {
	h := newTestHarness(t)
	h.register(t)

	rec := h.do(t, http.MethodPut, "/api/account/confirm-email", ConfirmEmailRequest{
		Token: "bogus token!",
		Email: testEmail,
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad token, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error != "invalid token, please try again" {
		t.Fatalf("unexpected error message: %s", resp.Error)
	}

	rec = h.do(t, http.MethodPut, "/api/account/confirm-email", ConfirmEmailRequest{
		Token: h.sender.lastToken(t),
		Email: "nobody@example.com",
	}, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown account, got %d", rec.Code)
	}

	rec = h.do(t, http.MethodPut, "/api/account/confirm-email", ConfirmEmailRequest{
		Token: h.sender.lastToken(t),
		Email: testEmail,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestResendConfirmationEndpoint(t *testing.T) {
	h := newTestHarness(t)
	h.register(t)

	rec := h.do(t, http.MethodPut, "/api/account/resend-email-confirmation-link/"+testEmail, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	h.confirm(t)

	rec = h.do(t, http.MethodPut, "/api/account/resend-email-confirmation-link/"+testEmail, nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 once confirmed, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error != "email address is already confirmed" {
		t.Fatalf("unexpected error message: %s", resp.Error)
	}
}

func TestResendConfirmationEndpointDeliveryFailure(t *testing.T) {
	h := newTestHarness(t)
	h.register(t)
	h.sender.failing = true

	rec := h.do(t, http.MethodPut, "/api/account/resend-email-confirmation-link/"+testEmail, nil, nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for delivery failure, got %d", rec.Code)
	}
}

func TestRequestPasswordResetEndpoint(t *testing.T) {
	h := newTestHarness(t)
	h.register(t)

	// Unconfirmed accounts cannot start the reset flow.
	rec := h.do(t, http.MethodPost, "/api/account/reset-username-password/"+testEmail, nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unconfirmed account, got %d", rec.Code)
	}

	h.confirm(t)

	rec = h.do(t, http.MethodPost, "/api/account/reset-username-password/"+testEmail, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodPost, "/api/account/reset-username-password/nobody@example.com", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown account, got %d", rec.Code)
	}
}

func TestResetPasswordEndpointRequiresConfirmedEmail(t *testing.T) {
	h := newTestHarness(t)
	h.register(t)

	rec := h.do(t, http.MethodPost, "/api/account/reset-password", ResetPasswordRequest{
		Token:       "aGVsbG8",
		Email:       testEmail,
		NewPassword: "An0ther!Passphrase#42",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unconfirmed account, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error != "please confirm your email" {
		t.Fatalf("unexpected error message: %s", resp.Error)
	}
}

func TestResetPasswordEndpoint(t *testing.T) {
	h := newTestHarness(t)
	h.register(t)
	h.confirm(t)

	rec := h.do(t, http.MethodPost, "/api/account/reset-username-password/"+testEmail, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset request returned %d", rec.Code)
	}
	token := h.sender.lastToken(t)

	// Weak replacement password is rejected without spending the token.
	rec = h.do(t, http.MethodPost, "/api/account/reset-password", ResetPasswordRequest{
		Token:       token,
		Email:       testEmail,
		NewPassword: "abc",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for weak password, got %d", rec.Code)
	}

	newPassword := "An0ther!Passphrase#42"
	rec = h.do(t, http.MethodPost, "/api/account/reset-password", ResetPasswordRequest{
		Token:       token,
		Email:       testEmail,
		NewPassword: newPassword,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Spent token.
	rec = h.do(t, http.MethodPost, "/api/account/reset-password", ResetPasswordRequest{
		Token:       token,
		Email:       testEmail,
		NewPassword: "Th1rd!Passphrase#77",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for spent token, got %d", rec.Code)
	}

	rec = h.do(t, http.MethodPost, "/api/account/login", LoginRequest{
		UserName: testEmail,
		Password: newPassword,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login with new password returned %d", rec.Code)
	}
}

func TestRefreshUserTokenEndpoint(t *testing.T) {
	h := newTestHarness(t)
	h.register(t)
	h.confirm(t)

	rec := h.do(t, http.MethodGet, "/api/account/refresh-user-token", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", rec.Code)
	}

	login := h.do(t, http.MethodPost, "/api/account/login", LoginRequest{
		UserName: testEmail,
		Password: testPassword,
	}, nil)
	var user UserResponse
	if err := json.Unmarshal(login.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode login response: %v", err)
	}

	rec = h.do(t, http.MethodGet, "/api/account/refresh-user-token", nil, map[string]string{
		"Authorization": "Bearer " + user.JWT,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var refreshed UserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &refreshed); err != nil {
		t.Fatalf("decode refresh response: %v", err)
	}
	if refreshed.JWT == "" {
		t.Fatal("refresh response is missing the session token")
	}
	if _, err := h.issuer.Parse(refreshed.JWT); err != nil {
		t.Fatalf("refreshed token does not parse: %v", err)
	}
}
