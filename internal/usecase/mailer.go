package usecase

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
)

// actionLink builds the browser-facing URL that redeems a one-time token. The
// raw token is re-encoded for URL transport and paired with the address it
// belongs to so the client can submit both back.
func (s *AccountService) actionLink(path string, token *domain.OneTimeToken, email string) string {
	base := strings.TrimSuffix(s.cfg.Client.BaseURL, "/")
	encoded := security.EncodeTransportToken([]byte(token.Raw))

	return fmt.Sprintf("%s/%s?token=%s&email=%s",
		base,
		strings.Trim(path, "/"),
		url.QueryEscape(encoded),
		url.QueryEscape(email),
	)
}

func confirmEmailBody(displayName, link string) string {
	var b strings.Builder
	b.WriteString("<p>Hello " + html.EscapeString(displayName) + ",</p>")
	b.WriteString("<p>Thank you for registering. Please confirm your email address by clicking the link below.</p>")
	b.WriteString(`<p><a href="` + link + `">Confirm your email</a></p>`)
	b.WriteString("<p>If you did not create this account, you can ignore this message.</p>")
	return b.String()
}

func resetPasswordBody(displayName, username, link string) string {
	var b strings.Builder
	b.WriteString("<p>Hello " + html.EscapeString(displayName) + ",</p>")
	b.WriteString("<p>Your username is <strong>" + html.EscapeString(username) + "</strong>.</p>")
	b.WriteString("<p>You can reset your password by clicking the link below.</p>")
	b.WriteString(`<p><a href="` + link + `">Reset your password</a></p>`)
	b.WriteString("<p>If you did not request a password reset, you can ignore this message.</p>")
	return b.String()
}

func (s *AccountService) confirmationEmail(account *domain.Account, token *domain.OneTimeToken) domain.EmailMessage {
	link := s.actionLink(s.cfg.Client.ConfirmEmailPath, token, account.Email)
	return domain.EmailMessage{
		To:       account.Email,
		Subject:  "Confirm your email",
		HTMLBody: confirmEmailBody(account.DisplayName(), link),
	}
}

func (s *AccountService) passwordResetEmail(account *domain.Account, token *domain.OneTimeToken) domain.EmailMessage {
	link := s.actionLink(s.cfg.Client.ResetPasswordPath, token, account.Email)
	return domain.EmailMessage{
		To:       account.Email,
		Subject:  "Reset your password",
		HTMLBody: resetPasswordBody(account.DisplayName(), account.Username, link),
	}
}
