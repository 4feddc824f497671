package mail

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/config"
	"github.com/arklim/social-platform-accounts/internal/infra/logger"
)

// SMTPSender delivers notification emails through an SMTP relay.
type SMTPSender struct {
	cfg    config.EmailSettings
	logger *zap.Logger
}

// NewSMTPSender constructs an SMTP-backed notification sender.
func NewSMTPSender(cfg config.EmailSettings, log *zap.Logger) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}

	return &SMTPSender{cfg: cfg, logger: log}, nil
}

// Send delivers a single email message. A new client is dialed per message;
// send volume here is low and the relay handles connection reuse poorly
// across long idle periods.
func (s *SMTPSender) Send(ctx context.Context, message domain.EmailMessage) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("set from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("set from address: %w", err)
		}
	}

	if err := msg.To(message.To); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}

	msg.Subject(message.Subject)
	msg.SetBodyString(mail.TypeTextHTML, message.HTMLBody)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Implicit TLS for port 465, STARTTLS for others.
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("email sent",
		zap.String("to", logger.MaskEmail(message.To)),
		zap.String("subject", message.Subject),
	)

	return nil
}

var _ port.NotificationSender = (*SMTPSender)(nil)

// LogSender writes emails to the log instead of delivering them. Used in
// development environments without an SMTP relay.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender constructs a log-only notification sender.
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{logger: log}
}

// Send logs the message and reports success.
func (s *LogSender) Send(_ context.Context, message domain.EmailMessage) error {
	s.logger.Info("email delivery skipped, logging instead",
		zap.String("to", logger.MaskEmail(message.To)),
		zap.String("subject", message.Subject),
		zap.Int("body_bytes", len(message.HTMLBody)),
	)
	return nil
}

var _ port.NotificationSender = (*LogSender)(nil)
