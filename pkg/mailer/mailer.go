package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"acadef/backend/config"
)

// Sender delivers one HTML message.
type Sender interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}

// SMTPSender Sender backed by go-mail
type SMTPSender struct {
	cfg *config.MailConfig
}

// NewSMTPSender creates an SMTP sender. A new connection is dialled per message.
func NewSMTPSender(cfg *config.MailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("mailer: invalid sender %q: %w", s.cfg.From, err)
	}
	if err := msg.To(to...); err != nil {
		return fmt.Errorf("mailer: invalid recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	opts := []mail.Option{
		mail.WithPort(s.cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("mailer: create client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them.
// Used when no SMTP host is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to []string, subject, htmlBody string) error {
	s.logger.Info("mail not sent (no SMTP host configured)",
		zap.Strings("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(htmlBody)),
	)
	return nil
}

// New picks the SMTP sender when a host is configured, the log sender otherwise.
func New(cfg *config.MailConfig, logger *zap.Logger) Sender {
	if cfg.SMTPHost == "" {
		return NewLogSender(logger)
	}
	return NewSMTPSender(cfg)
}
