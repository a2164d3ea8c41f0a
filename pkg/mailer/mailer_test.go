package mailer

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"acadef/backend/config"
)

func TestNew_PicksSender(t *testing.T) {
	if _, ok := New(&config.MailConfig{}, zap.NewNop()).(*LogSender); !ok {
		t.Error("expected LogSender without SMTP host")
	}
	if _, ok := New(&config.MailConfig{SMTPHost: "smtp.example.org"}, zap.NewNop()).(*SMTPSender); !ok {
		t.Error("expected SMTPSender with SMTP host")
	}
}

func TestSMTPSender_InvalidSender(t *testing.T) {
	s := NewSMTPSender(&config.MailConfig{SMTPHost: "smtp.example.org", SMTPPort: 587, From: "not an address"})
	if err := s.Send(context.Background(), []string{"a@example.org"}, "s", "<p>b</p>"); err == nil {
		t.Error("expected error for invalid From address")
	}
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(zap.NewNop())
	if err := s.Send(context.Background(), []string{"a@example.org"}, "subject", "<p>body</p>"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
