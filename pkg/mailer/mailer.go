package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/pyankovzhe/market-backend/pkg/config"
	"github.com/pyankovzhe/market-backend/pkg/logger"
)

// Sender delivers plain-text mail. Delivery is best-effort; callers must not
// block request handling on it.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends through a configured SMTP relay.
type SMTPSender struct {
	cfg config.MailConfig
}

// NewSMTPSender builds a sender from the mail configuration.
func NewSMTPSender(cfg config.MailConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("mail host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("mail from address is required")
	}
	return &SMTPSender{cfg: cfg}, nil
}

func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient is required")
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg))
}

// LogSender writes the message to the log instead of sending it. Used in dev
// when no relay is configured.
type LogSender struct {
	logg *logger.Logger
}

// NewLogSender builds a sender that only logs.
func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"to": to, "subject": subject})
		s.logg.Info(ctx, "mail.skipped")
	}
	return nil
}
