package email

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/agendly/agenda-api/pkg/logger"
)

// Sender delivers invite codes to prospective clients. Delivery is
// best-effort: the invite stays valid whether or not the message goes out.
type Sender interface {
	SendInviteCode(ctx context.Context, to, establishmentName, code string, expiresAt time.Time) error
}

type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender returns a Sender backed by an SMTP server.
func NewSMTPSender(cfg Config) Sender {
	return &smtpSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpSender) SendInviteCode(ctx context.Context, to, establishmentName, code string, expiresAt time.Time) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Your invite to %s", establishmentName))
	m.SetBody("text/plain", fmt.Sprintf(
		"You have been invited to join %s.\n\nYour invite code is %s. It expires on %s.\n",
		establishmentName, code, expiresAt.Format("January 2, 2006"),
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send invite email: %w", err)
	}
	return nil
}

type logSender struct {
	logger *logger.Logger
}

// NewLogSender returns a Sender that only logs, for environments without an
// SMTP server.
func NewLogSender(l *logger.Logger) Sender {
	return &logSender{logger: l}
}

func (s *logSender) SendInviteCode(_ context.Context, to, establishmentName, code string, expiresAt time.Time) error {
	s.logger.WithFields(map[string]interface{}{
		"to":            to,
		"establishment": establishmentName,
		"expires_at":    expiresAt,
	}).Info("invite code issued (email delivery disabled)")
	return nil
}
