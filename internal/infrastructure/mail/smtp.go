// Package mail delivers the transactional mails the auth flows produce over
// plain SMTP. When no SMTP host is configured (local development), messages
// are logged instead of sent so the flows stay exercisable.
package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"
)

// Config captures the SMTP settings and the frontend base URL used to build
// action links.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	BaseURL  string
}

type SMTPMailer struct {
	cfg Config
	log zerolog.Logger
}

func NewSMTPMailer(cfg Config, log zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log}
}

func (m *SMTPMailer) SendEmailVerification(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.cfg.BaseURL, token)
	body := "Welcome! Confirm your email address by opening: " + link
	return m.send(ctx, to, "Verify your email", body)
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.cfg.BaseURL, token)
	body := "A password reset was requested for your account. Open: " + link +
		"\nIf this was not you, ignore this mail; the link expires in one hour."
	return m.send(ctx, to, "Reset your password", body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	if m.cfg.Host == "" {
		m.log.Info().Str("to", to).Str("subject", subject).Msg("smtp not configured, mail logged only")
		return nil
	}

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.cfg.From, to, subject, body))
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	// net/smtp has no context support; run the send in a goroutine so a stuck
	// SMTP server cannot outlive the request's deadline.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	}
}
