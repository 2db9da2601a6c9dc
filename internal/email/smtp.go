package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type smtpSendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTPConfig configures the SMTP provider.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPProvider sends email via a standard SMTP server. It is the
// development-environment transport (e.g. a local Mailtrap inbox).
type SMTPProvider struct {
	cfg      SMTPConfig
	sendMail smtpSendMailFunc
}

// NewSMTPProvider creates a standard SMTP adapter.
func NewSMTPProvider(cfg SMTPConfig) (*SMTPProvider, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	return &SMTPProvider{
		cfg:      cfg,
		sendMail: smtp.SendMail,
	}, nil
}

// Send sends email via SMTP.
func (p *SMTPProvider) Send(ctx context.Context, message Message) error {
	msg := message.normalized()
	msg, err := applyDefaultSender(msg, p.cfg.From)
	if err != nil {
		return err
	}
	if err := msg.validate(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)
	raw := buildMIMEMessage(msg)

	var auth smtp.Auth
	if strings.TrimSpace(p.cfg.Username) != "" {
		auth = smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	}

	// smtp.SendMail has no context support; delivery failures must not
	// expose credentials, so the raw error is wrapped with a neutral message.
	if err := p.sendMail(addr, auth, msg.From, msg.To, raw); err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}
	return nil
}
