package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/simp-lee/tourbase/internal/domain"
)

// Sender renders transactional email templates and hands the result to the
// configured provider. Template data follows the view templates' shape:
// first name, an action URL, and the subject.
type Sender struct {
	provider Provider
	from     string
	tmpl     *template.Template
}

// NewSender parses the email templates (templates/email/*.html) from fsys
// and returns a Sender delivering through provider.
func NewSender(provider Provider, from string, fsys fs.FS) (*Sender, error) {
	tmpl, err := template.ParseFS(fsys, "templates/email/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &Sender{
		provider: provider,
		from:     from,
		tmpl:     tmpl,
	}, nil
}

// SendWelcome sends the onboarding email after signup.
func (s *Sender) SendWelcome(ctx context.Context, user *domain.User, url string) error {
	return s.send(ctx, user, "welcome.html", "Welcome to the Tourbase family!", url)
}

// SendPasswordReset sends the password-reset email with the single-use
// reset URL. The token inside the URL is only valid for ten minutes.
func (s *Sender) SendPasswordReset(ctx context.Context, user *domain.User, url string) error {
	return s.send(ctx, user, "password_reset.html", "Your password reset token (valid for 10 minutes)", url)
}

func (s *Sender) send(ctx context.Context, user *domain.User, templateName, subject, url string) error {
	firstName := user.Name
	if i := strings.IndexByte(firstName, ' '); i > 0 {
		firstName = firstName[:i]
	}

	var html bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&html, templateName, map[string]any{
		"FirstName": firstName,
		"URL":       url,
		"Subject":   subject,
	}); err != nil {
		return fmt.Errorf("render email template %s: %w", templateName, err)
	}

	return s.provider.Send(ctx, Message{
		From:     s.from,
		To:       []string{user.Email},
		Subject:  subject,
		TextBody: fmt.Sprintf("Hi %s,\n\n%s\n\n%s\n", firstName, subject, url),
		HTMLBody: html.String(),
	})
}

// LogProvider is the provider used when email delivery is disabled: it logs
// the send and drops the message, keeping development environments
// credential-free.
type LogProvider struct {
	Logger *slog.Logger
}

// Send logs the message instead of delivering it.
func (p LogProvider) Send(ctx context.Context, message Message) error {
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}
	log.InfoContext(ctx, "email delivery disabled, dropping message",
		slog.String("subject", message.Subject),
		slog.Int("recipients", len(message.To)),
	)
	return nil
}
