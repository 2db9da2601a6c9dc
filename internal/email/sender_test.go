package email

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/simp-lee/tourbase/internal/domain"
)

type recordingProvider struct {
	sent []Message
}

func (p *recordingProvider) Send(_ context.Context, message Message) error {
	p.sent = append(p.sent, message)
	return nil
}

var senderFS = fstest.MapFS{
	"templates/email/welcome.html":        {Data: []byte(`<h1>{{ .Subject }}</h1><p>Hi {{ .FirstName }}</p><a href="{{ .URL }}">Go</a>`)},
	"templates/email/password_reset.html": {Data: []byte(`<p>{{ .FirstName }}, reset here: {{ .URL }}</p>`)},
}

func newTestSender(t *testing.T, provider Provider) *Sender {
	t.Helper()
	s, err := NewSender(provider, "admin@tourbase.dev", senderFS)
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	return s
}

func TestNewSender_MissingTemplates(t *testing.T) {
	if _, err := NewSender(&recordingProvider{}, "admin@tourbase.dev", fstest.MapFS{}); err == nil {
		t.Error("expected an error when the template directory is empty")
	}
}

func TestSendWelcome(t *testing.T) {
	provider := &recordingProvider{}
	s := newTestSender(t, provider)
	user := &domain.User{Name: "Leo Gillespie", Email: "leo@example.com"}

	if err := s.SendWelcome(context.Background(), user, "http://localhost:8080/me"); err != nil {
		t.Fatalf("SendWelcome: %v", err)
	}

	if len(provider.sent) != 1 {
		t.Fatalf("sent %d messages; want 1", len(provider.sent))
	}
	m := provider.sent[0]
	if m.From != "admin@tourbase.dev" {
		t.Errorf("From = %q", m.From)
	}
	if len(m.To) != 1 || m.To[0] != "leo@example.com" {
		t.Errorf("To = %v", m.To)
	}
	if m.Subject != "Welcome to the Tourbase family!" {
		t.Errorf("Subject = %q", m.Subject)
	}
	if !strings.Contains(m.HTMLBody, "Hi Leo</p>") {
		t.Errorf("HTMLBody = %q; want the first name only", m.HTMLBody)
	}
	if !strings.Contains(m.HTMLBody, "http://localhost:8080/me") {
		t.Errorf("HTMLBody = %q; missing the action URL", m.HTMLBody)
	}
	if !strings.Contains(m.TextBody, "Leo") || !strings.Contains(m.TextBody, "http://localhost:8080/me") {
		t.Errorf("TextBody = %q", m.TextBody)
	}
}

func TestSendPasswordReset(t *testing.T) {
	provider := &recordingProvider{}
	s := newTestSender(t, provider)
	user := &domain.User{Name: "Leo", Email: "leo@example.com"}

	url := "http://localhost:8080/api/v1/users/resetPassword/abc123"
	if err := s.SendPasswordReset(context.Background(), user, url); err != nil {
		t.Fatalf("SendPasswordReset: %v", err)
	}

	m := provider.sent[0]
	if !strings.Contains(m.Subject, "valid for 10 minutes") {
		t.Errorf("Subject = %q", m.Subject)
	}
	if !strings.Contains(m.HTMLBody, url) {
		t.Errorf("HTMLBody = %q; missing the reset URL", m.HTMLBody)
	}
}

func TestLogProvider_DropsMessage(t *testing.T) {
	p := LogProvider{}
	err := p.Send(context.Background(), Message{
		To:       []string{"leo@example.com"},
		Subject:  "hello",
		TextBody: "hi",
	})
	if err != nil {
		t.Errorf("LogProvider.Send: %v", err)
	}
}

func TestMessageNormalizeAndValidate(t *testing.T) {
	m := Message{
		From:    "  admin@tourbase.dev  ",
		To:      []string{" leo@example.com ", "LEO@example.com", "", "other@example.com"},
		Subject: "  hello  ",
	}
	n := m.normalized()

	if n.From != "admin@tourbase.dev" || n.Subject != "hello" {
		t.Errorf("normalized = %+v", n)
	}
	if len(n.To) != 2 {
		t.Errorf("To = %v; want case-insensitive dedup", n.To)
	}

	if err := n.validate(); err == nil {
		t.Error("a message without a body should not validate")
	}
	n.TextBody = "hi"
	if err := n.validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
	if err := (Message{Subject: "x", TextBody: "y"}).validate(); err == nil {
		t.Error("a message without recipients should not validate")
	}
}

func TestBuildMIMEMessage(t *testing.T) {
	raw := string(buildMIMEMessage(Message{
		From:     "admin@tourbase.dev",
		To:       []string{"leo@example.com"},
		Subject:  "hello",
		TextBody: "plain part",
		HTMLBody: "<p>html part</p>",
	}))

	for _, want := range []string{
		"From: admin@tourbase.dev",
		"To: leo@example.com",
		"Subject: hello",
		"multipart/alternative",
		"plain part",
		"<p>html part</p>",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("MIME message missing %q", want)
		}
	}

	textOnly := string(buildMIMEMessage(Message{
		From: "a@b.c", To: []string{"d@e.f"}, Subject: "s", TextBody: "just text",
	}))
	if strings.Contains(textOnly, "multipart") {
		t.Error("single-part message rendered as multipart")
	}
	if !strings.Contains(textOnly, "text/plain") {
		t.Error("text-only message missing text/plain content type")
	}
}
