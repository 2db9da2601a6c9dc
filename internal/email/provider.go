// Package email delivers transactional mail through a pluggable provider.
// Failures are surfaced as server faults without leaking transport
// credentials; non-critical mail such as the welcome message is best-effort.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider is a pluggable email sender implementation.
type Provider interface {
	Send(ctx context.Context, message Message) error
}

// Message is the normalized email payload accepted by all providers.
type Message struct {
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

func (m Message) normalized() Message {
	cp := m
	cp.From = strings.TrimSpace(cp.From)
	cp.Subject = strings.TrimSpace(cp.Subject)
	cp.To = normalizeRecipients(cp.To)
	return cp
}

func (m Message) validate() error {
	if len(m.To) == 0 {
		return errors.New("at least one recipient is required")
	}
	if m.Subject == "" {
		return errors.New("email subject is required")
	}
	if strings.TrimSpace(m.TextBody) == "" && strings.TrimSpace(m.HTMLBody) == "" {
		return errors.New("email body is required (text or html)")
	}
	return nil
}

func normalizeRecipients(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, value := range list {
		addr := strings.TrimSpace(value)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}

func applyDefaultSender(message Message, defaultFrom string) (Message, error) {
	if message.From != "" {
		return message, nil
	}
	defaultFrom = strings.TrimSpace(defaultFrom)
	if defaultFrom == "" {
		return Message{}, fmt.Errorf("message.from is required when provider default sender is empty")
	}
	message.From = defaultFrom
	return message, nil
}

// buildMIMEMessage renders the message as a multipart/alternative MIME body
// when both text and HTML parts are present, or a single-part body otherwise.
func buildMIMEMessage(m Message) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(m.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case m.TextBody != "" && m.HTMLBody != "":
		const boundary = "tourbase-mime-boundary"
		fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, m.TextBody)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, m.HTMLBody)
		fmt.Fprintf(&b, "--%s--\r\n", boundary)
	case m.HTMLBody != "":
		fmt.Fprintf(&b, "Content-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", m.HTMLBody)
	default:
		fmt.Fprintf(&b, "Content-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", m.TextBody)
	}

	return []byte(b.String())
}
