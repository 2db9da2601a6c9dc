package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SendGridConfig configures the SendGrid adapter.
type SendGridConfig struct {
	APIKey     string
	From       string
	BaseURL    string
	HTTPClient *http.Client
}

// SendGridProvider sends email through the SendGrid v3 API. It is the
// production transport.
type SendGridProvider struct {
	cfg        SendGridConfig
	httpClient *http.Client
}

// NewSendGridProvider creates a SendGrid adapter.
func NewSendGridProvider(cfg SendGridConfig) (*SendGridProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &SendGridProvider{
		cfg:        cfg,
		httpClient: httpClient,
	}, nil
}

// Send sends email via SendGrid.
func (p *SendGridProvider) Send(ctx context.Context, message Message) error {
	msg := message.normalized()
	msg, err := applyDefaultSender(msg, p.cfg.From)
	if err != nil {
		return err
	}
	if err := msg.validate(); err != nil {
		return err
	}

	payload := map[string]any{
		"personalizations": []map[string]any{
			{"to": mapRecipients(msg.To)},
		},
		"from":    map[string]string{"email": msg.From},
		"subject": msg.Subject,
		"content": mapContent(msg),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := strings.TrimRight(p.cfg.BaseURL, "/") + "/v3/mail/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		// Drain a bounded amount of the body for the status line only; the
		// response may echo request headers, which must not be logged.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return fmt.Errorf("sendgrid delivery failed: status %d", resp.StatusCode)
	}
	return nil
}

func mapRecipients(addresses []string) []map[string]string {
	out := make([]map[string]string, 0, len(addresses))
	for _, addr := range addresses {
		out = append(out, map[string]string{"email": addr})
	}
	return out
}

// mapContent orders parts text-first; SendGrid requires text/plain before
// text/html.
func mapContent(m Message) []map[string]string {
	var content []map[string]string
	if m.TextBody != "" {
		content = append(content, map[string]string{"type": "text/plain", "value": m.TextBody})
	}
	if m.HTMLBody != "" {
		content = append(content, map[string]string{"type": "text/html", "value": m.HTMLBody})
	}
	return content
}
