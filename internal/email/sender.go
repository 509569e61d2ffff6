// Package email renders and delivers transactional email.
package email

import (
	"context"
	"fmt"

	"headwear_backend/platform/config"
)

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte `json:"content"`  // raw file bytes (will be base64-encoded for Brevo)
	FileName string `json:"fileName"` // e.g. "quote-3f2a.pdf"
	MIMEType string `json:"mimeType"` // e.g. "application/pdf"
}

// Message is a rendered email ready for delivery. It is serializable so it
// can travel through the task queue.
type Message struct {
	To          string       `json:"to"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NoopSender drops every message. Used when email is disabled.
type NoopSender struct{}

func (NoopSender) Send(context.Context, Message) error {
	return nil
}

// SenderConfig is what NewSender reads.
type SenderConfig interface {
	config.EmailConfig
	config.SMTPConfig
}

// NewSender picks the delivery provider from configuration.
func NewSender(cfg SenderConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	switch cfg.GetEmailProvider() {
	case "brevo":
		return NewBrevoSender(cfg.GetBrevoAPIKey(), cfg.GetEmailFromAddress(), cfg.GetEmailFromName()), nil
	case "smtp", "":
		return NewSMTPSender(
			cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
			cfg.GetEmailFromAddress(), cfg.GetEmailFromName(), cfg.GetSMTPUseTLS(),
		), nil
	default:
		return nil, fmt.Errorf("unsupported email provider %q", cfg.GetEmailProvider())
	}
}
