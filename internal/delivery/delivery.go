package delivery

import (
	"context"
	"fmt"
	"time"

	"civic-watch/incident-reports-backend/internal/settings"
)

// Attachment represents an email attachment
type Attachment struct {
	Name        string
	Data        []byte
	ContentType string
}

// Message is a single outgoing email.
type Message struct {
	Recipients  []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Sender delivers one message per call. Implementations make a single
// attempt: retrying is a caller-level decision.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender builds the provider selected by the email configuration
// snapshot. The configuration is assumed validated at the configuration
// boundary.
func NewSender(cfg settings.EmailProviderConfig) (Sender, error) {
	switch cfg.Provider {
	case settings.EmailProviderSMTP:
		return NewSMTPSender(cfg), nil
	case settings.EmailProviderSendGrid:
		return NewSendGridSender(cfg), nil
	case settings.EmailProviderMailgun:
		return NewMailgunSender(cfg), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// TestSend sends a short configuration test message to a single recipient.
// It exists purely for configuration validation: callers store the result on
// the email configuration and nowhere else.
func TestSend(ctx context.Context, sender Sender, recipient string) settings.EmailTestResult {
	result := settings.EmailTestResult{TestedAt: time.Now()}

	err := sender.Send(ctx, Message{
		Recipients: []string{recipient},
		Subject:    "Prueba de configuración de correo",
		Body:       "Este es un mensaje de prueba del sistema de reportes de incidentes.",
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	return result
}
