package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"civic-watch/incident-reports-backend/internal/settings"
)

const sendGridEndpoint = "https://api.sendgrid.com/v3/mail/send"

// SendGridSender delivers mail through the SendGrid v3 API.
type SendGridSender struct {
	endpoint   string
	apiKey     string
	from       string
	fromName   string
	httpClient *http.Client
}

// NewSendGridSender creates a new SendGrid sender
func NewSendGridSender(cfg settings.EmailProviderConfig) *SendGridSender {
	return &SendGridSender{
		endpoint: sendGridEndpoint,
		apiKey:   cfg.APIKey,
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridAttachment struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
	Type     string `json:"type,omitempty"`
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
	Attachments      []sendGridAttachment      `json:"attachments,omitempty"`
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	if len(msg.Recipients) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	to := make([]sendGridAddress, 0, len(msg.Recipients))
	for _, recipient := range msg.Recipients {
		to = append(to, sendGridAddress{Email: recipient})
	}

	payload := sendGridRequest{
		Personalizations: []sendGridPersonalization{{To: to}},
		From:             sendGridAddress{Email: s.from, Name: s.fromName},
		Subject:          msg.Subject,
		Content:          []sendGridContent{{Type: "text/plain", Value: msg.Body}},
	}
	for _, attachment := range msg.Attachments {
		payload.Attachments = append(payload.Attachments, sendGridAttachment{
			Content:  base64.StdEncoding.EncodeToString(attachment.Data),
			Filename: attachment.Name,
			Type:     attachment.ContentType,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal sendgrid request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create sendgrid request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, string(detail))
	}

	return nil
}
