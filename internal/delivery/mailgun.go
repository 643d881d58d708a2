package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"civic-watch/incident-reports-backend/internal/settings"
)

const (
	mailgunBaseURL   = "https://api.mailgun.net"
	mailgunBaseURLEU = "https://api.eu.mailgun.net"
)

// MailgunSender delivers mail through the Mailgun messages API.
type MailgunSender struct {
	baseURL    string
	domain     string
	apiKey     string
	from       string
	fromName   string
	httpClient *http.Client
}

// NewMailgunSender creates a new Mailgun sender
func NewMailgunSender(cfg settings.EmailProviderConfig) *MailgunSender {
	baseURL := mailgunBaseURL
	if cfg.MailgunRegion == settings.MailgunRegionEU {
		baseURL = mailgunBaseURLEU
	}
	return &MailgunSender{
		baseURL:  baseURL,
		domain:   cfg.MailgunDomain,
		apiKey:   cfg.APIKey,
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *MailgunSender) Send(ctx context.Context, msg Message) error {
	if len(msg.Recipients) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	from := s.from
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.from)
	}
	if err := form.WriteField("from", from); err != nil {
		return fmt.Errorf("failed to build mailgun form: %w", err)
	}
	for _, recipient := range msg.Recipients {
		if err := form.WriteField("to", recipient); err != nil {
			return fmt.Errorf("failed to build mailgun form: %w", err)
		}
	}
	if err := form.WriteField("subject", msg.Subject); err != nil {
		return fmt.Errorf("failed to build mailgun form: %w", err)
	}
	if err := form.WriteField("text", msg.Body); err != nil {
		return fmt.Errorf("failed to build mailgun form: %w", err)
	}
	for _, attachment := range msg.Attachments {
		part, err := form.CreateFormFile("attachment", attachment.Name)
		if err != nil {
			return fmt.Errorf("failed to attach %s: %w", attachment.Name, err)
		}
		if _, err := part.Write(attachment.Data); err != nil {
			return fmt.Errorf("failed to attach %s: %w", attachment.Name, err)
		}
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("failed to finalize mailgun form: %w", err)
	}

	url := fmt.Sprintf("%s/v3/%s/messages", s.baseURL, s.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("failed to create mailgun request: %w", err)
	}
	req.SetBasicAuth("api", s.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mailgun request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mailgun returned status %d: %s", resp.StatusCode, string(detail))
	}

	return nil
}
