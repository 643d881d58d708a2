package settings

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"
)

// FieldError describes one violated constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated constraint of a configuration
// write, not just the first one.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NormalizeRecipients trims whitespace, drops empty entries and de-duplicates
// while preserving order.
func NormalizeRecipients(recipients []string) []string {
	seen := make(map[string]struct{}, len(recipients))
	result := make([]string, 0, len(recipients))
	for _, r := range recipients {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		result = append(result, r)
	}
	return result
}

// ValidateScheduleConfig checks a schedule configuration. Recipients are
// expected to be normalized already.
func ValidateScheduleConfig(cfg *ScheduleConfig) error {
	verr := &ValidationError{}

	if _, err := time.Parse("15:04:05", cfg.GenerationTime); err != nil {
		verr.add("generation_time", "must be a time of day in HH:MM:SS format")
	}

	if cfg.Enabled && len(cfg.Recipients) == 0 {
		verr.add("recipients", "at least one recipient is required when the schedule is enabled")
	}
	for _, r := range cfg.Recipients {
		if _, err := mail.ParseAddress(r); err != nil {
			verr.add("recipients", fmt.Sprintf("%q is not a valid email address", r))
		}
	}

	return verr.orNil()
}

// ValidateAiProviderConfig checks an AI provider configuration after secret
// merging, so APIKey reflects the effective stored value.
func ValidateAiProviderConfig(cfg *AiProviderConfig) error {
	verr := &ValidationError{}

	switch cfg.Provider {
	case AiProviderOpenAI:
		if cfg.APIKey == "" {
			verr.add("api_key", "API key is required for OpenAI")
		}
	case AiProviderAzureOpenAI:
		if cfg.APIKey == "" {
			verr.add("api_key", "API key is required for Azure OpenAI")
		}
		if !isValidURL(cfg.Endpoint) {
			verr.add("endpoint", "a valid endpoint URL is required for Azure OpenAI")
		}
	case AiProviderLocal, AiProviderOllama:
		if !isValidURL(cfg.Endpoint) {
			verr.add("endpoint", "a valid local endpoint URL is required")
		}
	default:
		verr.add("provider", fmt.Sprintf("unknown provider %q", cfg.Provider))
	}

	if strings.TrimSpace(cfg.Model) == "" {
		verr.add("model", "model is required")
	}
	if cfg.MaxTokens < MinMaxTokens || cfg.MaxTokens > MaxMaxTokens {
		verr.add("max_tokens", fmt.Sprintf("must be between %d and %d", MinMaxTokens, MaxMaxTokens))
	}
	if cfg.Temperature < MinTemperature || cfg.Temperature > MaxTemperature {
		verr.add("temperature", fmt.Sprintf("must be between %.1f and %.1f", MinTemperature, MaxTemperature))
	}
	if cfg.MaxRecordsForNarrative < 0 || cfg.MaxRecordsForNarrative > MaxRecordsForNarrativeCap {
		verr.add("max_records_for_narrative", fmt.Sprintf("must be between 0 and %d", MaxRecordsForNarrativeCap))
	}

	return verr.orNil()
}

// ValidateEmailProviderConfig checks an email provider configuration after
// secret merging. Provider requirements apply only when delivery is enabled.
func ValidateEmailProviderConfig(cfg *EmailProviderConfig) error {
	verr := &ValidationError{}

	if !cfg.Enabled {
		return verr.orNil()
	}

	if cfg.FromAddress == "" {
		verr.add("from_address", "sender address is required")
	} else if _, err := mail.ParseAddress(cfg.FromAddress); err != nil {
		verr.add("from_address", "sender address is not a valid email address")
	}
	if strings.TrimSpace(cfg.FromName) == "" {
		verr.add("from_name", "sender name is required")
	}

	switch cfg.Provider {
	case EmailProviderSMTP:
		if strings.TrimSpace(cfg.SMTPHost) == "" {
			verr.add("smtp_host", "SMTP host is required")
		}
		if cfg.SMTPPort < 1 || cfg.SMTPPort > 65535 {
			verr.add("smtp_port", "SMTP port must be between 1 and 65535")
		}
	case EmailProviderSendGrid:
		if cfg.APIKey == "" {
			verr.add("api_key", "API key is required for SendGrid")
		}
	case EmailProviderMailgun:
		if cfg.APIKey == "" {
			verr.add("api_key", "API key is required for Mailgun")
		}
		if strings.TrimSpace(cfg.MailgunDomain) == "" {
			verr.add("mailgun_domain", "Mailgun domain is required")
		}
		if cfg.MailgunRegion != MailgunRegionUS && cfg.MailgunRegion != MailgunRegionEU {
			verr.add("mailgun_region", "Mailgun region must be us or eu")
		}
	default:
		verr.add("provider", fmt.Sprintf("unknown provider %q", cfg.Provider))
	}

	return verr.orNil()
}

func isValidURL(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	return err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
