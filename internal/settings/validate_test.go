package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(err error) []string {
	verr, ok := err.(*ValidationError)
	if !ok {
		return nil
	}
	names := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		names[i] = f.Field
	}
	return names
}

func TestNormalizeRecipients(t *testing.T) {
	got := NormalizeRecipients([]string{" a@b.com ", "", "c@d.com", "a@b.com", "  "})
	assert.Equal(t, []string{"a@b.com", "c@d.com"}, got)
}

func TestValidateScheduleConfigEnabledNeedsRecipients(t *testing.T) {
	cfg := &ScheduleConfig{Enabled: true, GenerationTime: "06:00:00"}
	err := ValidateScheduleConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, fieldNames(err), "recipients")
}

func TestValidateScheduleConfigGenerationTime(t *testing.T) {
	for _, bad := range []string{"", "24:00:00", "9am", "25:61:00"} {
		cfg := &ScheduleConfig{Enabled: false, GenerationTime: bad}
		assert.Error(t, ValidateScheduleConfig(cfg), "generation time %q", bad)
	}

	cfg := &ScheduleConfig{Enabled: false, GenerationTime: "23:59:59"}
	assert.NoError(t, ValidateScheduleConfig(cfg))
}

func TestValidateAiProviderConfigListsAllViolations(t *testing.T) {
	cfg := &AiProviderConfig{
		Provider:               AiProviderOpenAI,
		Model:                  "",
		APIKey:                 "",
		MaxTokens:              100,     // below minimum
		Temperature:            3.5,     // above maximum
		MaxRecordsForNarrative: 5000,    // above cap
	}

	err := ValidateAiProviderConfig(cfg)
	require.Error(t, err)

	names := fieldNames(err)
	assert.Contains(t, names, "api_key")
	assert.Contains(t, names, "model")
	assert.Contains(t, names, "max_tokens")
	assert.Contains(t, names, "temperature")
	assert.Contains(t, names, "max_records_for_narrative")
}

func TestValidateAiProviderConfigProviderRequirements(t *testing.T) {
	base := AiProviderConfig{
		Model:                  "gpt-4o",
		MaxTokens:              2000,
		Temperature:            0.7,
		MaxRecordsForNarrative: 100,
	}

	azure := base
	azure.Provider = AiProviderAzureOpenAI
	azure.APIKey = "key"
	err := ValidateAiProviderConfig(&azure)
	require.Error(t, err)
	assert.Contains(t, fieldNames(err), "endpoint")

	ollama := base
	ollama.Provider = AiProviderOllama
	ollama.Endpoint = "http://localhost:11434"
	assert.NoError(t, ValidateAiProviderConfig(&ollama))

	openai := base
	openai.Provider = AiProviderOpenAI
	openai.APIKey = "sk-test"
	assert.NoError(t, ValidateAiProviderConfig(&openai))
}

func TestValidateEmailProviderConfigSMTPMissingHostAndPort(t *testing.T) {
	cfg := &EmailProviderConfig{
		Provider:    EmailProviderSMTP,
		Enabled:     true,
		FromAddress: "reportes@ejemplo.org",
		FromName:    "Reportes",
		SMTPHost:    "",
		SMTPPort:    0,
	}

	err := ValidateEmailProviderConfig(cfg)
	require.Error(t, err)

	names := fieldNames(err)
	assert.Contains(t, names, "smtp_host")
	assert.Contains(t, names, "smtp_port")
	assert.GreaterOrEqual(t, len(names), 2)
}

func TestValidateEmailProviderConfigDisabledSkipsChecks(t *testing.T) {
	cfg := &EmailProviderConfig{Provider: EmailProviderSMTP, Enabled: false}
	assert.NoError(t, ValidateEmailProviderConfig(cfg))
}

func TestValidateEmailProviderConfigMailgun(t *testing.T) {
	cfg := &EmailProviderConfig{
		Provider:    EmailProviderMailgun,
		Enabled:     true,
		FromAddress: "reportes@ejemplo.org",
		FromName:    "Reportes",
	}

	err := ValidateEmailProviderConfig(cfg)
	require.Error(t, err)

	names := fieldNames(err)
	assert.Contains(t, names, "api_key")
	assert.Contains(t, names, "mailgun_domain")
	assert.Contains(t, names, "mailgun_region")
}
