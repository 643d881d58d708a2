package settings

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// AiProvider identifies the narrative generation backend.
type AiProvider string

const (
	AiProviderOpenAI      AiProvider = "openai"
	AiProviderAzureOpenAI AiProvider = "azure_openai"
	AiProviderLocal       AiProvider = "local"
	AiProviderOllama      AiProvider = "ollama"
)

// EmailProvider identifies the delivery backend.
type EmailProvider string

const (
	EmailProviderSMTP     EmailProvider = "smtp"
	EmailProviderSendGrid EmailProvider = "sendgrid"
	EmailProviderMailgun  EmailProvider = "mailgun"
)

// MailgunRegion selects the Mailgun API endpoint.
type MailgunRegion string

const (
	MailgunRegionUS MailgunRegion = "us"
	MailgunRegionEU MailgunRegion = "eu"
)

// Numeric bounds enforced at the configuration boundary.
const (
	MinMaxTokens              = 500
	MaxMaxTokens              = 128000
	MinTemperature            = 0.0
	MaxTemperature            = 2.0
	MaxRecordsForNarrativeCap = 1000
)

// ScheduleConfig controls the daily scheduled report run.
type ScheduleConfig struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Enabled        bool           `json:"enabled"`
	GenerationTime string         `json:"generation_time"` // "HH:MM:SS", [00:00:00, 24:00:00)
	Recipients     pq.StringArray `json:"recipients" gorm:"type:text[]"`
	OutputPath     string         `json:"output_path"`
	UpdatedAt      time.Time      `json:"updated_at"`
	UpdatedBy      *uuid.UUID     `json:"updated_by,omitempty" gorm:"type:uuid"`
}

// TableName overrides the gorm table name
func (ScheduleConfig) TableName() string {
	return "schedule_configs"
}

// AiProviderConfig holds narrative generation settings.
type AiProviderConfig struct {
	ID                     uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Provider               AiProvider `json:"provider"`
	Model                  string     `json:"model"`
	APIKey                 string     `json:"-" gorm:"column:api_key"`
	Endpoint               string     `json:"endpoint"`
	MaxTokens              int        `json:"max_tokens"`
	Temperature            float64    `json:"temperature"`
	MaxRecordsForNarrative int        `json:"max_records_for_narrative"`
	UpdatedAt              time.Time  `json:"updated_at"`
	UpdatedBy              *uuid.UUID `json:"updated_by,omitempty" gorm:"type:uuid"`
}

// TableName overrides the gorm table name
func (AiProviderConfig) TableName() string {
	return "ai_provider_configs"
}

// EmailProviderConfig holds delivery settings. The LastTest* fields are set
// only by the explicit test-send operation, never by the pipeline.
type EmailProviderConfig struct {
	ID              uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	Provider        EmailProvider `json:"provider"`
	Enabled         bool          `json:"enabled"`
	FromAddress     string        `json:"from_address"`
	FromName        string        `json:"from_name"`
	SMTPHost        string        `json:"smtp_host"`
	SMTPPort        int           `json:"smtp_port"`
	SMTPUser        string        `json:"smtp_user"`
	SMTPPassword    string        `json:"-" gorm:"column:smtp_password"`
	APIKey          string        `json:"-" gorm:"column:api_key"`
	MailgunDomain   string        `json:"mailgun_domain"`
	MailgunRegion   MailgunRegion `json:"mailgun_region"`
	LastTestedAt    *time.Time    `json:"last_tested_at,omitempty"`
	LastTestSuccess *bool         `json:"last_test_success,omitempty"`
	LastTestError   *string       `json:"last_test_error,omitempty"`
	UpdatedAt       time.Time     `json:"updated_at"`
	UpdatedBy       *uuid.UUID    `json:"updated_by,omitempty" gorm:"type:uuid"`
}

// TableName overrides the gorm table name
func (EmailProviderConfig) TableName() string {
	return "email_provider_configs"
}

// EmailTestResult is the outcome of a configuration test send.
type EmailTestResult struct {
	Success  bool      `json:"success"`
	Error    string    `json:"error,omitempty"`
	TestedAt time.Time `json:"tested_at"`
}
