package settings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"civic-watch/incident-reports-backend/internal/audit"
)

// UpdateScheduleConfigRequest is the admin input for the schedule settings.
type UpdateScheduleConfigRequest struct {
	Enabled        bool     `json:"enabled"`
	GenerationTime string   `json:"generation_time"`
	Recipients     []string `json:"recipients"`
	OutputPath     string   `json:"output_path"`
}

// UpdateAiProviderConfigRequest is the admin input for the AI settings. An
// empty APIKey keeps the stored secret.
type UpdateAiProviderConfigRequest struct {
	Provider               AiProvider `json:"provider"`
	Model                  string     `json:"model"`
	APIKey                 string     `json:"api_key"`
	Endpoint               string     `json:"endpoint"`
	MaxTokens              int        `json:"max_tokens"`
	Temperature            float64    `json:"temperature"`
	MaxRecordsForNarrative int        `json:"max_records_for_narrative"`
}

// UpdateEmailProviderConfigRequest is the admin input for the email settings.
// Empty secret fields keep the stored secrets.
type UpdateEmailProviderConfigRequest struct {
	Provider      EmailProvider `json:"provider"`
	Enabled       bool          `json:"enabled"`
	FromAddress   string        `json:"from_address"`
	FromName      string        `json:"from_name"`
	SMTPHost      string        `json:"smtp_host"`
	SMTPPort      int           `json:"smtp_port"`
	SMTPUser      string        `json:"smtp_user"`
	SMTPPassword  string        `json:"smtp_password"`
	APIKey        string        `json:"api_key"`
	MailgunDomain string        `json:"mailgun_domain"`
	MailgunRegion MailgunRegion `json:"mailgun_region"`
}

// Service provides the admin-facing configuration boundary. Every write is
// validated in full before persistence; no partially-applied configuration is
// ever stored. Pipeline runs read snapshots through the Get methods.
type Service struct {
	repo   Repository
	audit  audit.Sink
	logger *zap.Logger
}

// NewService creates a new settings service
func NewService(repo Repository, auditSink audit.Sink, logger *zap.Logger) *Service {
	return &Service{repo: repo, audit: auditSink, logger: logger}
}

// GetScheduleConfig returns the current schedule configuration snapshot.
func (s *Service) GetScheduleConfig(ctx context.Context) (*ScheduleConfig, error) {
	return s.repo.GetScheduleConfig(ctx)
}

// GetAiProviderConfig returns the current AI configuration snapshot.
func (s *Service) GetAiProviderConfig(ctx context.Context) (*AiProviderConfig, error) {
	return s.repo.GetAiProviderConfig(ctx)
}

// GetEmailProviderConfig returns the current email configuration snapshot.
func (s *Service) GetEmailProviderConfig(ctx context.Context) (*EmailProviderConfig, error) {
	return s.repo.GetEmailProviderConfig(ctx)
}

// UpdateScheduleConfig validates and persists the schedule configuration on
// behalf of actor.
func (s *Service) UpdateScheduleConfig(ctx context.Context, actor uuid.UUID, req *UpdateScheduleConfigRequest) (*ScheduleConfig, error) {
	current, err := s.repo.GetScheduleConfig(ctx)
	if err != nil {
		return nil, err
	}

	cfg := *current
	cfg.Enabled = req.Enabled
	cfg.GenerationTime = req.GenerationTime
	cfg.Recipients = NormalizeRecipients(req.Recipients)
	cfg.OutputPath = req.OutputPath
	cfg.UpdatedAt = time.Now()
	cfg.UpdatedBy = &actor

	if err := ValidateScheduleConfig(&cfg); err != nil {
		return nil, err
	}

	if err := s.repo.SaveScheduleConfig(ctx, &cfg); err != nil {
		return nil, err
	}

	s.logger.Info("Schedule config updated",
		zap.Bool("enabled", cfg.Enabled),
		zap.String("generation_time", cfg.GenerationTime),
		zap.Int("recipients", len(cfg.Recipients)))
	s.audit.LogEvent(ctx, audit.Event{
		Code:         audit.CodeConfigUpdated,
		RelatedID:    &cfg.ID,
		RelatedTable: cfg.TableName(),
		Detail:       "schedule",
		Actor:        actor.String(),
	})

	return &cfg, nil
}

// UpdateAiProviderConfig validates and persists the AI provider
// configuration. An empty incoming API key inherits the stored one, so admins
// can update settings without resupplying the secret.
func (s *Service) UpdateAiProviderConfig(ctx context.Context, actor uuid.UUID, req *UpdateAiProviderConfigRequest) (*AiProviderConfig, error) {
	current, err := s.repo.GetAiProviderConfig(ctx)
	if err != nil {
		return nil, err
	}

	cfg := *current
	cfg.Provider = req.Provider
	cfg.Model = req.Model
	cfg.Endpoint = req.Endpoint
	cfg.MaxTokens = req.MaxTokens
	cfg.Temperature = req.Temperature
	cfg.MaxRecordsForNarrative = req.MaxRecordsForNarrative
	if req.APIKey != "" {
		cfg.APIKey = req.APIKey
	}
	cfg.UpdatedAt = time.Now()
	cfg.UpdatedBy = &actor

	if err := ValidateAiProviderConfig(&cfg); err != nil {
		return nil, err
	}

	if err := s.repo.SaveAiProviderConfig(ctx, &cfg); err != nil {
		return nil, err
	}

	s.logger.Info("AI provider config updated",
		zap.String("provider", string(cfg.Provider)),
		zap.String("model", cfg.Model))
	s.audit.LogEvent(ctx, audit.Event{
		Code:         audit.CodeConfigUpdated,
		RelatedID:    &cfg.ID,
		RelatedTable: cfg.TableName(),
		Detail:       "ai_provider",
		Actor:        actor.String(),
	})

	return &cfg, nil
}

// UpdateEmailProviderConfig validates and persists the email provider
// configuration. Empty incoming secrets inherit the stored ones.
func (s *Service) UpdateEmailProviderConfig(ctx context.Context, actor uuid.UUID, req *UpdateEmailProviderConfigRequest) (*EmailProviderConfig, error) {
	current, err := s.repo.GetEmailProviderConfig(ctx)
	if err != nil {
		return nil, err
	}

	cfg := *current
	cfg.Provider = req.Provider
	cfg.Enabled = req.Enabled
	cfg.FromAddress = req.FromAddress
	cfg.FromName = req.FromName
	cfg.SMTPHost = req.SMTPHost
	cfg.SMTPPort = req.SMTPPort
	cfg.SMTPUser = req.SMTPUser
	cfg.MailgunDomain = req.MailgunDomain
	cfg.MailgunRegion = req.MailgunRegion
	if req.SMTPPassword != "" {
		cfg.SMTPPassword = req.SMTPPassword
	}
	if req.APIKey != "" {
		cfg.APIKey = req.APIKey
	}
	cfg.UpdatedAt = time.Now()
	cfg.UpdatedBy = &actor

	if err := ValidateEmailProviderConfig(&cfg); err != nil {
		return nil, err
	}

	if err := s.repo.SaveEmailProviderConfig(ctx, &cfg); err != nil {
		return nil, err
	}

	s.logger.Info("Email provider config updated",
		zap.String("provider", string(cfg.Provider)),
		zap.Bool("enabled", cfg.Enabled))
	s.audit.LogEvent(ctx, audit.Event{
		Code:         audit.CodeConfigUpdated,
		RelatedID:    &cfg.ID,
		RelatedTable: cfg.TableName(),
		Detail:       "email_provider",
		Actor:        actor.String(),
	})

	return &cfg, nil
}

// RecordEmailTestResult stores the outcome of an explicit configuration test
// send. Only the test-result fields are touched.
func (s *Service) RecordEmailTestResult(ctx context.Context, result EmailTestResult) error {
	cfg, err := s.repo.GetEmailProviderConfig(ctx)
	if err != nil {
		return err
	}

	testedAt := result.TestedAt
	cfg.LastTestedAt = &testedAt
	success := result.Success
	cfg.LastTestSuccess = &success
	if result.Error != "" {
		errMsg := result.Error
		cfg.LastTestError = &errMsg
	} else {
		cfg.LastTestError = nil
	}

	return s.repo.SaveEmailProviderConfig(ctx, cfg)
}
