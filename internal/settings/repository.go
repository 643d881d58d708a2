package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines data access for the three configuration entities. Each
// entity is a single row; Get methods return defaults when nothing is stored
// yet.
type Repository interface {
	GetScheduleConfig(ctx context.Context) (*ScheduleConfig, error)
	SaveScheduleConfig(ctx context.Context, cfg *ScheduleConfig) error
	GetAiProviderConfig(ctx context.Context) (*AiProviderConfig, error)
	SaveAiProviderConfig(ctx context.Context, cfg *AiProviderConfig) error
	GetEmailProviderConfig(ctx context.Context) (*EmailProviderConfig, error)
	SaveEmailProviderConfig(ctx context.Context, cfg *EmailProviderConfig) error
}

// GormRepository implements Repository using gorm
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new settings repository
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) GetScheduleConfig(ctx context.Context) (*ScheduleConfig, error) {
	var cfg ScheduleConfig
	err := r.db.WithContext(ctx).Order("updated_at DESC").First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defaultScheduleConfig(), nil
		}
		return nil, fmt.Errorf("failed to load schedule config: %w", err)
	}
	return &cfg, nil
}

func (r *GormRepository) SaveScheduleConfig(ctx context.Context, cfg *ScheduleConfig) error {
	if err := r.db.WithContext(ctx).Save(cfg).Error; err != nil {
		return fmt.Errorf("failed to save schedule config: %w", err)
	}
	return nil
}

func (r *GormRepository) GetAiProviderConfig(ctx context.Context) (*AiProviderConfig, error) {
	var cfg AiProviderConfig
	err := r.db.WithContext(ctx).Order("updated_at DESC").First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defaultAiProviderConfig(), nil
		}
		return nil, fmt.Errorf("failed to load AI provider config: %w", err)
	}
	return &cfg, nil
}

func (r *GormRepository) SaveAiProviderConfig(ctx context.Context, cfg *AiProviderConfig) error {
	if err := r.db.WithContext(ctx).Save(cfg).Error; err != nil {
		return fmt.Errorf("failed to save AI provider config: %w", err)
	}
	return nil
}

func (r *GormRepository) GetEmailProviderConfig(ctx context.Context) (*EmailProviderConfig, error) {
	var cfg EmailProviderConfig
	err := r.db.WithContext(ctx).Order("updated_at DESC").First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defaultEmailProviderConfig(), nil
		}
		return nil, fmt.Errorf("failed to load email provider config: %w", err)
	}
	return &cfg, nil
}

func (r *GormRepository) SaveEmailProviderConfig(ctx context.Context, cfg *EmailProviderConfig) error {
	if err := r.db.WithContext(ctx).Save(cfg).Error; err != nil {
		return fmt.Errorf("failed to save email provider config: %w", err)
	}
	return nil
}

func defaultScheduleConfig() *ScheduleConfig {
	return &ScheduleConfig{
		ID:             uuid.New(),
		Enabled:        false,
		GenerationTime: "06:00:00",
		Recipients:     nil,
		OutputPath:     "reports",
	}
}

func defaultAiProviderConfig() *AiProviderConfig {
	return &AiProviderConfig{
		ID:                     uuid.New(),
		Provider:               AiProviderOllama,
		Model:                  "llama3",
		Endpoint:               "http://localhost:11434",
		MaxTokens:              2000,
		Temperature:            0.7,
		MaxRecordsForNarrative: 100,
	}
}

func defaultEmailProviderConfig() *EmailProviderConfig {
	return &EmailProviderConfig{
		ID:       uuid.New(),
		Provider: EmailProviderSMTP,
		Enabled:  false,
		SMTPPort: 587,
	}
}
