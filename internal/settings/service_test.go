package settings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"civic-watch/incident-reports-backend/internal/audit"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetScheduleConfig(ctx context.Context) (*ScheduleConfig, error) {
	args := m.Called(ctx)
	return args.Get(0).(*ScheduleConfig), args.Error(1)
}

func (m *MockRepository) SaveScheduleConfig(ctx context.Context, cfg *ScheduleConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockRepository) GetAiProviderConfig(ctx context.Context) (*AiProviderConfig, error) {
	args := m.Called(ctx)
	return args.Get(0).(*AiProviderConfig), args.Error(1)
}

func (m *MockRepository) SaveAiProviderConfig(ctx context.Context, cfg *AiProviderConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockRepository) GetEmailProviderConfig(ctx context.Context) (*EmailProviderConfig, error) {
	args := m.Called(ctx)
	return args.Get(0).(*EmailProviderConfig), args.Error(1)
}

func (m *MockRepository) SaveEmailProviderConfig(ctx context.Context, cfg *EmailProviderConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func TestUpdateEmailProviderConfigKeepsStoredSecret(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, audit.NopSink{}, zap.NewNop())
	ctx := context.Background()

	stored := &EmailProviderConfig{
		ID:          uuid.New(),
		Provider:    EmailProviderSendGrid,
		Enabled:     true,
		FromAddress: "reportes@ejemplo.org",
		FromName:    "Reportes",
		APIKey:      "SG.stored-key",
	}
	mockRepo.On("GetEmailProviderConfig", ctx).Return(stored, nil)
	mockRepo.On("SaveEmailProviderConfig", ctx, mock.AnythingOfType("*settings.EmailProviderConfig")).Return(nil)

	// Update without resupplying the API key.
	updated, err := service.UpdateEmailProviderConfig(ctx, uuid.New(), &UpdateEmailProviderConfigRequest{
		Provider:    EmailProviderSendGrid,
		Enabled:     true,
		FromAddress: "reportes@ejemplo.org",
		FromName:    "Observatorio",
	})

	require.NoError(t, err)
	assert.Equal(t, "SG.stored-key", updated.APIKey)
	assert.Equal(t, "Observatorio", updated.FromName)
	mockRepo.AssertExpectations(t)
}

func TestUpdateEmailProviderConfigRejectionBlocksWrite(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, audit.NopSink{}, zap.NewNop())
	ctx := context.Background()

	stored := &EmailProviderConfig{ID: uuid.New(), Provider: EmailProviderSMTP}
	mockRepo.On("GetEmailProviderConfig", ctx).Return(stored, nil)

	_, err := service.UpdateEmailProviderConfig(ctx, uuid.New(), &UpdateEmailProviderConfigRequest{
		Provider: EmailProviderSMTP,
		Enabled:  true,
	})

	require.Error(t, err)
	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(verr.Fields), 2)
	mockRepo.AssertNotCalled(t, "SaveEmailProviderConfig", mock.Anything, mock.Anything)
}

func TestUpdateScheduleConfigNormalizesRecipients(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, audit.NopSink{}, zap.NewNop())
	ctx := context.Background()

	stored := &ScheduleConfig{ID: uuid.New(), GenerationTime: "06:00:00"}
	mockRepo.On("GetScheduleConfig", ctx).Return(stored, nil)
	mockRepo.On("SaveScheduleConfig", ctx, mock.AnythingOfType("*settings.ScheduleConfig")).Return(nil)

	updated, err := service.UpdateScheduleConfig(ctx, uuid.New(), &UpdateScheduleConfigRequest{
		Enabled:        true,
		GenerationTime: "07:30:00",
		Recipients:     []string{" alcaldia@ejemplo.org ", "alcaldia@ejemplo.org", "", "seguridad@ejemplo.org"},
		OutputPath:     "reports",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"alcaldia@ejemplo.org", "seguridad@ejemplo.org"}, []string(updated.Recipients))
	mockRepo.AssertExpectations(t)
}

func TestRecordEmailTestResultTouchesOnlyTestFields(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, audit.NopSink{}, zap.NewNop())
	ctx := context.Background()

	stored := &EmailProviderConfig{
		ID:          uuid.New(),
		Provider:    EmailProviderSMTP,
		Enabled:     true,
		FromAddress: "reportes@ejemplo.org",
		FromName:    "Reportes",
		SMTPHost:    "smtp.ejemplo.org",
		SMTPPort:    587,
	}
	mockRepo.On("GetEmailProviderConfig", ctx).Return(stored, nil)

	var saved *EmailProviderConfig
	mockRepo.On("SaveEmailProviderConfig", ctx, mock.AnythingOfType("*settings.EmailProviderConfig")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*EmailProviderConfig)
		}).Return(nil)

	testedAt := time.Now()
	err := service.RecordEmailTestResult(ctx, EmailTestResult{Success: false, Error: "connection refused", TestedAt: testedAt})

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "smtp.ejemplo.org", saved.SMTPHost)
	require.NotNil(t, saved.LastTestSuccess)
	assert.False(t, *saved.LastTestSuccess)
	require.NotNil(t, saved.LastTestError)
	assert.Equal(t, "connection refused", *saved.LastTestError)
	require.NotNil(t, saved.LastTestedAt)
	assert.WithinDuration(t, testedAt, *saved.LastTestedAt, time.Second)
}
