package narrative

import (
	"fmt"

	"civic-watch/incident-reports-backend/internal/settings"
)

// NewGenerator builds the provider selected by the AI configuration snapshot.
// The configuration is assumed validated at the configuration boundary.
func NewGenerator(cfg settings.AiProviderConfig) (Generator, error) {
	switch cfg.Provider {
	case settings.AiProviderOpenAI:
		return NewOpenAIGenerator(cfg.APIKey, cfg.Model, cfg.MaxTokens, cfg.Temperature), nil
	case settings.AiProviderAzureOpenAI:
		return NewAzureOpenAIGenerator(cfg.Endpoint, cfg.APIKey, cfg.Model, cfg.MaxTokens, cfg.Temperature), nil
	case settings.AiProviderLocal:
		return NewLocalGenerator(cfg.Endpoint, cfg.Model, cfg.MaxTokens, cfg.Temperature), nil
	case settings.AiProviderOllama:
		return NewOllamaGenerator(cfg.Endpoint, cfg.Model, cfg.MaxTokens, cfg.Temperature), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
