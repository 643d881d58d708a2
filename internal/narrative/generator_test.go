package narrative

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic-watch/incident-reports-backend/internal/settings"
	"civic-watch/incident-reports-backend/internal/stats"
)

func sampleRequest() Request {
	return Request{
		Statistics: stats.ReportStatistics{
			TotalCount:        2,
			ByCrimeType:       map[string]int{"robo": 2},
			ByZone:            map[string]int{"centro": 2},
			ByAgeBucket:       map[string]int{"18-25": 2},
			MostFrequentCrime: "robo",
			MostActiveZone:    "centro",
		},
		PeriodStart: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestLocalGeneratorParsesChatCompletions(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req chatCompletionsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "Total de reportes: 2")

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  Resumen del periodo.  "}},
			},
		})
	}))
	defer server.Close()

	g := NewLocalGenerator(server.URL, "llama3", 1000, 0.5)
	text, err := g.Generate(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, "Resumen del periodo.", text)
	assert.Empty(t, gotAuth)
}

func TestOpenAIGeneratorErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	g := NewOpenAIGenerator("sk-test", "gpt-4o", 1000, 0.5)
	g.endpoint = server.URL

	_, err := g.Generate(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestOllamaGenerator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, 1000, req.Options.NumPredict)

		json.NewEncoder(w).Encode(ollamaResponse{Response: "Resumen local.", Done: true})
	}))
	defer server.Close()

	g := NewOllamaGenerator(server.URL, "llama3", 1000, 0.5)
	text, err := g.Generate(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, "Resumen local.", text)
}

func TestGenerateHonorsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	g := NewLocalGenerator(server.URL, "llama3", 1000, 0.5)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := g.Generate(ctx, sampleRequest())
	assert.Error(t, err)
}

func TestNewGeneratorFactory(t *testing.T) {
	cases := []struct {
		provider settings.AiProvider
		wantErr  bool
	}{
		{settings.AiProviderOpenAI, false},
		{settings.AiProviderAzureOpenAI, false},
		{settings.AiProviderLocal, false},
		{settings.AiProviderOllama, false},
		{settings.AiProvider("other"), true},
	}

	for _, tc := range cases {
		g, err := NewGenerator(settings.AiProviderConfig{
			Provider:    tc.provider,
			Model:       "m",
			Endpoint:    "http://localhost:11434",
			APIKey:      "key",
			MaxTokens:   1000,
			Temperature: 0.5,
		})
		if tc.wantErr {
			assert.Error(t, err, string(tc.provider))
		} else {
			assert.NoError(t, err, string(tc.provider))
			assert.NotNil(t, g)
		}
	}
}
