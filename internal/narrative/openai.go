package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const openAIChatCompletionsURL = "https://api.openai.com/v1/chat/completions"

// ChatCompletionsGenerator speaks the OpenAI chat-completions protocol. It
// covers OpenAI itself, Azure OpenAI deployments, and local OpenAI-compatible
// servers (llama.cpp, vLLM and friends).
type ChatCompletionsGenerator struct {
	endpoint    string
	apiKey      string
	azure       bool
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// NewOpenAIGenerator creates a generator for the hosted OpenAI API.
func NewOpenAIGenerator(apiKey, model string, maxTokens int, temperature float64) *ChatCompletionsGenerator {
	return &ChatCompletionsGenerator{
		endpoint:    openAIChatCompletionsURL,
		apiKey:      apiKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		httpClient:  &http.Client{},
	}
}

// NewAzureOpenAIGenerator creates a generator for an Azure OpenAI deployment.
// The endpoint is the full completions URL of the deployment; Azure
// authenticates with an api-key header instead of a bearer token.
func NewAzureOpenAIGenerator(endpoint, apiKey, model string, maxTokens int, temperature float64) *ChatCompletionsGenerator {
	return &ChatCompletionsGenerator{
		endpoint:    endpoint,
		apiKey:      apiKey,
		azure:       true,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		httpClient:  &http.Client{},
	}
}

// NewLocalGenerator creates a generator for a local OpenAI-compatible server.
func NewLocalGenerator(endpoint, model string, maxTokens int, temperature float64) *ChatCompletionsGenerator {
	return &ChatCompletionsGenerator{
		endpoint:    strings.TrimRight(endpoint, "/") + "/v1/chat/completions",
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		httpClient:  &http.Client{},
	}
}

func (g *ChatCompletionsGenerator) Generate(ctx context.Context, req Request) (string, error) {
	payload := chatCompletionsRequest{
		Model:       g.model,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		if g.azure {
			httpReq.Header.Set("api-key", g.apiKey)
		} else {
			httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
		}
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat completions request failed with status %d", resp.StatusCode)
	}

	var parsed chatCompletionsResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completions response does not contain choices")
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("chat completions response is empty")
	}
	return text, nil
}

type chatCompletionsRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
