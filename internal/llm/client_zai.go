package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"samvartha/internal/logging"
)

// ZAIClient implements Client for the Z.AI API (OpenAI-compatible chat
// completions, GLM models).
type ZAIClient struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	rateDelay   time.Duration
	mu          sync.Mutex
	lastRequest time.Time
}

// ZAIConfig holds configuration for the ZAI client.
type ZAIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Timeout        time.Duration
	MaxTokens      int
	Temperature    float64
	RateLimitDelay time.Duration
}

// DefaultZAIConfig returns sensible defaults.
func DefaultZAIConfig(apiKey string) ZAIConfig {
	return ZAIConfig{
		APIKey:         apiKey,
		BaseURL:        "https://api.z.ai/api/paas/v4",
		Model:          "GLM-4.6",
		Timeout:        2 * time.Minute,
		MaxTokens:      2048,
		Temperature:    0.1,
		RateLimitDelay: 600 * time.Millisecond,
	}
}

// NewZAIClient creates a new ZAI client with default config.
func NewZAIClient(apiKey string) *ZAIClient {
	return NewZAIClientWithConfig(DefaultZAIConfig(apiKey))
}

// NewZAIClientWithConfig creates a new ZAI client with custom config.
func NewZAIClientWithConfig(config ZAIConfig) *ZAIClient {
	model := strings.TrimSpace(config.Model)
	if model == "" {
		model = "GLM-4.6"
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultZAIConfig("").BaseURL
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	rateDelay := config.RateLimitDelay
	if rateDelay <= 0 {
		rateDelay = DefaultZAIConfig("").RateLimitDelay
	}
	return &ZAIClient{
		apiKey:      config.APIKey,
		baseURL:     baseURL,
		model:       model,
		maxTokens:   maxTokens,
		temperature: config.Temperature,
		rateDelay:   rateDelay,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// zaiRequest represents the API request structure.
type zaiRequest struct {
	Model       string       `json:"model"`
	Messages    []zaiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature float64      `json:"temperature,omitempty"`
}

// zaiMessage represents a message in the conversation.
type zaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// zaiResponse represents the API response structure.
type zaiResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Complete sends a prompt and returns the completion.
func (c *ZAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *ZAIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	// Rate limiting between consecutive requests
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < c.rateDelay {
		time.Sleep(c.rateDelay - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	messages := make([]zaiMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, zaiMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, zaiMessage{Role: "user", Content: userPrompt})

	reqBody := zaiRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.AuditFor("llm").ModelCall(c.model, time.Since(start).Milliseconds(), false, err.Error())
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logging.AuditFor("llm").ModelCall(c.model, time.Since(start).Milliseconds(), false,
			fmt.Sprintf("status %d", resp.StatusCode))
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var zaiResp zaiResponse
	if err := json.Unmarshal(body, &zaiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if zaiResp.Error != nil {
		return "", fmt.Errorf("API error: %s", zaiResp.Error.Message)
	}

	if len(zaiResp.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}

	elapsedTotal := time.Since(start)
	logging.APIDebug("zai completion: model=%s, %d chars in %v",
		c.model, len(zaiResp.Choices[0].Message.Content), elapsedTotal)
	logging.AuditFor("llm").ModelCall(c.model, elapsedTotal.Milliseconds(), true, "")

	return strings.TrimSpace(zaiResp.Choices[0].Message.Content), nil
}

// Model returns the model identifier.
func (c *ZAIClient) Model() string {
	return c.model
}
