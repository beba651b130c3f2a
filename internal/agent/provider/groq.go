package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GroqProvider implements Provider against an OpenAI-compatible chat
// completions endpoint. It is used as the analysis backend for the
// enrichment pipeline; tool definitions are not supported and are ignored.
type GroqProvider struct {
	client   *http.Client
	config   GroqConfig
	endpoint string
}

// GroqConfig contains configuration for the Groq chat backend.
type GroqConfig struct {
	// APIKey is the bearer token for the chat endpoint
	APIKey string

	// Model is the model identifier (e.g., "llama-3.1-8b-instant")
	Model string

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int

	// Temperature controls randomness
	Temperature float64

	// BaseURL overrides the default API endpoint (useful for tests)
	BaseURL string

	// Timeout for HTTP requests (default: 60s)
	Timeout time.Duration
}

// DefaultGroqConfig returns sensible defaults for the analysis backend.
func DefaultGroqConfig() GroqConfig {
	return GroqConfig{
		Model:       "llama-3.1-8b-instant",
		MaxTokens:   400,
		Temperature: 0.2,
		BaseURL:     "https://api.groq.com/openai",
		Timeout:     60 * time.Second,
	}
}

// NewGroqProvider creates a new Groq provider.
func NewGroqProvider(cfg GroqConfig) (*GroqProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGroqConfig().Model
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultGroqConfig().MaxTokens
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGroqConfig().BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultGroqConfig().Timeout
	}

	return &GroqProvider{
		client:   &http.Client{Timeout: cfg.Timeout},
		config:   cfg,
		endpoint: strings.TrimSuffix(cfg.BaseURL, "/") + "/v1/chat/completions",
	}, nil
}

// Chat implements Provider.Chat over the OpenAI-compatible wire format.
func (p *GroqProvider) Chat(ctx context.Context, systemPrompt string, messages []Message, tools []ToolDefinition) (*Response, error) {
	reqBody := groqRequest{
		Model:       p.config.Model,
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
	}

	if systemPrompt != "" {
		reqBody.Messages = append(reqBody.Messages, groqMessage{Role: "system", Content: systemPrompt})
	}
	for _, msg := range messages {
		reqBody.Messages = append(reqBody.Messages, groqMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.parseErrorResponse(resp.StatusCode, body)
	}

	return p.parseResponse(body)
}

// Name implements Provider.Name.
func (p *GroqProvider) Name() string {
	return "groq"
}

// Model implements Provider.Model.
func (p *GroqProvider) Model() string {
	return p.config.Model
}

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []struct {
		Message      groqMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type groqErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (p *GroqProvider) parseResponse(body []byte) (*Response, error) {
	var parsed groqResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("response contained no choices")
	}

	choice := parsed.Choices[0]
	response := &Response{
		Content: choice.Message.Content,
		Usage: Usage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
		},
	}

	switch choice.FinishReason {
	case "length":
		response.StopReason = StopReasonMaxTokens
	default:
		response.StopReason = StopReasonEndTurn
	}

	return response, nil
}

func (p *GroqProvider) parseErrorResponse(status int, body []byte) error {
	var parsed groqErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return fmt.Errorf("groq API error (status %d): %s", status, parsed.Error.Message)
	}
	return fmt.Errorf("groq API error (status %d)", status)
}
