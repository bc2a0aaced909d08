package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"socratic/config"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// ChatGPTService handles communication with OpenAI's chat completions API or
// any API compatible with it
type ChatGPTService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ChatGPTRequest represents a request to the ChatGPT API
type ChatGPTRequest struct {
	Model     string           `json:"model"`
	Messages  []ChatGPTMessage `json:"messages"`
	MaxTokens int              `json:"max_tokens,omitempty"`
}

// ChatGPTMessage represents a message in the ChatGPT format
type ChatGPTMessage struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content string `json:"content"`
}

// ChatGPTResponse represents a response from the ChatGPT API
type ChatGPTResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// NewChatGPTService creates a new ChatGPT service instance
func NewChatGPTService(cfg config.LLMConfig, logger *slog.Logger) *ChatGPTService {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	return &ChatGPTService{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: logger,
	}
}

// Name returns the provider name
func (c *ChatGPTService) Name() string { return config.ProviderOpenAI }

// Complete sends the messages to /chat/completions and returns the first choice
func (c *ChatGPTService) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	request := ChatGPTRequest{
		Model:     req.Model,
		Messages:  make([]ChatGPTMessage, 0, len(req.Messages)),
		MaxTokens: req.MaxTokens,
	}
	for _, m := range req.Messages {
		request.Messages = append(request.Messages, ChatGPTMessage{Role: string(m.Role), Content: m.Content})
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request to ChatGPT: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var chatGPTResp ChatGPTResponse
	if err := json.Unmarshal(body, &chatGPTResp); err != nil {
		if resp.StatusCode/100 != 2 {
			return nil, fmt.Errorf("ChatGPT API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if chatGPTResp.Error != nil {
		return nil, fmt.Errorf("ChatGPT API error (status %d): %s", resp.StatusCode, chatGPTResp.Error.Message)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("ChatGPT API returned status %d", resp.StatusCode)
	}

	if len(chatGPTResp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices from ChatGPT")
	}
	content := chatGPTResp.Choices[0].Message.Content
	if content == nil {
		return nil, fmt.Errorf("first choice has no message content")
	}
	if chatGPTResp.Usage == nil {
		return nil, fmt.Errorf("response is missing usage")
	}

	c.logger.Debug("chat completion finished",
		"model", chatGPTResp.Model,
		"finish_reason", chatGPTResp.Choices[0].FinishReason,
		"total_tokens", chatGPTResp.Usage.TotalTokens,
	)

	return &CompletionResult{
		Text:             *content,
		PromptTokens:     chatGPTResp.Usage.PromptTokens,
		CompletionTokens: chatGPTResp.Usage.CompletionTokens,
		TotalTokens:      chatGPTResp.Usage.TotalTokens,
	}, nil
}

// GetStatus returns the status of the ChatGPT service
func (c *ChatGPTService) GetStatus() map[string]interface{} {
	status := map[string]interface{}{
		"base_url": c.baseURL,
		"timeout":  c.httpClient.Timeout.String(),
	}

	if c.apiKey != "" {
		status["status"] = "configured"
		status["api_key"] = maskKey(c.apiKey)
	} else {
		status["status"] = "unconfigured"
		status["error"] = "OPENAI_API_KEY not set"
	}

	return status
}

// maskKey keeps the first and last four characters of a credential
func maskKey(key string) string {
	if len(key) > 8 {
		return key[:4] + "..." + key[len(key)-4:]
	}
	return "***"
}
