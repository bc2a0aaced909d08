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

const defaultOllamaBaseURL = "http://localhost:11434"

// LLMService handles communication with a local Ollama server
type LLMService struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// OllamaChatRequest represents a request to the Ollama /api/chat endpoint
type OllamaChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ChatGPTMessage       `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

// OllamaChatResponse represents a non-streamed response from /api/chat
type OllamaChatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error,omitempty"`
}

// NewLLMService creates a new Ollama-backed service instance
func NewLLMService(cfg config.LLMConfig, logger *slog.Logger) *LLMService {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}

	return &LLMService{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: logger,
	}
}

// Name returns the provider name
func (l *LLMService) Name() string { return config.ProviderOllama }

// Complete generates a reply with the local model
func (l *LLMService) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	request := OllamaChatRequest{
		Model:    req.Model,
		Messages: make([]ChatGPTMessage, 0, len(req.Messages)),
		Stream:   false,
		Options: map[string]interface{}{
			"num_predict": req.MaxTokens,
		},
	}
	for _, m := range req.Messages {
		request.Messages = append(request.Messages, ChatGPTMessage{Role: string(m.Role), Content: m.Content})
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/api/chat", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request to LLM: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("LLM API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var ollamaResp OllamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if ollamaResp.Error != "" {
		return nil, fmt.Errorf("LLM returned error: %s", ollamaResp.Error)
	}

	total := ollamaResp.PromptEvalCount + ollamaResp.EvalCount
	l.logger.Debug("ollama chat finished", "model", ollamaResp.Model, "total_tokens", total)

	return &CompletionResult{
		Text:             ollamaResp.Message.Content,
		PromptTokens:     ollamaResp.PromptEvalCount,
		CompletionTokens: ollamaResp.EvalCount,
		TotalTokens:      total,
	}, nil
}

// GetStatus returns the status of the Ollama service
func (l *LLMService) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"status":   "configured",
		"base_url": l.baseURL,
		"timeout":  l.httpClient.Timeout.String(),
	}
}
