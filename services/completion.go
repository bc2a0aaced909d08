package services

import (
	"context"
	"fmt"
	"log/slog"

	"socratic/config"
	"socratic/models"
)

// CompletionRequest is a provider-neutral chat completion call
type CompletionRequest struct {
	Model     string
	Messages  []models.Message
	MaxTokens int
}

// CompletionResult carries the first completion and its token accounting
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionClient is implemented by every hosted or local chat backend
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
	Name() string
}

// NewCompletionClient builds the backend selected by cfg.Provider.
func NewCompletionClient(cfg config.LLMConfig, logger *slog.Logger) (CompletionClient, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewChatGPTService(cfg, logger), nil
	case config.ProviderAnthropic:
		return NewAnthropicService(cfg, logger), nil
	case config.ProviderOllama:
		return NewLLMService(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
