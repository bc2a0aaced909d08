package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"socratic/config"
	"socratic/models"
)

// AnthropicService sends dialogues to the Anthropic Messages API
type AnthropicService struct {
	client  anthropic.Client
	apiKey  string
	baseURL string
	timeout time.Duration
	logger  *slog.Logger
}

// NewAnthropicService creates a client with SDK retries disabled; every
// dialogue gets exactly one upstream attempt.
func NewAnthropicService(cfg config.LLMConfig, logger *slog.Logger) *AnthropicService {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicService{
		client:  anthropic.NewClient(opts...),
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		timeout: cfg.RequestTimeout,
		logger:  logger,
	}
}

// Name returns the provider name
func (a *AnthropicService) Name() string { return config.ProviderAnthropic }

// Complete lifts system messages into the system parameter and sends the rest
// as alternating user/assistant turns.
func (a *AnthropicService) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	var system []anthropic.TextBlockParam
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case models.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case models.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		System:    system,
		Messages:  messages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send message to Anthropic: %w", err)
	}

	var text string
	found := false
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("no text content in Anthropic response (stop reason %q)", msg.StopReason)
	}

	prompt := int(msg.Usage.InputTokens)
	completion := int(msg.Usage.OutputTokens)
	a.logger.Debug("anthropic message finished", "model", msg.Model, "stop_reason", msg.StopReason, "total_tokens", prompt+completion)

	return &CompletionResult{
		Text:             text,
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}, nil
}

// GetStatus returns the status of the Anthropic service
func (a *AnthropicService) GetStatus() map[string]interface{} {
	status := map[string]interface{}{
		"base_url": a.baseURL,
		"timeout":  a.timeout.String(),
	}
	if a.baseURL == "" {
		status["base_url"] = "sdk default"
	}

	if a.apiKey == "" {
		status["status"] = "unconfigured"
		status["error"] = "ANTHROPIC_API_KEY not set"
		return status
	}
	status["status"] = "configured"
	status["api_key"] = maskKey(a.apiKey)
	return status
}
