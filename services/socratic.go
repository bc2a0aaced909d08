package services

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"socratic/models"
	"socratic/utils"
)

// SocraticSystemPrompt is sent as the first message of every dialogue
const SocraticSystemPrompt = "You are a Socratic tutor. " +
	"Ask probing questions instead of giving direct answers, " +
	"and keep replies to 2–3 sentences."

// historyWindow is the number of most recent history entries forwarded upstream
const historyWindow = 5

// SocraticTutor turns an utterance plus recent history into a single
// completion call
type SocraticTutor struct {
	client    CompletionClient
	model     string
	maxTokens int
	logger    *slog.Logger
}

// NewSocraticTutor creates a tutor bound to one completion backend
func NewSocraticTutor(client CompletionClient, model string, maxTokens int, logger *slog.Logger) *SocraticTutor {
	return &SocraticTutor{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// BuildMessages returns the system prompt, the last five history entries in
// their original order and the new user turn.
func BuildMessages(userInput string, history []models.HistoryEntry) []models.Message {
	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}

	messages := make([]models.Message, 0, len(history)-start+2)
	messages = append(messages, models.Message{Role: models.RoleSystem, Content: SocraticSystemPrompt})
	for _, entry := range history[start:] {
		messages = append(messages, entry.Message())
	}
	messages = append(messages, models.Message{Role: models.RoleUser, Content: userInput})

	return messages
}

// Respond makes one completion call. Every failure is returned as *UpstreamError.
func (s *SocraticTutor) Respond(ctx context.Context, userInput string, history []models.HistoryEntry) (string, int, error) {
	messages := BuildMessages(userInput, history)

	ctx, span := utils.StartSpan(ctx, "llm.complete",
		trace.WithAttributes(
			utils.StringAttr("llm.provider", s.client.Name()),
			utils.StringAttr("llm.model", s.model),
			utils.IntAttr("llm.messages", len(messages)),
		),
	)
	defer span.End()

	result, err := s.client.Complete(ctx, CompletionRequest{
		Model:     s.model,
		Messages:  messages,
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		utils.RecordError(span, err)
		return "", 0, &UpstreamError{Err: err}
	}

	span.SetAttributes(utils.IntAttr("llm.tokens_used", result.TotalTokens))
	utils.SetOK(span)

	s.logger.Debug("socratic reply generated",
		"provider", s.client.Name(),
		"messages", len(messages),
		"tokens_used", result.TotalTokens,
	)

	return result.Text, result.TotalTokens, nil
}

// Model returns the configured model identifier
func (s *SocraticTutor) Model() string { return s.model }

// Provider returns the backend name
func (s *SocraticTutor) Provider() string { return s.client.Name() }
