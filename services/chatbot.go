package services

import (
	"context"
	"log/slog"
	"time"

	"socratic/models"
)

// Chatbot runs a dialogue turn: preprocessing followed by the Socratic reply
type Chatbot struct {
	tutor     *SocraticTutor
	logger    *slog.Logger
	startTime time.Time
}

// NewChatbot creates a new chatbot around a tutor
func NewChatbot(tutor *SocraticTutor, logger *slog.Logger) *Chatbot {
	return &Chatbot{
		tutor:     tutor,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Dialogue processes one user utterance. The returned error is an
// *UpstreamError when the completion backend failed.
func (c *Chatbot) Dialogue(ctx context.Context, req models.DialogueRequest) (models.DialogueResponse, error) {
	processed := Preprocess(req.UserInput)
	c.logger.Debug("preprocessed input",
		"words", processed.WordCount,
		"sentences", processed.SentenceCount,
		"lemmas", processed.Lemmas,
	)

	reply, tokens, err := c.tutor.Respond(ctx, req.UserInput, req.ConversationHistory)
	if err != nil {
		return models.DialogueResponse{}, err
	}

	return models.DialogueResponse{
		SocraticResponse: reply,
		ProcessedInput:   processed.Summary(),
		TokensUsed:       tokens,
	}, nil
}

// statusReporter is implemented by backends that can describe their own setup
type statusReporter interface {
	GetStatus() map[string]interface{}
}

// GetStatus returns the current status of the chatbot and, when the backend
// reports one, its configuration status under "backend"
func (c *Chatbot) GetStatus() models.Metadata {
	status := models.Metadata{
		"status":   "active",
		"provider": c.tutor.Provider(),
		"model":    c.tutor.Model(),
		"uptime":   time.Since(c.startTime).String(),
	}
	if reporter, ok := c.tutor.client.(statusReporter); ok {
		status["backend"] = reporter.GetStatus()
	}
	return status
}
