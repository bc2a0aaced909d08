package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socratic/config"
	"socratic/controllers"
	"socratic/middleware"
	"socratic/models"
	"socratic/services"
)

type fakeCompletion struct {
	text   string
	tokens int
	err    error
	last   services.CompletionRequest
}

func (f *fakeCompletion) Name() string { return "fake" }

func (f *fakeCompletion) GetStatus() map[string]interface{} {
	return map[string]interface{}{"status": "configured", "api_key": "sk-f...ake"}
}

func (f *fakeCompletion) Complete(_ context.Context, req services.CompletionRequest) (*services.CompletionResult, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &services.CompletionResult{Text: f.text, TotalTokens: f.tokens}, nil
}

func newTestHandler(t *testing.T, client services.CompletionClient) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tutor := services.NewSocraticTutor(client, "gpt-4.1-mini", 256, logger)
	controller := controllers.NewController(services.NewChatbot(tutor, logger), nil, logger)
	return NewServer(config.Default().Server, controller, logger).Handler()
}

func postDialogue(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/dialogue", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDialogueSuccess(t *testing.T) {
	fake := &fakeCompletion{text: "What have you observed about light?", tokens: 42}
	h := newTestHandler(t, fake)

	rec := postDialogue(t, h, `{"user_input": "Why is the sky blue?", "conversation_history": []}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	assert.JSONEq(t, `{
		"socratic_response": "What have you observed about light?",
		"processed_input": "5 words, 1 sentences",
		"tokens_used": 42
	}`, rec.Body.String())

	require.Len(t, fake.last.Messages, 2)
	assert.Equal(t, models.RoleSystem, fake.last.Messages[0].Role)
	assert.Equal(t, "Why is the sky blue?", fake.last.Messages[1].Content)
}

func TestDialogueForwardsTrimmedHistory(t *testing.T) {
	fake := &fakeCompletion{text: "ok", tokens: 1}
	h := newTestHandler(t, fake)

	rec := postDialogue(t, h, `{
		"user_input": "And now?",
		"conversation_history": [
			{"role": "user", "content": "one"},
			{"role": "assistant", "content": "two"},
			{"role": "user", "content": "three"},
			{"role": "assistant", "content": "four"},
			{"role": "user", "content": "five"},
			{"role": "assistant", "content": "six"},
			{"content": "seven"}
		]
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	msgs := fake.last.Messages
	require.Len(t, msgs, 7)
	assert.Equal(t, "three", msgs[1].Content)
	assert.Equal(t, models.Message{Role: models.RoleUser, Content: "seven"}, msgs[5])
	assert.Equal(t, "And now?", msgs[6].Content)
}

func TestDialogueUpstreamFailure(t *testing.T) {
	h := newTestHandler(t, &fakeCompletion{err: errors.New("connection refused")})

	rec := postDialogue(t, h, `{"user_input": "Why is the sky blue?"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "LLM error: connection refused", body.Detail)
}

func TestDialogueValidation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantLoc  []string
		wantType string
	}{
		{"missing user_input", `{"conversation_history": []}`, []string{"body", "user_input"}, "missing"},
		{"empty user_input", `{"user_input": ""}`, []string{"body", "user_input"}, "missing"},
		{"wrong type", `{"user_input": 7}`, []string{"body", "user_input"}, "string_type"},
		{"malformed json", `{"user_input": `, []string{"body"}, "json_invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCompletion{text: "unused"}
			h := newTestHandler(t, fake)

			rec := postDialogue(t, h, tt.body)

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			var body struct {
				Detail []models.ValidationIssue `json:"detail"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Len(t, body.Detail, 1)
			assert.Equal(t, tt.wantLoc, body.Detail[0].Loc)
			assert.Equal(t, tt.wantType, body.Detail[0].Type)
			assert.Nil(t, fake.last.Messages)
		})
	}
}

func TestDialogueMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, &fakeCompletion{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dialogue", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, &fakeCompletion{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, models.StatusHealthy, health.Status)
	assert.Equal(t, "fake", health.Dialogue["provider"])
	backend, ok := health.Dialogue["backend"].(map[string]interface{})
	require.True(t, ok, "backend status missing from /health")
	assert.Equal(t, "configured", backend["status"])
	assert.Equal(t, "sk-f...ake", backend["api_key"])
	assert.Contains(t, health.Endpoints, "/dialogue")
}

func TestCORS(t *testing.T) {
	h := newTestHandler(t, &fakeCompletion{text: "ok"})

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/dialogue", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "content-type")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("allowed origin", func(t *testing.T) {
		for _, origin := range config.Default().Server.AllowedOrigins {
			rec := preflight(origin)
			assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		}
	})

	t.Run("disallowed origin", func(t *testing.T) {
		rec := preflight("https://evil.example.com")
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("simple request from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/dialogue", strings.NewReader(`{"user_input": "hi"}`))
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestStartShutsDownOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tutor := services.NewSocraticTutor(&fakeCompletion{}, "m", 1, logger)
	controller := controllers.NewController(services.NewChatbot(tutor, logger), nil, logger)
	cfg := config.ServerConfig{Addr: "127.0.0.1:0", AllowedOrigins: []string{"*"}, ShutdownTimeout: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(cfg, controller, logger).Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
