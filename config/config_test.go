package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"ADDR", "PORT", "CORS_ALLOWED_ORIGINS", "LLM_PROVIDER", "LLM_MODEL",
	"OPENAI_API_KEY", "OPENAI_BASE_URL", "ANTHROPIC_API_KEY", "ANTHROPIC_BASE_URL",
	"OLLAMA_BASE_URL", "LOG_LEVEL", "LOG_FORMAT", "TRACING_EXPORTER",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "DISCORD_BOT_TOKEN", "DISCORD_COMMAND_PREFIX",
	"LLM_MAX_TOKENS", "LLM_REQUEST_TIMEOUT", "SHUTDOWN_TIMEOUT", "TRACING_ENABLED",
	"DISCORD_ENABLED",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "socratic.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, []string{
		"http://localhost:5173",
		"http://127.0.0.1:5173",
		"https://socrates-developer-ai.vercel.app",
	}, cfg.Server.AllowedOrigins)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4.1-mini", cfg.LLM.Model)
	assert.Equal(t, 256, cfg.LLM.MaxTokens)
	assert.Equal(t, 600*time.Second, cfg.LLM.RequestTimeout)
	assert.Empty(t, cfg.LLM.APIKey)
	assert.False(t, cfg.Discord.Enabled)
	assert.Equal(t, "!socrates ", cfg.Discord.CommandPrefix)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  addr: ":9000"
  shutdown_timeout: 3s
llm:
  provider: ollama
  model: llama3.2
  max_tokens: 128
  base_url: http://ollama:11434
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, ProviderOllama, cfg.LLM.Provider)
	assert.Equal(t, "llama3.2", cfg.LLM.Model)
	assert.Equal(t, 128, cfg.LLM.MaxTokens)
	assert.Equal(t, "http://ollama:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched keys keep their defaults
	assert.Len(t, cfg.Server.AllowedOrigins, 3)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "llm:\n  provider: openai\n  model: from-file\n")
	t.Setenv("LLM_MODEL", "from-env")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("LLM_MAX_TOKENS", "64")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("PORT", "8080")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.Model)
	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
	assert.Equal(t, 64, cfg.LLM.MaxTokens)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadProviderKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "sk-ant", cfg.LLM.APIKey)
}

func TestLoadModelDefaultsPerProvider(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"openai", "gpt-4.1-mini"},
		{"anthropic", "claude-3-5-haiku-latest"},
		{"ollama", "llama3.2"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("LLM_PROVIDER", tt.provider)

			cfg, err := Load("")

			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.LLM.Model)
		})
	}

	t.Run("file provider without model", func(t *testing.T) {
		clearEnv(t)
		cfg, err := Load(writeConfig(t, "llm:\n  provider: anthropic\n"))

		require.NoError(t, err)
		assert.Equal(t, "claude-3-5-haiku-latest", cfg.LLM.Model)
	})

	t.Run("explicit model kept", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LLM_PROVIDER", "ollama")
		t.Setenv("LLM_MODEL", "mistral")

		cfg, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, "mistral", cfg.LLM.Model)
	})
}

func TestAddrWinsOverPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADDR", "127.0.0.1:7000")
	t.Setenv("PORT", "8080")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "unknown provider", env: map[string]string{"LLM_PROVIDER": "bard"}},
		{name: "bad max tokens", env: map[string]string{"LLM_MAX_TOKENS": "lots"}},
		{name: "zero max tokens", env: map[string]string{"LLM_MAX_TOKENS": "0"}},
		{name: "bad timeout", env: map[string]string{"LLM_REQUEST_TIMEOUT": "soon"}},
		{name: "unknown exporter", env: map[string]string{"TRACING_EXPORTER": "zipkin"}},
		{name: "discord without token", env: map[string]string{"DISCORD_ENABLED": "true"}},
		{name: "malformed yaml", file: "llm: [unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			cfg, err := Load(path)

			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}
