// Package config loads service configuration from defaults, an optional YAML
// file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when none is given on the command line.
const DefaultPath = "socratic.yaml"

// Provider names accepted in llm.provider
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// DefaultModels is the model used for each provider when llm.model is unset
var DefaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4.1-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
	ProviderOllama:    "llama3.2",
}

// Config is the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Log     LogConfig     `yaml:"log"`
	Tracing TracingConfig `yaml:"tracing"`
	Discord DiscordConfig `yaml:"discord"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LLMConfig selects and configures the completion backend
type LLMConfig struct {
	Provider       string        `yaml:"provider"`
	Model          string        `yaml:"model"`
	MaxTokens      int           `yaml:"max_tokens"`
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LogConfig controls the slog handler
type LogConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // text|json
}

// TracingConfig controls OpenTelemetry export
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // stdout|otlp|noop
	Endpoint string `yaml:"endpoint"`
}

// DiscordConfig controls the optional Discord front-end
type DiscordConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Token         string `yaml:"token"`
	CommandPrefix string `yaml:"command_prefix"`
	HistoryFetch  int    `yaml:"history_fetch"` // channel messages read per command
}

// Default returns the configuration used when nothing overrides it. The model
// is left empty; Load fills it from DefaultModels once the provider is known.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr: ":8000",
			AllowedOrigins: []string{
				"http://localhost:5173",
				"http://127.0.0.1:5173",
				"https://socrates-developer-ai.vercel.app",
			},
			ShutdownTimeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			Provider:       ProviderOpenAI,
			MaxTokens:      256,
			RequestTimeout: 600 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			Exporter: "stdout",
		},
		Discord: DiscordConfig{
			CommandPrefix: "!socrates ",
			HistoryFetch:  10,
		},
	}
}

// Load builds the configuration. A missing file at path is not an error;
// environment variables always win over file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModels[cfg.LLM.Provider]
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	loadFromEnv(&cfg.Server.Addr, "ADDR")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("ADDR") == "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}

	loadFromEnv(&cfg.LLM.Provider, "LLM_PROVIDER")
	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)
	loadFromEnv(&cfg.LLM.Model, "LLM_MODEL")

	switch cfg.LLM.Provider {
	case ProviderOpenAI:
		loadFromEnv(&cfg.LLM.APIKey, "OPENAI_API_KEY")
		loadFromEnv(&cfg.LLM.BaseURL, "OPENAI_BASE_URL")
	case ProviderAnthropic:
		loadFromEnv(&cfg.LLM.APIKey, "ANTHROPIC_API_KEY")
		loadFromEnv(&cfg.LLM.BaseURL, "ANTHROPIC_BASE_URL")
	case ProviderOllama:
		loadFromEnv(&cfg.LLM.BaseURL, "OLLAMA_BASE_URL")
	}

	loadFromEnv(&cfg.Log.Level, "LOG_LEVEL")
	loadFromEnv(&cfg.Log.Format, "LOG_FORMAT")
	loadFromEnv(&cfg.Tracing.Exporter, "TRACING_EXPORTER")
	loadFromEnv(&cfg.Tracing.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	loadFromEnv(&cfg.Discord.Token, "DISCORD_BOT_TOKEN")
	loadFromEnv(&cfg.Discord.CommandPrefix, "DISCORD_COMMAND_PREFIX")

	if err := parseFromEnv(&cfg.LLM.MaxTokens, "LLM_MAX_TOKENS", strconv.Atoi); err != nil {
		return err
	}
	if err := parseFromEnv(&cfg.LLM.RequestTimeout, "LLM_REQUEST_TIMEOUT", time.ParseDuration); err != nil {
		return err
	}
	if err := parseFromEnv(&cfg.Server.ShutdownTimeout, "SHUTDOWN_TIMEOUT", time.ParseDuration); err != nil {
		return err
	}
	if err := parseFromEnv(&cfg.Tracing.Enabled, "TRACING_ENABLED", strconv.ParseBool); err != nil {
		return err
	}
	if err := parseFromEnv(&cfg.Discord.Enabled, "DISCORD_ENABLED", strconv.ParseBool); err != nil {
		return err
	}

	return nil
}

// Validate checks that the configuration can be served
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderOllama:
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm model must not be empty")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm max_tokens must be greater than 0, got %d", c.LLM.MaxTokens)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("server allowed_origins must list at least one origin")
	}
	switch c.Tracing.Exporter {
	case "stdout", "otlp", "noop", "":
	default:
		return fmt.Errorf("unsupported tracing exporter %q", c.Tracing.Exporter)
	}
	if c.Discord.Enabled && c.Discord.Token == "" {
		return fmt.Errorf("discord enabled but DISCORD_BOT_TOKEN is not set")
	}
	return nil
}

func loadFromEnv(dest *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dest = v
	}
}

func parseFromEnv[T any](dest *T, key string, parseFn func(string) (T, error)) error {
	str := os.Getenv(key)
	if str == "" {
		return nil
	}
	v, err := parseFn(str)
	if err != nil {
		return fmt.Errorf("parse environment variable %s=%q as %T: %w", key, str, *dest, err)
	}
	*dest = v
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
