// Package cmd implements the socratic command line.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"socratic/config"
	"socratic/services"
	"socratic/utils"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "socratic",
	Short: "Socratic tutoring dialogue service",
	Long: `Socratic answers questions with questions. It forwards an utterance and the
recent conversation to a chat completion backend primed as a Socratic tutor and
reports a short text-statistics summary with the reply.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to YAML config file")
}

// loadConfig reads .env files, then the config file and environment
func loadConfig() (*config.Config, error) {
	if err := utils.LoadEnvWithFallback(); err != nil {
		return nil, err
	}
	return config.Load(configPath)
}

// newLogger builds the process logger and installs it as the slog default
func newLogger(cfg *config.Config) *slog.Logger {
	logger := utils.NewLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	return logger
}

// newChatbot constructs the single completion client and the services on top of it
func newChatbot(cfg *config.Config, logger *slog.Logger) (*services.Chatbot, error) {
	client, err := services.NewCompletionClient(cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("create completion client: %w", err)
	}
	tutor := services.NewSocraticTutor(client, cfg.LLM.Model, cfg.LLM.MaxTokens, logger)
	return services.NewChatbot(tutor, logger), nil
}
