package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"socratic/models"
	"socratic/services"
)

var askOpts struct {
	historyFile string
	dryRun      bool
}

var askCmd = &cobra.Command{
	Use:   "ask <utterance>",
	Short: "Run a single dialogue turn on the terminal",
	Long: `Sends one utterance (plus optional prior turns from a JSON file shaped like
conversation_history) to the completion backend and prints the reply.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askOpts.historyFile, "history", "", "JSON file with prior turns: [{\"role\":..., \"content\":...}]")
	askCmd.Flags().BoolVar(&askOpts.dryRun, "dry-run", false, "print the messages that would be sent instead of calling the backend")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	utterance := strings.TrimSpace(strings.Join(args, " "))
	if utterance == "" {
		return fmt.Errorf("utterance must not be empty")
	}

	history, err := readHistory(askOpts.historyFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if askOpts.dryRun {
		return printDryRun(out, utterance, history)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	chatbot, err := newChatbot(cfg, logger)
	if err != nil {
		return err
	}

	resp, err := chatbot.Dialogue(context.Background(), models.DialogueRequest{
		UserInput:           utterance,
		ConversationHistory: history,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, resp.SocraticResponse)
	fmt.Fprintf(out, "(%s · %d tokens)\n", resp.ProcessedInput, resp.TokensUsed)
	return nil
}

func readHistory(path string) ([]models.HistoryEntry, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}

	var history []models.HistoryEntry
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parse history file %s: %w", path, err)
	}
	return history, nil
}

func printDryRun(out io.Writer, utterance string, history []models.HistoryEntry) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(services.BuildMessages(utterance, history)); err != nil {
		return err
	}
	fmt.Fprintln(out, services.Preprocess(utterance).Summary())
	return nil
}
