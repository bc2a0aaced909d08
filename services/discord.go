package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"socratic/config"
	"socratic/models"
)

// discordMessageLimit is Discord's maximum message length
const discordMessageLimit = 2000

// DiscordService answers prefixed channel messages with Socratic replies.
// Dialogue history is read back from the channel on every command, nothing is
// stored between messages.
type DiscordService struct {
	session       *discordgo.Session
	chatbot       *Chatbot
	commandPrefix string
	historyFetch  int
	enabled       bool
	startTime     time.Time
	logger        *slog.Logger
}

// NewDiscordService creates a new Discord service instance
func NewDiscordService(cfg config.DiscordConfig, chatbot *Chatbot, logger *slog.Logger) (*DiscordService, error) {
	service := &DiscordService{
		chatbot:       chatbot,
		commandPrefix: cfg.CommandPrefix,
		historyFetch:  cfg.HistoryFetch,
		startTime:     time.Now(),
		logger:        logger,
	}

	if !cfg.Enabled {
		return service, nil
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord enabled but DISCORD_BOT_TOKEN is not set")
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	session.AddHandler(func(s *discordgo.Session, event *discordgo.Ready) {
		logger.Info("discord bot online", "user", event.User.Username, "guilds", len(event.Guilds))
	})
	session.AddHandler(service.messageCreate)
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	service.session = session
	service.enabled = true
	return service, nil
}

// Start opens the Discord gateway connection
func (d *DiscordService) Start() error {
	if !d.enabled {
		return fmt.Errorf("Discord service not enabled")
	}

	if err := d.session.Open(); err != nil {
		return fmt.Errorf("error opening Discord connection: %w", err)
	}

	d.logger.Info("discord bot started", "prefix", d.commandPrefix)
	return nil
}

// Stop closes the Discord bot connection
func (d *DiscordService) Stop() error {
	if d.session != nil {
		return d.session.Close()
	}
	return nil
}

// messageCreate handles incoming Discord messages
func (d *DiscordService) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	utterance, ok := d.extractUtterance(m.Content)
	if !ok {
		return
	}
	if utterance == "" {
		d.sendMessage(s, m.ChannelID, fmt.Sprintf("Please provide a question after `%s`", strings.TrimSpace(d.commandPrefix)))
		return
	}

	_ = s.ChannelTyping(m.ChannelID)

	var history []models.HistoryEntry
	recent, err := s.ChannelMessages(m.ChannelID, d.historyFetch, m.ID, "", "")
	if err != nil {
		d.logger.Warn("failed to fetch channel history", "channel", m.ChannelID, "err", err)
	} else {
		history = d.toHistory(recent, s.State.User.ID)
	}

	resp, err := d.chatbot.Dialogue(context.Background(), models.DialogueRequest{
		UserInput:           utterance,
		ConversationHistory: history,
	})
	if err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			d.logger.Warn("discord dialogue failed", "channel", m.ChannelID, "err", err)
		}
		d.sendMessage(s, m.ChannelID, err.Error())
		return
	}

	d.sendMessage(s, m.ChannelID, resp.SocraticResponse)
	d.logger.Info("discord dialogue",
		"user", m.Author.Username,
		"channel", m.ChannelID,
		"processed_input", resp.ProcessedInput,
		"tokens_used", resp.TokensUsed,
	)
}

// extractUtterance reports whether content is a command and returns the text
// after the prefix
func (d *DiscordService) extractUtterance(content string) (string, bool) {
	if !strings.HasPrefix(content, d.commandPrefix) {
		return "", false
	}
	return strings.TrimSpace(content[len(d.commandPrefix):]), true
}

// toHistory converts channel messages (newest first, as the API returns them)
// into chronological dialogue history. Only this bot's replies and prefixed
// commands take part in the dialogue.
func (d *DiscordService) toHistory(messages []*discordgo.Message, botID string) []models.HistoryEntry {
	var history []models.HistoryEntry

	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Author == nil {
			continue
		}

		if msg.Author.ID == botID {
			if strings.HasPrefix(msg.Content, "LLM error: ") {
				continue
			}
			history = append(history, models.NewHistoryEntry(models.RoleAssistant, msg.Content))
			continue
		}

		if msg.Author.Bot {
			continue
		}
		if utterance, ok := d.extractUtterance(msg.Content); ok && utterance != "" {
			history = append(history, models.NewHistoryEntry(models.RoleUser, utterance))
		}
	}

	return history
}

// sendMessage sends a message to Discord, handling length limits
func (d *DiscordService) sendMessage(s *discordgo.Session, channelID, message string) {
	for i, chunk := range splitMessage(message, discordMessageLimit-100) {
		if i > 0 {
			// Small delay between messages to avoid rate limiting
			time.Sleep(200 * time.Millisecond)
		}
		if _, err := s.ChannelMessageSend(channelID, chunk); err != nil {
			d.logger.Error("error sending Discord message", "channel", channelID, "err", err)
		}
	}
}

// splitMessage splits a message into chunks of at most maxLength bytes,
// preferring word boundaries and never cutting a rune
func splitMessage(message string, maxLength int) []string {
	if len(message) <= maxLength {
		return []string{message}
	}

	var chunks []string
	for len(message) > maxLength {
		splitIndex := maxLength
		for splitIndex > 0 && !utf8.RuneStart(message[splitIndex]) {
			splitIndex--
		}
		if splitIndex == 0 {
			_, splitIndex = utf8.DecodeRuneInString(message)
		}
		if spaceIndex := strings.LastIndex(message[:splitIndex], " "); spaceIndex > maxLength/2 {
			splitIndex = spaceIndex
		}

		chunks = append(chunks, message[:splitIndex])
		message = strings.TrimPrefix(message[splitIndex:], " ")
	}

	if len(message) > 0 {
		chunks = append(chunks, message)
	}

	return chunks
}

// IsEnabled returns whether the Discord service is enabled
func (d *DiscordService) IsEnabled() bool {
	return d.enabled
}

// GetStatus returns the current status of the Discord service
func (d *DiscordService) GetStatus() models.Metadata {
	status := models.Metadata{
		"enabled":        d.enabled,
		"command_prefix": d.commandPrefix,
		"uptime":         time.Since(d.startTime).String(),
	}

	switch {
	case d.enabled && d.session != nil && d.session.State != nil && d.session.State.User != nil:
		status["status"] = "connected"
		status["user"] = d.session.State.User.Username
		status["guilds"] = len(d.session.State.Guilds)
	case d.enabled:
		status["status"] = "initialized_not_started"
	default:
		status["status"] = "disabled"
	}

	return status
}
