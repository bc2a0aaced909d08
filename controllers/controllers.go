package controllers

import (
	"log/slog"

	"socratic/services"
)

// Controller wires HTTP handlers to the dialogue services
type Controller struct {
	chatbot        *services.Chatbot
	discordService *services.DiscordService
	logger         *slog.Logger
}

// NewController creates a new controller instance. discordService may be nil.
func NewController(chatbot *services.Chatbot, discordService *services.DiscordService, logger *slog.Logger) *Controller {
	return &Controller{
		chatbot:        chatbot,
		discordService: discordService,
		logger:         logger,
	}
}

// StartServices starts background front-ends (the Discord bot) when enabled
func (c *Controller) StartServices() error {
	if c.discordService == nil || !c.discordService.IsEnabled() {
		c.logger.Info("discord service disabled")
		return nil
	}
	return c.discordService.Start()
}

// StopServices stops all background services
func (c *Controller) StopServices() error {
	if c.discordService != nil {
		return c.discordService.Stop()
	}
	return nil
}
