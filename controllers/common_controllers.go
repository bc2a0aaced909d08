package controllers

import (
	"net/http"
	"time"

	"socratic/models"
	"socratic/utils"
)

// HealthHandler provides a health check endpoint
func (c *Controller) HealthHandler(w http.ResponseWriter, r *http.Request) {
	health := models.HealthResponse{
		Status:    models.StatusHealthy,
		Service:   "socratic",
		Endpoints: []string{"/dialogue", "/health"},
		Dialogue:  c.chatbot.GetStatus(),
		Timestamp: time.Now().UTC(),
	}
	if c.discordService != nil {
		health.Discord = c.discordService.GetStatus()
	}

	utils.JSON(w, http.StatusOK, health)
}
