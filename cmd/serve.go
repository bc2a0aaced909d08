package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"socratic/controllers"
	"socratic/server"
	"socratic/services"
	"socratic/utils"
)

var serveOpts struct {
	addr    string
	discord bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP dialogue server",
	Long: `Serves POST /dialogue and GET /health. With --discord (or discord.enabled in
the config) the Discord bot front-end runs in the same process.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveOpts.addr, "addr", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveOpts.discord, "discord", false, "enable the Discord bot front-end")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveOpts.addr != "" {
		cfg.Server.Addr = serveOpts.addr
	}
	if serveOpts.discord {
		cfg.Discord.Enabled = true
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger := newLogger(cfg)
	logger.Info("starting socratic",
		"version", Version,
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := utils.SetupTracing(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", "err", err)
		}
	}()

	chatbot, err := newChatbot(cfg, logger)
	if err != nil {
		return err
	}

	discordService, err := services.NewDiscordService(cfg.Discord, chatbot, logger)
	if err != nil {
		return err
	}

	controller := controllers.NewController(chatbot, discordService, logger)
	if err := controller.StartServices(); err != nil {
		return fmt.Errorf("start services: %w", err)
	}
	defer func() {
		if err := controller.StopServices(); err != nil {
			logger.Warn("stopping services failed", "err", err)
		}
	}()

	return server.NewServer(cfg.Server, controller, logger).Start(ctx)
}
