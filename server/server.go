// Package server assembles the router, CORS policy and middleware chain and
// runs the HTTP listener.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"socratic/config"
	"socratic/controllers"
	"socratic/middleware"
)

// Server owns the router and the HTTP listener
type Server struct {
	router     *mux.Router
	controller *controllers.Controller
	cfg        config.ServerConfig
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates a new server instance with routes registered
func NewServer(cfg config.ServerConfig, controller *controllers.Controller, logger *slog.Logger) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		controller: controller,
		cfg:        cfg,
		logger:     logger,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all our endpoints
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/dialogue", s.controller.DialogueHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/health", s.controller.HealthHandler).Methods(http.MethodGet)
}

// Handler returns the router wrapped with CORS and the middleware chain
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	var handler http.Handler = c.Handler(s.router)
	handler = middleware.Recoverer(s.logger)(handler)
	handler = middleware.AccessLog(s.logger)(handler)
	handler = middleware.RequestID()(handler)
	return handler
}

// Start listens until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.Addr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr, "allowed_origins", s.cfg.AllowedOrigins)
		errChan <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
