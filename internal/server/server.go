// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects handlers, middleware, and routes.
// It decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server and its background dispatcher start and stop
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New() creates:
//	  sqlite.DB        → TokenService, EventService, ViewService
//	  slack.Client     → ChannelResolver, Dispatcher, CommandHandler
//	  Dispatcher       → EventService (as its Notifier)
//	  services         → handlers → routes
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/teamrsvp/internal/auth"
	"github.com/sakif/teamrsvp/internal/config"
	"github.com/sakif/teamrsvp/internal/handler"
	"github.com/sakif/teamrsvp/internal/middleware"
	sqliteRepo "github.com/sakif/teamrsvp/internal/repository/sqlite"
	"github.com/sakif/teamrsvp/internal/service"
	"github.com/sakif/teamrsvp/internal/slack"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection and the notification dispatcher.
// Start stops the dispatcher (delivering what is queued) and closes the
// database once the HTTP server has drained.
type Server struct {
	router     *chi.Mux
	config     config.Config
	logger     *slog.Logger
	db         *sqliteRepo.DB
	dispatcher *service.Dispatcher
}

// New creates a new Server with the given config.
//
// IMPORT ALIAS:
// repository/sqlite is imported as `sqliteRepo` so it isn't confused with
// the modernc sqlite driver package.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if len(cfg.TeamChannels) == 0 {
		logger.Warn("TEAM_CHANNELS is empty, no channel will be visible")
	}
	if cfg.SlackSigningSecret == "" {
		logger.Warn("SLACK_SIGNING_SECRET not set, slash commands are not verified")
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes()

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// POST   /slack/command              → slash command, replies with an auth link
// GET    /team/auth                  → debug only: outstanding tokens
// GET    /team/auth/{token}          → set cookie, redirect to /team/
// GET    /team/events                → the session's view          [session]
// POST   /team/events                → create                      [session]
// PUT    /team/events/{id}           → replace                     [session]
// DELETE /team/events/{id}           → 501                         [session]
// POST   /team/events/{id}/join      → join                        [session]
// GET    /team/events/{id}/leave     → leave                       [session]
// POST   /team/view                  → view, keeping visibility    [session]
// GET    /team/*                     → front-end assets from StaticDir
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Recoverer: catches panics and returns 500 instead of crashing
// 4. Logger: logs each request and tracks whether a response was written
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === Collaborators ===
	slackClient := slack.New(slack.Config{
		Token:           s.config.SlackToken,
		BaseURL:         s.config.SlackAPIURL,
		PrivateChannels: s.config.SlackPrivateChannels,
	}, s.logger)

	s.dispatcher = service.NewDispatcher(slackClient, service.DispatcherConfig{
		QueueSize: s.config.NotifyQueueSize,
		Timeout:   s.config.NotifyTimeout,
	}, s.logger)

	tokenService := auth.NewTokenService(s.db, s.db, auth.Config{
		TTL:           s.config.TokenTTL,
		EnforceExpiry: s.config.EnforceTokenExpiry,
	}, s.logger)
	resolver := service.NewChannelResolver(slackClient, s.config.TeamChannels, s.config.Language, s.logger)
	eventService := service.NewEventService(s.db, s.dispatcher, s.logger)
	viewService := service.NewViewService(s.db, s.db, resolver, s.logger)

	// === Handlers ===
	commandHandler := handler.NewCommandHandler(tokenService, slackClient, s.config.SlackSigningSecret, s.logger)
	authHandler := handler.NewAuthHandler(tokenService, s.logger)
	eventHandler := handler.NewEventHandler(eventService, viewService, s.logger)

	s.router.Post("/slack/command", commandHandler.HandleCommand)

	s.router.Route("/team", func(r chi.Router) {
		if s.config.Debug {
			r.Get("/auth", authHandler.HandleList)
		}
		r.Get("/auth/{token}", authHandler.HandleRedeem)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(tokenService, s.logger))

			r.Get("/events", eventHandler.HandleList)
			r.Post("/events", eventHandler.HandleCreate)
			r.Put("/events/{id}", eventHandler.HandleReplace)
			r.Delete("/events/{id}", eventHandler.HandleDelete)
			r.Post("/events/{id}/join", eventHandler.HandleJoin)
			r.Get("/events/{id}/leave", eventHandler.HandleLeave)
			r.Post("/view", eventHandler.HandleRefresh)
		})

		// === Static Files ===
		// GET /team/css/app.css → serves {StaticDir}/css/app.css
		if s.config.StaticDir != "" {
			fileServer := http.FileServer(http.Dir(s.config.StaticDir))
			r.Handle("/*", http.StripPrefix("/team/", fileServer))
		}
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the dispatcher and the HTTP server, and handles graceful
// shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Deliver queued notifications and stop the dispatcher
// 4. Close the database connection (flushes WAL, releases file lock)
//
// Deferred calls run in reverse order, so 3 happens before 4.
func (s *Server) Start() error {
	defer s.db.Close()

	s.dispatcher.Start()
	defer s.dispatcher.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d/team/", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.Bool("debug", s.config.Debug),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
