// Package main is the entry point for the teamrsvp server.
//
// MAIN PACKAGE IN GO:
// main should stay minimal. Its job is to:
// 1. Read configuration (.env file, then environment variables)
// 2. Create the logger
// 3. Hand over to the command the user asked for
//
// All actual logic lives in imported packages (internal/server, internal/service, etc.).
//
// COMMANDS:
//
//	teamrsvp serve    run the HTTP server (the default)
//	teamrsvp tokens   print outstanding session tokens and their links
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/sakif/teamrsvp/internal/auth"
	"github.com/sakif/teamrsvp/internal/config"
	sqliteRepo "github.com/sakif/teamrsvp/internal/repository/sqlite"
	"github.com/sakif/teamrsvp/internal/server"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:   "teamrsvp",
		Usage:  "Schedule channel events and collect RSVPs from a Slack slash command.",
		Action: runServe,
		Commands: []*cli.Command{
			serveCommand(),
			tokensCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP server.",
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	// Ensure the data directory exists (like `mkdir -p`).
	if err := ensureDBDir(cfg.DBPath); err != nil {
		return err
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	return srv.Start()
}

func tokensCommand() *cli.Command {
	return &cli.Command{
		Name:  "tokens",
		Usage: "List outstanding session tokens with their auth links.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Host used to build the links (default localhost:PORT)."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel)

			db, err := sqliteRepo.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			tokens := auth.NewTokenService(db, db, auth.Config{TTL: cfg.TokenTTL}, logger)
			list, err := tokens.List(context.Background())
			if err != nil {
				return fmt.Errorf("listing tokens: %w", err)
			}

			host := c.String("host")
			if host == "" {
				host = fmt.Sprintf("localhost:%d", cfg.Port)
			}

			w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tCHANNEL\tEXPIRES\tURL")
			for _, t := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.User, t.Channel, t.ExpireAt.Format("2006-01-02 15:04"), auth.LinkURL(host, t.Token))
			}
			return w.Flush()
		},
	}
}

func ensureDBDir(dbPath string) error {
	if dbPath == ":memory:" {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

func newLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
