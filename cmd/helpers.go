package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ziadkadry99/chatshell/internal/audit"
	"github.com/ziadkadry99/chatshell/internal/auth"
	"github.com/ziadkadry99/chatshell/internal/config"
	"github.com/ziadkadry99/chatshell/internal/db"
	"github.com/ziadkadry99/chatshell/internal/presence"
	"github.com/ziadkadry99/chatshell/internal/routes"
	"github.com/ziadkadry99/chatshell/internal/session"
	"github.com/ziadkadry99/chatshell/internal/shell"
	"github.com/ziadkadry99/chatshell/internal/theme"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `chatshell init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger. --verbose lowers the level to debug.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newChecker creates the identity lookup for the configured auth mode.
func newChecker(cfg *config.Config, token auth.TokenSource) (session.Checker, error) {
	switch cfg.Auth.Mode {
	case config.AuthRemote:
		return auth.NewRemoteChecker(cfg.BackendURL, token, cfg.Auth.CheckTimeout), nil
	case config.AuthToken:
		return auth.NewTokenChecker(cfg.Auth.TokenSecret, token), nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
}

// app holds the process-wide services shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *db.DB
	sessions *session.Store
	themes   *theme.Store
	events   *audit.Store
	shell    *shell.Shell
	follower *presence.Follower
}

// openApp wires the services for cfg. The presence feed follows the session
// for as long as ctx lives.
func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	database, err := db.Open(filepath.Join(cfg.DataDir, "chatshell.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	checker, err := newChecker(cfg, auth.StoredToken(cfg.DataDir))
	if err != nil {
		database.Close()
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, db: database}
	a.events = audit.NewStore(database)
	a.sessions = session.NewStore(checker, a.events, logger.With("component", "session"))
	a.themes = theme.NewStore(database, cfg.Theme, logger.With("component", "theme"))
	a.shell = shell.New(a.sessions, a.themes, routes.Default(), logger.With("component", "shell"))

	if cfg.Presence.Enabled {
		feed := presence.NewFeed(cfg.SocketURL, a.sessions,
			cfg.Presence.ReconnectMin, cfg.Presence.ReconnectMax,
			logger.With("component", "presence"))
		a.follower = presence.NewFollower(ctx, feed)
		a.sessions.Subscribe(a.follower.Observe)
	}
	return a, nil
}

// Close stops background work and closes the database.
func (a *app) Close() {
	if a.follower != nil {
		a.follower.Stop()
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("closing database", "error", err)
	}
}

// logFile opens the log file used while the terminal UI owns the screen.
func logFile(dataDir string) (*os.File, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return os.OpenFile(filepath.Join(dataDir, "chatshell.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}
