// Package theme holds the persisted visual theme of the chat client.
//
// The store accepts only known theme ids on Set, but it never rejects what
// it finds on disk: a value written by an older build is handed to the
// shell unchanged and rendered with the fallback palette.
package theme

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/ziadkadry99/chatshell/internal/db"
)

// Default is the theme used when nothing has been persisted yet.
const Default = "coffee"

// preferenceKey is the row in the preferences table holding the theme.
const preferenceKey = "chat-theme"

// ErrUnknownTheme is returned by Set for ids outside Themes.
var ErrUnknownTheme = errors.New("unknown theme")

// Themes is the closed set of supported theme ids, in display order.
var Themes = []string{
	"light", "dark", "cupcake", "bumblebee", "emerald", "corporate",
	"synthwave", "retro", "cyberpunk", "valentine", "halloween", "garden",
	"forest", "aqua", "lofi", "pastel", "fantasy", "wireframe", "black",
	"luxury", "dracula", "cmyk", "autumn", "business", "acid", "lemonade",
	"night", "coffee", "winter", "dim", "nord", "sunset",
}

// Valid reports whether id is one of Themes.
func Valid(id string) bool {
	return slices.Contains(Themes, id)
}

// Store reads and writes the active theme. It hydrates from the database on
// first use and caches the value afterwards.
type Store struct {
	db       *db.DB
	fallback string
	logger   *slog.Logger

	mu       sync.RWMutex
	loaded   bool
	current  string
	watchers []func(string)
}

// NewStore creates a Store backed by the given database. fallback is used
// when no theme was persisted; an empty fallback means Default.
func NewStore(database *db.DB, fallback string, logger *slog.Logger) *Store {
	if fallback == "" {
		fallback = Default
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: database, fallback: fallback, logger: logger}
}

// Current returns the active theme id. A failed read degrades to the
// fallback and is retried on the next call.
func (s *Store) Current(ctx context.Context) string {
	s.mu.RLock()
	if s.loaded {
		id := s.current
		s.mu.RUnlock()
		return id
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.current
	}

	id, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("reading persisted theme", "error", err)
		return s.fallback
	}
	s.current = id
	s.loaded = true
	return id
}

// Set validates and persists id, then notifies watchers.
func (s *Store) Set(ctx context.Context, id string) error {
	if !Valid(id) {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, id)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		preferenceKey, id)
	if err != nil {
		return fmt.Errorf("saving theme: %w", err)
	}

	s.mu.Lock()
	s.current = id
	s.loaded = true
	watchers := slices.Clone(s.watchers)
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(id)
	}
	return nil
}

// Watch registers fn to be called after every successful Set.
func (s *Store) Watch(fn func(string)) {
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	s.mu.Unlock()
}

func (s *Store) read(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, preferenceKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return s.fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("querying theme: %w", err)
	}
	return id, nil
}
