// Package web serves the shell as a local web view. Route decisions become
// HTTP responses: render is a 200 page, redirect is a 302.
package web

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/chatshell/internal/session"
	"github.com/ziadkadry99/chatshell/internal/shell"
)

// Themes is the theme store as seen by the web view.
type Themes interface {
	Current(ctx context.Context) string
	Set(ctx context.Context, id string) error
}

// Web provides the page routes, the shell API and the presence socket.
type Web struct {
	shell  *shell.Shell
	themes Themes
	logger *slog.Logger

	mu      sync.Mutex
	clients map[chan presenceMessage]struct{}
}

// New creates the web view over sh.
func New(sh *shell.Shell, themes Themes, logger *slog.Logger) *Web {
	if logger == nil {
		logger = slog.Default()
	}
	return &Web{
		shell:   sh,
		themes:  themes,
		logger:  logger,
		clients: make(map[chan presenceMessage]struct{}),
	}
}

// RegisterRoutes mounts all web view routes onto the given router. Page
// routes are a catch-all, so mount other APIs before or alongside it.
func (w *Web) RegisterRoutes(r chi.Router) {
	r.Get("/api/shell/state", w.handleState)
	r.Get("/api/shell/resolve", w.handleResolve)
	r.Put("/api/theme", w.handleSetTheme)
	r.Post("/settings/theme", w.handleThemeForm)
	r.Get("/ws/presence", w.handlePresenceSocket)
	r.Get("/*", w.handlePage)
}

// Broadcast pushes snap to every connected presence socket. Register it
// with Shell.OnChange.
func (w *Web) Broadcast(snap session.Snapshot) {
	msg := presenceFor(snap)

	w.mu.Lock()
	defer w.mu.Unlock()
	for ch := range w.clients {
		select {
		case ch <- msg:
		default:
			w.logger.Debug("presence client lagging; dropping update")
		}
	}
}

func (w *Web) addClient() chan presenceMessage {
	ch := make(chan presenceMessage, 8)
	w.mu.Lock()
	w.clients[ch] = struct{}{}
	w.mu.Unlock()
	return ch
}

func (w *Web) removeClient(ch chan presenceMessage) {
	w.mu.Lock()
	delete(w.clients, ch)
	w.mu.Unlock()
}
