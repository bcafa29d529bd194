// Package shell is the root of the chat client. It bootstraps the session
// once per mount, decides between the loading view and the themed layout,
// and applies the route guard to every navigation.
package shell

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ziadkadry99/chatshell/internal/presence"
	"github.com/ziadkadry99/chatshell/internal/routes"
	"github.com/ziadkadry99/chatshell/internal/session"
)

// ThemeSource supplies the active theme id. *theme.Store implements it.
type ThemeSource interface {
	Current(ctx context.Context) string
}

// Frame is everything a presentation needs to draw one screen.
type Frame struct {
	// Loading means draw the loading view and nothing else.
	Loading  bool
	Theme    string
	Decision routes.Decision
	// Presence is empty unless the session is Present.
	Presence string
	Identity *session.Identity
	Version  uint64
}

// Loading reports whether snap must be drawn as the loading view: no
// identity is known and either a check is running or none has resolved yet.
func Loading(snap session.Snapshot) bool {
	if snap.Session.IsPresent() {
		return false
	}
	return snap.Bootstrapping || snap.Session.State() == session.Unknown
}

// Compose builds the frame for path from one snapshot. It is pure.
func Compose(table *routes.Table, snap session.Snapshot, themeID, path string) Frame {
	f := Frame{Theme: themeID, Version: snap.Version}
	if Loading(snap) {
		f.Loading = true
		return f
	}
	f.Decision = table.Evaluate(path, snap.Session)
	if id, ok := snap.Session.Identity(); ok {
		f.Identity = &id
		f.Presence = presence.Label(snap.OnlineCount())
	}
	return f
}

// Shell owns one mounted instance of the client root.
type Shell struct {
	sessions *session.Store
	themes   ThemeSource
	table    *routes.Table
	logger   *slog.Logger

	bootOnce sync.Once
	ready    chan struct{}

	mu          sync.Mutex
	live        bool
	onChange    func(session.Snapshot)
	unsubscribe func()
}

// New creates a shell. Nothing happens until Mount.
func New(sessions *session.Store, themes ThemeSource, table *routes.Table, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	if table == nil {
		table = routes.Default()
	}
	return &Shell{
		sessions: sessions,
		themes:   themes,
		table:    table,
		logger:   logger,
		ready:    make(chan struct{}),
	}
}

// OnChange sets the callback run for every snapshot published while the
// shell is mounted. Set it before Mount.
func (s *Shell) OnChange(fn func(session.Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Mount subscribes to the session store and starts the bootstrap check.
// The check runs at most once per Shell no matter how often Mount is
// called. It outlives ctx's cancellation so a late answer still reaches the
// store.
func (s *Shell) Mount(ctx context.Context) {
	s.mu.Lock()
	if !s.live {
		s.live = true
		s.unsubscribe = s.sessions.Subscribe(s.deliver)
	}
	s.mu.Unlock()

	s.bootOnce.Do(func() {
		bootCtx := context.WithoutCancel(ctx)
		go func() {
			defer close(s.ready)
			snap := s.sessions.CheckAuth(bootCtx)
			s.logger.Debug("session bootstrap resolved", "state", snap.Session.State())
		}()
	})
}

// Unmount detaches the shell. A bootstrap still in flight completes in the
// background but the shell no longer reacts to it.
func (s *Shell) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = false
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Mounted reports whether the shell is live.
func (s *Shell) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// Ready is closed once the bootstrap check has returned.
func (s *Shell) Ready() <-chan struct{} { return s.ready }

// Refresh re-checks the session in place. A signed-in user keeps seeing
// the layout while it runs.
func (s *Shell) Refresh(ctx context.Context) session.Snapshot {
	return s.sessions.CheckAuth(ctx)
}

// Snapshot returns the session store's current snapshot.
func (s *Shell) Snapshot() session.Snapshot { return s.sessions.Snapshot() }

// Frame composes the current frame for path.
func (s *Shell) Frame(ctx context.Context, path string) Frame {
	return Compose(s.table, s.sessions.Snapshot(), s.themes.Current(ctx), path)
}

// Table returns the route table the shell guards.
func (s *Shell) Table() *routes.Table { return s.table }

func (s *Shell) deliver(snap session.Snapshot) {
	s.mu.Lock()
	live, fn := s.live, s.onChange
	s.mu.Unlock()
	if live && fn != nil {
		fn(snap)
	}
}
