// Package tui renders the chat shell in the terminal with bubbletea.
//
// Session snapshots reach the model as messages sent from the shell's
// change callback, so every frame is composed on the program's event loop
// from one consistent snapshot.
package tui

import (
	"context"
	"log/slog"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ziadkadry99/chatshell/internal/routes"
	"github.com/ziadkadry99/chatshell/internal/session"
	"github.com/ziadkadry99/chatshell/internal/shell"
	"github.com/ziadkadry99/chatshell/internal/theme"
)

// Themes is the theme store as seen by the terminal UI.
type Themes interface {
	Current(ctx context.Context) string
	Set(ctx context.Context, id string) error
}

// SnapshotMsg carries a published session snapshot into the model.
type SnapshotMsg session.Snapshot

// ThemeMsg reports a new active theme.
type ThemeMsg string

// NavigateMsg asks the model to show path.
type NavigateMsg string

type themeSetMsg struct {
	id  string
	err error
}

// maxRedirects bounds redirect chains from a misconfigured table.
const maxRedirects = 4

// Model is the bubbletea model for the shell.
type Model struct {
	ctx    context.Context
	shell  *shell.Shell
	themes Themes
	logger *slog.Logger
	keys   KeyMap

	spinner spinner.Model

	// synced is false until the first snapshot arrives; until then the
	// session may not even be checking yet.
	synced bool
	snap   session.Snapshot
	theme  string
	path   string

	cursor int
	status string

	width  int
	height int
}

// New creates a model showing the table's landing path.
func New(ctx context.Context, sh *shell.Shell, themes Themes, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	current := themes.Current(ctx)
	return Model{
		ctx:     ctx,
		shell:   sh,
		themes:  themes,
		logger:  logger,
		keys:    DefaultKeyMap,
		spinner: s,
		theme:   current,
		path:    sh.Table().LandingPath,
		cursor:  max(slices.Index(theme.Themes, current), 0),
		width:   80,
		height:  24,
	}
}

// Init mounts the shell, which starts the bootstrap check.
func (m Model) Init() tea.Cmd {
	sh, ctx := m.shell, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		sh.Mount(ctx)
		return nil
	})
}

// Frame is the frame the model currently shows.
func (m Model) Frame() shell.Frame {
	if !m.synced {
		return shell.Frame{Loading: true, Theme: m.theme}
	}
	return shell.Compose(m.shell.Table(), m.snap, m.theme, m.path)
}

// Path is the path the model is on, after redirects.
func (m Model) Path() string { return m.path }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case SnapshotMsg:
		snap := session.Snapshot(msg)
		if m.synced && snap.Version < m.snap.Version {
			return m, nil
		}
		m.snap = snap
		m.synced = true
		m.settle()
		return m, nil

	case ThemeMsg:
		m.theme = string(msg)
		return m, nil

	case NavigateMsg:
		m.navigate(string(msg))
		return m, nil

	case themeSetMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.theme = msg.id
		m.status = "theme set to " + msg.id
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	f := m.Frame()
	if f.Loading {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.NextRoute):
		m.step(1)
	case key.Matches(msg, m.keys.PrevRoute):
		m.step(-1)
	case key.Matches(msg, m.keys.Refresh):
		sh, ctx := m.shell, m.ctx
		m.status = "checking session"
		return m, func() tea.Msg {
			sh.Refresh(ctx)
			return nil
		}
	case f.Decision.Screen == routes.ScreenSettings && key.Matches(msg, m.keys.Up):
		m.cursor = max(m.cursor-1, 0)
	case f.Decision.Screen == routes.ScreenSettings && key.Matches(msg, m.keys.Down):
		m.cursor = min(m.cursor+1, len(theme.Themes)-1)
	case f.Decision.Screen == routes.ScreenSettings && key.Matches(msg, m.keys.Apply):
		id, themes, ctx := theme.Themes[m.cursor], m.themes, m.ctx
		return m, func() tea.Msg {
			return themeSetMsg{id: id, err: themes.Set(ctx, id)}
		}
	}
	return m, nil
}

// step moves through the route table in order, wrapping around.
func (m *Model) step(delta int) {
	rs := m.shell.Table().Routes()
	if len(rs) == 0 {
		return
	}
	i := slices.IndexFunc(rs, func(r routes.Route) bool { return r.Path == m.path })
	i = (i + delta + len(rs)) % len(rs)
	m.navigate(rs[i].Path)
}

func (m *Model) navigate(path string) {
	m.path = routes.Normalize(path)
	m.status = ""
	m.settle()
}

// settle follows redirects until the current path renders.
func (m *Model) settle() {
	if !m.synced {
		return
	}
	for range maxRedirects {
		f := shell.Compose(m.shell.Table(), m.snap, m.theme, m.path)
		if f.Loading || f.Decision.Kind != routes.Redirect {
			return
		}
		m.logger.Debug("redirect", "from", m.path, "to", f.Decision.Target)
		m.path = f.Decision.Target
	}
	m.logger.Warn("redirect loop", "path", m.path)
}

// Run starts the terminal UI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, sh *shell.Shell, themes *theme.Store, logger *slog.Logger) error {
	m := New(ctx, sh, themes, logger)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	sh.OnChange(func(s session.Snapshot) { program.Send(SnapshotMsg(s)) })
	themes.Watch(func(id string) { program.Send(ThemeMsg(id)) })
	defer sh.Unmount()

	_, err := program.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
