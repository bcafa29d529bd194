package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/ziadkadry99/chatshell/internal/routes"
	"github.com/ziadkadry99/chatshell/internal/shell"
	"github.com/ziadkadry99/chatshell/internal/theme"
)

type styles struct {
	app    lipgloss.Style
	brand  lipgloss.Style
	tab    lipgloss.Style
	active lipgloss.Style
	title  lipgloss.Style
	muted  lipgloss.Style
	online lipgloss.Style
	cursor lipgloss.Style
}

func newStyles(p theme.Palette) styles {
	return styles{
		app:    lipgloss.NewStyle().Background(p.Base).Foreground(p.Text),
		brand:  lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		tab:    lipgloss.NewStyle().Foreground(p.Muted).Padding(0, 1),
		active: lipgloss.NewStyle().Foreground(p.Base).Background(p.Accent).Padding(0, 1),
		title:  lipgloss.NewStyle().Bold(true).Foreground(p.Text).MarginBottom(1),
		muted:  lipgloss.NewStyle().Foreground(p.Muted),
		online: lipgloss.NewStyle().Foreground(p.Online),
		cursor: lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
	}
}

func (m Model) View() string {
	palette, _ := theme.PaletteFor(m.theme)
	st := newStyles(palette)
	f := m.Frame()

	if f.Loading {
		body := m.spinner.View() + " Loading…"
		return st.app.Width(m.width).Height(m.height).Render(
			lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body))
	}

	var b strings.Builder
	b.WriteString(m.fit(m.navbar(st, f)))
	b.WriteString("\n\n")
	b.WriteString(m.screen(st, f))
	b.WriteString("\n\n")
	b.WriteString(m.fit(m.footer(st, f)))
	return st.app.Width(m.width).Render(b.String())
}

func (m Model) fit(line string) string {
	return ansi.Truncate(line, m.width, "…")
}

func (m Model) navbar(st styles, f shell.Frame) string {
	parts := []string{st.brand.Render("chatshell")}
	for _, r := range m.shell.Table().Routes() {
		label := string(r.Screen)
		if r.Path == f.Decision.Path {
			parts = append(parts, st.active.Render(label))
		} else {
			parts = append(parts, st.tab.Render(label))
		}
	}
	if f.Identity != nil {
		name := f.Identity.FullName
		if name == "" {
			name = f.Identity.ID
		}
		parts = append(parts, st.muted.Render("· "+name))
	}
	return strings.Join(parts, " ")
}

func (m Model) footer(st styles, f shell.Frame) string {
	var parts []string
	if f.Presence != "" {
		parts = append(parts, st.online.Render("● "+f.Presence))
	}
	parts = append(parts, st.muted.Render("theme "+f.Theme))
	if m.status != "" {
		parts = append(parts, m.status)
	}
	var help []string
	for _, k := range m.keys.ShortHelp() {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	parts = append(parts, st.muted.Render(strings.Join(help, " • ")))
	return strings.Join(parts, "  ")
}

func (m Model) screen(st styles, f shell.Frame) string {
	if f.Decision.Kind == routes.NotFound {
		return st.title.Render("Not found") + "\n" + st.muted.Render("No screen at "+f.Decision.Path)
	}

	switch f.Decision.Screen {
	case routes.ScreenHome:
		return st.title.Render("Chats") + "\n" +
			st.muted.Render("Signed in. Conversations open in the chat client.")
	case routes.ScreenLogin:
		return st.title.Render("Log in") + "\n" +
			st.muted.Render("Run `chatshell auth login` to store a session token.")
	case routes.ScreenSignup:
		return st.title.Render("Sign up") + "\n" +
			st.muted.Render("Create an account in the chat client, then log in here.")
	case routes.ScreenProfile:
		return m.profile(st, f)
	case routes.ScreenSettings:
		return m.settings(st, f)
	}
	return ""
}

func (m Model) profile(st styles, f shell.Frame) string {
	id := f.Identity
	var b strings.Builder
	b.WriteString(st.title.Render("Profile"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Name:    %s\n", id.FullName)
	fmt.Fprintf(&b, "Email:   %s\n", id.Email)
	fmt.Fprintf(&b, "User ID: %s\n", id.ID)
	if !id.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Member since %s\n", id.CreatedAt.Format("2006-01-02"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// settings lists themes in a window around the cursor.
func (m Model) settings(st styles, f shell.Frame) string {
	var b strings.Builder
	b.WriteString(st.title.Render("Theme"))
	b.WriteString("\n")
	if !theme.Valid(f.Theme) {
		b.WriteString(st.muted.Render(fmt.Sprintf("Stored theme %q is not supported; showing the default palette.", f.Theme)))
		b.WriteString("\n")
	}

	rows := max(m.height-8, 5)
	start := max(0, min(m.cursor-rows/2, len(theme.Themes)-rows))
	end := min(start+rows, len(theme.Themes))
	for i := start; i < end; i++ {
		id := theme.Themes[i]
		line := "  " + id
		if id == f.Theme {
			line += " ✓"
		}
		if i == m.cursor {
			line = st.cursor.Render("> " + strings.TrimPrefix(line, "  "))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
