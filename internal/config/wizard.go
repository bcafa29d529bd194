package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/ziadkadry99/chatshell/internal/theme"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to chatshell! Let's point it at your chat backend.")
	fmt.Println()

	cfg := DefaultConfig()

	backendPrompt := promptui.Prompt{
		Label:   "Chat backend URL",
		Default: cfg.BackendURL,
		Validate: func(s string) error {
			return checkURL("backend_url", s, "http", "https")
		},
	}
	backend, err := backendPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("backend url: %w", err)
	}
	cfg.BackendURL = strings.TrimRight(backend, "/")
	cfg.SocketURL = socketURLFor(cfg.BackendURL)

	modePrompt := promptui.Select{
		Label: "How should your session be checked",
		Items: []string{
			"remote: ask the backend on every start",
			"token:  verify the stored token locally",
		},
	}
	modeIdx, _, err := modePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("auth mode selection: %w", err)
	}
	cfg.Auth.Mode = []AuthMode{AuthRemote, AuthToken}[modeIdx]

	if cfg.Auth.Mode == AuthToken {
		secretPrompt := promptui.Prompt{
			Label: "Token signing secret",
			Mask:  '*',
		}
		cfg.Auth.TokenSecret, err = secretPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("token secret: %w", err)
		}
	}

	themePrompt := promptui.Select{
		Label:     "Default theme",
		Items:     theme.Themes,
		CursorPos: slices.Index(theme.Themes, theme.Default),
		Size:      10,
	}
	_, cfg.Theme, err = themePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("theme selection: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// socketURLFor derives the presence socket endpoint from the backend URL.
func socketURLFor(backend string) string {
	u, err := url.Parse(backend)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String()
}
