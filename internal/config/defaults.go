package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ziadkadry99/chatshell/internal/theme"
)

// DefaultFile is the config file looked up when --config is not given.
const DefaultFile = ".chatshell.yml"

// DefaultDataDir returns ~/.chatshell, or .chatshell when the home
// directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chatshell"
	}
	return filepath.Join(home, ".chatshell")
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BackendURL: "http://localhost:5001",
		SocketURL:  "ws://localhost:5001/ws",
		DataDir:    DefaultDataDir(),
		Theme:      theme.Default,
		Auth: AuthConfig{
			Mode:         AuthRemote,
			CheckTimeout: 10 * time.Second,
		},
		Presence: PresenceConfig{
			Enabled:      true,
			ReconnectMin: 500 * time.Millisecond,
			ReconnectMax: 30 * time.Second,
		},
		Web: WebConfig{
			Port: 5173,
		},
	}
}
