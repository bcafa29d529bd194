package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/chatshell/internal/theme"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (CHATSHELL_*). A double underscore
// separates nested keys: CHATSHELL_AUTH__MODE sets auth.mode.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider("CHATSHELL_", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, "CHATSHELL_"))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validAuthModes = map[AuthMode]bool{
	AuthRemote: true,
	AuthToken:  true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if !validAuthModes[c.Auth.Mode] {
		return fmt.Errorf("invalid auth.mode %q: must be one of remote, token", c.Auth.Mode)
	}

	if c.Auth.Mode == AuthRemote {
		if err := checkURL("backend_url", c.BackendURL, "http", "https"); err != nil {
			return err
		}
	}
	if c.Auth.Mode == AuthToken && c.Auth.TokenSecret == "" {
		return fmt.Errorf("auth.token_secret is required when auth.mode is token")
	}
	if c.Auth.CheckTimeout < 0 {
		return fmt.Errorf("auth.check_timeout must be non-negative")
	}

	if c.Presence.Enabled {
		if err := checkURL("socket_url", c.SocketURL, "ws", "wss"); err != nil {
			return err
		}
		if c.Presence.ReconnectMin <= 0 || c.Presence.ReconnectMax < c.Presence.ReconnectMin {
			return fmt.Errorf("presence reconnect bounds must satisfy 0 < reconnect_min <= reconnect_max")
		}
	}

	if c.Theme != "" && !theme.Valid(c.Theme) {
		return fmt.Errorf("invalid theme %q", c.Theme)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web.port %d out of range", c.Web.Port)
	}

	return nil
}

func checkURL(field, raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q: scheme must be one of %s", field, raw, strings.Join(schemes, ", "))
}
