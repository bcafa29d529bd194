package config

import "time"

// AuthMode selects how the session store resolves the current identity.
type AuthMode string

const (
	// AuthRemote asks the chat backend who the stored cookie belongs to.
	AuthRemote AuthMode = "remote"
	// AuthToken verifies the stored JWT locally without a network call.
	AuthToken AuthMode = "token"
)

// Config is the top-level chatshell configuration, corresponding to .chatshell.yml.
type Config struct {
	BackendURL string         `yaml:"backend_url" koanf:"backend_url"`
	SocketURL  string         `yaml:"socket_url" koanf:"socket_url"`
	DataDir    string         `yaml:"data_dir" koanf:"data_dir"`
	Theme      string         `yaml:"theme" koanf:"theme"`
	Auth       AuthConfig     `yaml:"auth" koanf:"auth"`
	Presence   PresenceConfig `yaml:"presence" koanf:"presence"`
	Web        WebConfig      `yaml:"web" koanf:"web"`
}

// AuthConfig controls the identity lookup behind session bootstrap.
type AuthConfig struct {
	Mode AuthMode `yaml:"mode" koanf:"mode"`
	// CheckTimeout bounds a single identity lookup. Zero waits forever.
	CheckTimeout time.Duration `yaml:"check_timeout" koanf:"check_timeout"`
	// TokenSecret is the HMAC key for AuthToken mode.
	TokenSecret string `yaml:"token_secret,omitempty" koanf:"token_secret"`
}

// PresenceConfig tunes the online-users socket client.
type PresenceConfig struct {
	Enabled      bool          `yaml:"enabled" koanf:"enabled"`
	ReconnectMin time.Duration `yaml:"reconnect_min" koanf:"reconnect_min"`
	ReconnectMax time.Duration `yaml:"reconnect_max" koanf:"reconnect_max"`
}

// WebConfig holds settings for the localhost web view.
type WebConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
}
