package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TokenEnvVar overrides the stored session token when set.
const TokenEnvVar = "CHATSHELL_TOKEN"

// Credentials is the persisted session of the signed-in user.
type Credentials struct {
	// Token is the value of the backend's "jwt" cookie.
	Token   string    `json:"token,omitempty"`
	Backend string    `json:"backend,omitempty"`
	SavedAt time.Time `json:"saved_at,omitzero"`
}

// CredentialPath returns the credentials file inside dataDir.
func CredentialPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.json")
}

// Load reads credentials from dataDir. Returns empty credentials if the
// file doesn't exist.
func Load(dataDir string) (*Credentials, error) {
	data, err := os.ReadFile(CredentialPath(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return &Credentials{}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	return &creds, nil
}

// Save writes credentials to dataDir with restricted permissions.
func Save(dataDir string, creds *Credentials) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling credentials: %w", err)
	}

	if err := os.WriteFile(CredentialPath(dataDir), data, 0600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// Clear removes stored credentials. A missing file is not an error.
func Clear(dataDir string) error {
	if err := os.Remove(CredentialPath(dataDir)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credentials: %w", err)
	}
	return nil
}

// TokenSource returns the session token to present to the backend.
type TokenSource func() (string, error)

// StoredToken reads the token from the environment first, then from the
// credentials file in dataDir. It is evaluated on every call so a fresh
// login is picked up by the next check.
func StoredToken(dataDir string) TokenSource {
	return func() (string, error) {
		if tok := os.Getenv(TokenEnvVar); tok != "" {
			return tok, nil
		}
		creds, err := Load(dataDir)
		if err != nil {
			return "", err
		}
		return creds.Token, nil
	}
}

// StaticToken always returns tok.
func StaticToken(tok string) TokenSource {
	return func() (string, error) { return tok, nil }
}
