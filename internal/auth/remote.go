package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ziadkadry99/chatshell/internal/session"
)

// CheckPath is the backend endpoint answering "who am I".
const CheckPath = "/api/auth/check"

// CookieName is the cookie the backend issues on login.
const CookieName = "jwt"

// RemoteChecker asks the chat backend who the stored token belongs to.
type RemoteChecker struct {
	baseURL string
	token   TokenSource
	client  *http.Client
}

var _ session.Checker = (*RemoteChecker)(nil)

// NewRemoteChecker creates a checker against baseURL. timeout bounds each
// request; zero means no bound.
func NewRemoteChecker(baseURL string, token TokenSource, timeout time.Duration) *RemoteChecker {
	return &RemoteChecker{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Check implements session.Checker.
func (c *RemoteChecker) Check(ctx context.Context) (*session.Identity, error) {
	tok, err := c.token()
	if err != nil {
		return nil, fmt.Errorf("reading session token: %w", err)
	}
	if tok == "" {
		return nil, ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+CheckPath, nil)
	if err != nil {
		return nil, fmt.Errorf("creating auth check request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: CookieName, Value: tok})

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth check: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthenticated
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("auth check returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var id session.Identity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return nil, fmt.Errorf("decoding auth check response: %w", err)
	}
	if id.ID == "" {
		return nil, fmt.Errorf("auth check response has no user id")
	}
	return &id, nil
}
